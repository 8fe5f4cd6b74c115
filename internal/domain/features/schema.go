// Package features turns raw account records into flat, schema-versioned
// feature records consumed by the scorer.
//
// Conventions:
// - Extractors are pure functions with no shared state and no I/O.
// - Every schema key is always present in an extractor's output, with a
//   defined neutral default when the underlying data is insufficient.
// - Adding or removing a feature is a schema version bump.
package features

// Version identifies the feature schema. Bump on any key change.
const Version = 1

// Record is a flat mapping from feature name to numeric value.
type Record map[string]float64

// Feature names owned by the account extractor.
const (
	AccountAgeDays = "account_age_days"
	KarmaPerDay    = "karma_per_day"
	PostKarmaRatio = "post_karma_ratio"
	TotalKarma     = "total_karma"
	VerifiedEmail  = "verified_email"
	HasPremium     = "has_premium"
	TrophyCount    = "trophy_count"
)

// Feature names owned by the behavioral extractor.
const (
	PostsPerDay      = "posts_per_day"
	CommentsPerDay   = "comments_per_day"
	SubredditEntropy = "subreddit_entropy"
	HourEntropy      = "hour_entropy"
	BurstScore       = "burst_score"
	WeekendRatio     = "weekend_ratio"
	MedianGapSeconds = "median_gap_seconds"
	EventCount       = "event_count"
)

// Feature names owned by the linguistic extractor.
const (
	VocabRichness     = "vocab_richness"
	AvgWordLength     = "avg_word_length"
	AvgSentenceLength = "avg_sentence_length"
	EmojiDensity      = "emoji_density"
	QuestionRatio     = "question_ratio"
	WordCount         = "word_count"
	ErrPhonetic       = "err_phonetic"
	ErrArticle        = "err_article"
	ErrFormality      = "err_formality"
	ErrPreposition    = "err_preposition"
)

// Key sets owned by each extractor. The partition must stay disjoint;
// Aggregate enforces it.
var (
	accountKeys = []string{
		AccountAgeDays, KarmaPerDay, PostKarmaRatio, TotalKarma,
		VerifiedEmail, HasPremium, TrophyCount,
	}
	behaviorKeys = []string{
		PostsPerDay, CommentsPerDay, SubredditEntropy, HourEntropy,
		BurstScore, WeekendRatio, MedianGapSeconds, EventCount,
	}
	linguisticKeys = []string{
		VocabRichness, AvgWordLength, AvgSentenceLength, EmojiDensity,
		QuestionRatio, WordCount, ErrPhonetic, ErrArticle, ErrFormality,
		ErrPreposition,
	}
)

// Schema returns every feature name in the current schema version.
func Schema() []string {
	all := make([]string, 0, len(accountKeys)+len(behaviorKeys)+len(linguisticKeys))
	all = append(all, accountKeys...)
	all = append(all, behaviorKeys...)
	all = append(all, linguisticKeys...)
	return all
}
