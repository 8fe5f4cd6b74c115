package scoring

import (
	"context"
	"math"
	"sort"

	"github.com/okian/sentinel/internal/domain/features"
)

// Default heuristic configuration constants.
const (
	heuristicVersion = "heuristic-v1"
	defaultTopK      = 4
	// confidenceSampleSize is the event count at which the sample-size
	// term of the confidence formula saturates.
	confidenceSampleSize = 50

	sampleWeight    = 0.55
	agreementWeight = 0.30
	extremityWeight = 0.15
)

// rule is one row of the heuristic scoring table: a named predicate with
// a fixed signed weight. Adding or removing a signal is a data change
// here, not a control-flow change.
type rule struct {
	name    string
	feature string // feature whose raw value the factor reports
	weight  float64
	when    func(features.Record) bool
}

// heuristicRules is the ordered reference rule table. Positive weights
// push toward bot, negative toward human.
var heuristicRules = []rule{
	{
		name:    "young_account",
		feature: features.AccountAgeDays,
		weight:  0.15,
		when:    func(r features.Record) bool { return r[features.AccountAgeDays] < 30 },
	},
	{
		name:    "new_account_high_karma",
		feature: features.KarmaPerDay,
		weight:  0.20,
		when: func(r features.Record) bool {
			return r[features.AccountAgeDays] < 90 && r[features.KarmaPerDay] > 100
		},
	},
	{
		name:    "karma_velocity",
		feature: features.KarmaPerDay,
		weight:  0.15,
		when:    func(r features.Record) bool { return r[features.KarmaPerDay] > 500 },
	},
	{
		name:    "narrow_subreddit_focus",
		feature: features.SubredditEntropy,
		weight:  0.12,
		when: func(r features.Record) bool {
			return r[features.EventCount] >= 10 && r[features.SubredditEntropy] < 0.30
		},
	},
	{
		name:    "mechanical_posting_hours",
		feature: features.HourEntropy,
		weight:  0.10,
		when: func(r features.Record) bool {
			return r[features.EventCount] >= 10 && r[features.HourEntropy] < 0.35
		},
	},
	{
		name:    "bursty_cadence",
		feature: features.BurstScore,
		weight:  0.15,
		when: func(r features.Record) bool {
			return r[features.BurstScore] > 2.5 && r[features.MedianGapSeconds] < 600
		},
	},
	{
		name:    "no_weekend_activity",
		feature: features.WeekendRatio,
		weight:  0.08,
		when: func(r features.Record) bool {
			return r[features.EventCount] >= 30 && r[features.WeekendRatio] == 0
		},
	},
	{
		name:    "template_vocabulary",
		feature: features.VocabRichness,
		weight:  0.15,
		when: func(r features.Record) bool {
			return r[features.WordCount] >= 200 && r[features.VocabRichness] < 0.35
		},
	},
	{
		name:    "formal_register",
		feature: features.ErrFormality,
		weight:  0.12,
		when:    func(r features.Record) bool { return r[features.ErrFormality] >= 1.5 },
	},
	{
		name:    "emoji_flood",
		feature: features.EmojiDensity,
		weight:  0.08,
		when:    func(r features.Record) bool { return r[features.EmojiDensity] > 5 },
	},
	{
		name:    "humanlike_typos",
		feature: features.ErrPhonetic,
		weight:  -0.12,
		when: func(r features.Record) bool {
			return r[features.ErrPhonetic]+r[features.ErrArticle]+r[features.ErrPreposition] >= 1
		},
	},
	{
		name:    "curious_voice",
		feature: features.QuestionRatio,
		weight:  -0.05,
		when: func(r features.Record) bool {
			return r[features.WordCount] >= 100 && r[features.QuestionRatio] >= 0.20
		},
	},
	{
		name:    "verified_email",
		feature: features.VerifiedEmail,
		weight:  -0.05,
		when:    func(r features.Record) bool { return r[features.VerifiedEmail] == 1 },
	},
	{
		name:    "premium_subscriber",
		feature: features.HasPremium,
		weight:  -0.05,
		when:    func(r features.Record) bool { return r[features.HasPremium] == 1 },
	},
	{
		name:    "trophy_case",
		feature: features.TrophyCount,
		weight:  -0.08,
		when:    func(r features.Record) bool { return r[features.TrophyCount] >= 5 },
	},
}

// Option applies a configuration option to the Heuristic scorer.
type Option func(*Heuristic)

// WithTopK caps how many contributing factors a score reports.
func WithTopK(k int) Option {
	return func(h *Heuristic) {
		if k > 0 {
			h.topK = k
		}
	}
}

// Heuristic implements Scorer with the reference weighted-rule table.
type Heuristic struct {
	rules []rule
	topK  int
}

// NewHeuristic creates the reference heuristic scorer.
func NewHeuristic(opts ...Option) *Heuristic {
	h := &Heuristic{
		rules: heuristicRules,
		topK:  defaultTopK,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Version implements Scorer.
func (h *Heuristic) Version() string { return heuristicVersion }

// Score evaluates every rule against the record. Probability is the sum
// of satisfied rule weights clamped to [0,1]; each satisfied rule emits
// one contributing factor carrying its weight and the triggering
// feature's raw value, sorted by descending absolute contribution and
// truncated to the configured top-K.
func (h *Heuristic) Score(ctx context.Context, rec features.Record) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	var sum float64
	factors := make([]ContributingFactor, 0, len(h.rules))
	for _, r := range h.rules {
		if !r.when(rec) {
			continue
		}
		sum += r.weight
		factors = append(factors, ContributingFactor{
			Name:         r.name,
			Contribution: r.weight,
			Value:        rec[r.feature],
		})
	}

	probability := clamp01(sum)
	confidence := h.confidence(rec, probability, factors)

	sort.SliceStable(factors, func(i, j int) bool {
		return math.Abs(factors[i].Contribution) > math.Abs(factors[j].Contribution)
	})
	if len(factors) > h.topK {
		factors = factors[:h.topK]
	}

	return Output{
		Probability: probability,
		Confidence:  confidence,
		Factors:     factors,
	}, nil
}

// confidence is decoupled from probability on purpose: a score from
// sparse data must be flagged as less trustworthy without being dragged
// toward 0.5. It rises with the activity sample size, with agreement in
// direction across independent signal categories, and with distance of
// the probability from the midpoint.
func (h *Heuristic) confidence(rec features.Record, probability float64, factors []ContributingFactor) float64 {
	sample := math.Min(rec[features.EventCount]/confidenceSampleSize, 1)
	extremity := math.Abs(probability-0.5) * 2

	agreement := categoryAgreement(factors)

	return clamp01(sampleWeight*sample + agreementWeight*agreement + extremityWeight*extremity)
}

// categoryAgreement measures how many triggered signal categories
// (account, behavior, linguistic) push in the same direction as the net
// signal. No triggered rules means no agreement.
func categoryAgreement(factors []ContributingFactor) float64 {
	net := map[string]float64{}
	var total float64
	for _, f := range factors {
		net[factorCategory(f.Name)] += f.Contribution
		total += f.Contribution
	}
	if len(net) == 0 || total == 0 {
		return 0
	}
	var agreeing int
	for _, v := range net {
		if (v > 0) == (total > 0) {
			agreeing++
		}
	}
	return float64(agreeing) / float64(len(net))
}

// factorCategory maps a rule name to its signal category.
func factorCategory(name string) string {
	switch name {
	case "young_account", "new_account_high_karma", "karma_velocity",
		"verified_email", "premium_subscriber", "trophy_case":
		return "account"
	case "narrow_subreddit_focus", "mechanical_posting_hours",
		"bursty_cadence", "no_weekend_activity":
		return "behavior"
	default:
		return "linguistic"
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
