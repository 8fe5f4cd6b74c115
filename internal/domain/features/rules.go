package features

import "regexp"

// PatternCategory groups text pattern rules by the kind of signal they
// carry. Counts are summed per category, never exclusive, so rule
// evaluation order has no effect on totals.
type PatternCategory string

// Pattern categories.
const (
	CategoryPhonetic    PatternCategory = "phonetic"
	CategoryArticle     PatternCategory = "article"
	CategoryFormality   PatternCategory = "formality"
	CategoryPreposition PatternCategory = "preposition"
)

// PatternRule matches one text pattern and attributes it to a category.
type PatternRule struct {
	Pattern  *regexp.Regexp
	Category PatternCategory
}

// patternRules is the ordered rule table run against the concatenated
// text corpus. All patterns are compiled case-insensitively. Phonetic,
// article and preposition slips are typical of humans typing quickly or
// writing in a second language; stacked formal connectives are typical of
// generated text.
var patternRules = []PatternRule{
	// Phonetic misspellings and ear-spellings.
	{rule(`\b(?:could|should|would|must) of\b`), CategoryPhonetic},
	{rule(`\bdefinately\b`), CategoryPhonetic},
	{rule(`\bseperate(?:d|ly|s)?\b`), CategoryPhonetic},
	{rule(`\brecieve(?:d|s)?\b`), CategoryPhonetic},
	{rule(`\balot\b`), CategoryPhonetic},
	{rule(`\bwierd\b`), CategoryPhonetic},
	{rule(`\buntill\b`), CategoryPhonetic},
	{rule(`\boccured\b`), CategoryPhonetic},
	{rule(`\bthier\b`), CategoryPhonetic},

	// Article misuse.
	{rule(`\ba (?:hour|honest|[aeiou]\w+)\b`), CategoryArticle},
	{rule(`\ban (?:[^aeiouh\s]\w*)\b`), CategoryArticle},
	{rule(`\bthe (?:internet peoples|informations|advices|feedbacks)\b`), CategoryArticle},

	// Formal connectives stacked the way generated text stacks them.
	{rule(`\bfurthermore\b`), CategoryFormality},
	{rule(`\bmoreover\b`), CategoryFormality},
	{rule(`\bin conclusion\b`), CategoryFormality},
	{rule(`\bit is (?:important|worth) (?:to note|noting)\b`), CategoryFormality},
	{rule(`\badditionally,`), CategoryFormality},
	{rule(`\bin summary\b`), CategoryFormality},
	{rule(`\bdelve(?:s|d)? into\b`), CategoryFormality},

	// Preposition transfer errors.
	{rule(`\bdepends of\b`), CategoryPreposition},
	{rule(`\bdiscuss about\b`), CategoryPreposition},
	{rule(`\barrive(?:d|s)? to\b`), CategoryPreposition},
	{rule(`\bmarried with (?:a|an|my|his|her) \w+`), CategoryPreposition},
	{rule(`\bexplain (?:me|him|her|us|them)\b`), CategoryPreposition},
}

func rule(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

// scorePatterns counts matches per category across text and normalizes
// each count to matches per 100 words. Zero words yields all zeros.
func scorePatterns(text string, wordCount int) map[PatternCategory]float64 {
	scores := map[PatternCategory]float64{
		CategoryPhonetic:    0,
		CategoryArticle:     0,
		CategoryFormality:   0,
		CategoryPreposition: 0,
	}
	if wordCount == 0 {
		return scores
	}
	for _, r := range patternRules {
		n := len(r.Pattern.FindAllStringIndex(text, -1))
		if n > 0 {
			scores[r.Category] += float64(n)
		}
	}
	per100 := float64(wordCount) / 100
	for cat := range scores {
		scores[cat] /= per100
	}
	return scores
}
