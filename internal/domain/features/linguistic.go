package features

import (
	"strings"
	"unicode"

	"github.com/okian/sentinel/internal/domain/model"
)

const charsPerEmojiWindow = 100

// ExtractLinguistic derives text-pattern features from the bodies of the
// account's activity events.
func ExtractLinguistic(acc model.Account) Record {
	rec := Record{
		VocabRichness:     0,
		AvgWordLength:     0,
		AvgSentenceLength: 0,
		EmojiDensity:      0,
		QuestionRatio:     0,
		WordCount:         0,
		ErrPhonetic:       0,
		ErrArticle:        0,
		ErrFormality:      0,
		ErrPreposition:    0,
	}

	var sb strings.Builder
	for _, e := range acc.Activities {
		if e.Body == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(e.Body)
	}
	corpus := sb.String()
	if corpus == "" {
		return rec
	}

	words := tokenize(corpus)
	rec[WordCount] = float64(len(words))

	if len(words) > 0 {
		unique := make(map[string]struct{}, len(words))
		var runeTotal int
		for _, w := range words {
			unique[strings.ToLower(w)] = struct{}{}
			runeTotal += len([]rune(w))
		}
		rec[VocabRichness] = float64(len(unique)) / float64(len(words))
		rec[AvgWordLength] = float64(runeTotal) / float64(len(words))
	}

	sentences, questions := splitSentences(corpus)
	if len(sentences) > 0 {
		var sentenceWords int
		for _, s := range sentences {
			sentenceWords += len(tokenize(s))
		}
		rec[AvgSentenceLength] = float64(sentenceWords) / float64(len(sentences))
		rec[QuestionRatio] = float64(questions) / float64(len(sentences))
	}

	rec[EmojiDensity] = emojiDensity(corpus)

	patterns := scorePatterns(corpus, len(words))
	rec[ErrPhonetic] = patterns[CategoryPhonetic]
	rec[ErrArticle] = patterns[CategoryArticle]
	rec[ErrFormality] = patterns[CategoryFormality]
	rec[ErrPreposition] = patterns[CategoryPreposition]

	return rec
}

// tokenize splits text into words, keeping letters, digits and embedded
// apostrophes.
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// splitSentences splits on terminal punctuation and reports how many of
// the resulting sentences are questions.
func splitSentences(text string) (sentences []string, questions int) {
	start := 0
	runes := []rune(text)
	flush := func(end int, question bool) {
		s := strings.TrimSpace(string(runes[start:end]))
		if s != "" {
			sentences = append(sentences, s)
			if question {
				questions++
			}
		}
	}
	for i, r := range runes {
		switch r {
		case '.', '!', '?':
			flush(i, r == '?')
			start = i + 1
		}
	}
	flush(len(runes), false)
	return sentences, questions
}

// emojiDensity counts emoji runes per 100 characters of text.
func emojiDensity(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}
	var emoji int
	for _, r := range runes {
		if isEmoji(r) {
			emoji++
		}
	}
	return float64(emoji) / (float64(len(runes)) / charsPerEmojiWindow)
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF: // pictographs, faces, symbols
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols and dingbats
		return true
	case r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators
		return true
	default:
		return false
	}
}
