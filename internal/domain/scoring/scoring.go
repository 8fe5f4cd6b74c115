// Package scoring defines the contract for turning feature records into
// bot-probability scores with per-factor attribution.
package scoring

import (
	"context"
	"time"

	"github.com/okian/sentinel/internal/domain/features"
	"github.com/okian/sentinel/internal/domain/timezone"
)

// Classification buckets a probability into an ordered label. The label
// is derived from thresholds, never stored as independent state.
type Classification int

// Classification labels, ordered by suspicion.
const (
	Human Classification = iota
	UnlikelyBot
	LikelyBot
	ConfirmedBot
)

// Classification thresholds over probability.
const (
	unlikelyBotThreshold  = 0.25
	likelyBotThreshold    = 0.50
	confirmedBotThreshold = 0.80
)

// Classify maps a probability in [0,1] to its label.
func Classify(probability float64) Classification {
	switch {
	case probability >= confirmedBotThreshold:
		return ConfirmedBot
	case probability >= likelyBotThreshold:
		return LikelyBot
	case probability >= unlikelyBotThreshold:
		return UnlikelyBot
	default:
		return Human
	}
}

func (c Classification) String() string {
	switch c {
	case Human:
		return "human"
	case UnlikelyBot:
		return "unlikely_bot"
	case LikelyBot:
		return "likely_bot"
	case ConfirmedBot:
		return "confirmed_bot"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the label as its string form.
func (c Classification) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// ContributingFactor is one named signal and its signed influence on the
// final probability.
type ContributingFactor struct {
	Name         string  `json:"factor"`
	Contribution float64 `json:"contribution"`
	Value        float64 `json:"value"`
}

// Output is what a scorer produces for one feature record.
type Output struct {
	Probability float64
	Confidence  float64
	Factors     []ContributingFactor
}

// Scorer computes a score from a feature record. Implementations must be
// interchangeable: same input schema, same output shape, probability and
// confidence bounded to [0,1]. The heuristic scorer here and a future
// trained classifier both sit behind this contract.
type Scorer interface {
	// Score computes probability, confidence and ranked contributing
	// factors, honoring ctx for cancellation.
	Score(ctx context.Context, rec features.Record) (Output, error)

	// Version identifies the model backing the scorer, for stats.
	Version() string
}

// ScoreRecord is the resolved, cacheable result for one identifier.
type ScoreRecord struct {
	Identifier     string               `json:"username"`
	Probability    float64              `json:"bot_probability"`
	Confidence     float64              `json:"confidence"`
	Classification Classification       `json:"classification"`
	Factors        []ContributingFactor `json:"contributing_factors"`
	Timezone       *timezone.Estimate   `json:"timezone_estimate,omitempty"`
	AnalyzedAt     time.Time            `json:"analyzed_at"`
	ExpiresAt      time.Time            `json:"cache_expires_at"`
}
