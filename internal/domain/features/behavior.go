package features

import (
	"math"
	"sort"
	"time"

	"github.com/okian/sentinel/internal/domain/model"
)

const hoursInDay = 24

// ExtractBehavior derives timing and distribution features from the
// account's activity events.
func ExtractBehavior(acc model.Account) Record {
	rec := Record{
		PostsPerDay:      0,
		CommentsPerDay:   0,
		SubredditEntropy: 0,
		HourEntropy:      0,
		BurstScore:       0,
		WeekendRatio:     0,
		MedianGapSeconds: 0,
		EventCount:       float64(len(acc.Activities)),
	}
	if len(acc.Activities) == 0 {
		return rec
	}

	events := sortedByTime(acc.Activities)

	var posts, comments, weekend int
	subreddits := make(map[string]int)
	for _, e := range events {
		switch e.Kind {
		case model.ActivityPost:
			posts++
		case model.ActivityComment:
			comments++
		}
		if wd := e.At.UTC().Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend++
		}
		subreddits[e.Subreddit]++
	}

	// Observed window in days, floored to one full day so rates stay
	// defined for short histories.
	span := events[len(events)-1].At.Sub(events[0].At)
	windowDays := math.Max(span.Hours()/hoursInDay, 1)

	rec[PostsPerDay] = float64(posts) / windowDays
	rec[CommentsPerDay] = float64(comments) / windowDays
	rec[WeekendRatio] = float64(weekend) / float64(len(events))
	rec[SubredditEntropy] = normalizedEntropy(counts(subreddits))

	hist := HourHistogram(acc)
	rec[HourEntropy] = normalizedEntropy(hist[:])

	gaps := interEventGaps(events)
	rec[BurstScore] = coefficientOfVariation(gaps)
	rec[MedianGapSeconds] = median(gaps)

	return rec
}

// HourHistogram returns activity counts per UTC hour of day. It feeds the
// timezone estimator and is deliberately not a schema feature.
func HourHistogram(acc model.Account) [hoursInDay]float64 {
	var hist [hoursInDay]float64
	for _, e := range acc.Activities {
		hist[e.At.UTC().Hour()]++
	}
	return hist
}

func sortedByTime(activities []model.Activity) []model.Activity {
	events := make([]model.Activity, len(activities))
	copy(events, activities)
	sort.Slice(events, func(i, j int) bool { return events[i].At.Before(events[j].At) })
	return events
}

func counts(m map[string]int) []float64 {
	out := make([]float64, 0, len(m))
	for _, c := range m {
		out = append(out, float64(c))
	}
	return out
}

// normalizedEntropy computes Shannon entropy over a count distribution,
// normalized by log2 of the number of non-empty categories. A single
// category yields exactly 0; a uniform distribution yields exactly 1.
func normalizedEntropy(dist []float64) float64 {
	var total float64
	var categories int
	for _, c := range dist {
		if c > 0 {
			total += c
			categories++
		}
	}
	if categories <= 1 || total == 0 {
		return 0
	}

	var h float64
	for _, c := range dist {
		if c <= 0 {
			continue
		}
		p := c / total
		h -= p * math.Log2(p)
	}
	return h / math.Log2(float64(categories))
}

// interEventGaps returns the gaps in seconds between consecutive events.
// events must already be sorted by time.
func interEventGaps(events []model.Activity) []float64 {
	if len(events) < 2 {
		return nil
	}
	gaps := make([]float64, 0, len(events)-1)
	for i := 1; i < len(events); i++ {
		gaps = append(gaps, events[i].At.Sub(events[i-1].At).Seconds())
	}
	return gaps
}

// coefficientOfVariation is stddev/mean of the gaps. High variation over a
// short median gap indicates bursty automation. Zero when fewer than two
// events were observed or the mean gap is zero.
func coefficientOfVariation(gaps []float64) float64 {
	if len(gaps) == 0 {
		return 0
	}
	var sum float64
	for _, g := range gaps {
		sum += g
	}
	mean := sum / float64(len(gaps))
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, g := range gaps {
		d := g - mean
		variance += d * d
	}
	variance /= float64(len(gaps))
	return math.Sqrt(variance) / mean
}

func median(gaps []float64) float64 {
	if len(gaps) == 0 {
		return 0
	}
	sorted := make([]float64, len(gaps))
	copy(sorted, gaps)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
