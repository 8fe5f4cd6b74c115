// Package timezone estimates a likely UTC offset from posting-hour
// distributions. The estimate is advisory metadata attached to a score;
// it is never fed back into scoring, which would double-count the hour
// entropy signal.
package timezone

import (
	"fmt"
	"math"
)

// Default estimator configuration constants.
const (
	hoursInDay = 24
	// defaultWindowWidth is the width of the circular "waking hours"
	// window searched for maximum activity mass.
	defaultWindowWidth = 8
	// defaultWakingMidpoint assumes people are typically active between
	// roughly 08:00 and 24:00 local time, centered on 16:00.
	defaultWakingMidpoint = 16
)

// Estimate is the advisory timezone guess for an account.
type Estimate struct {
	Offset       string  `json:"likely_offset"`
	Confidence   float64 `json:"confidence"`
	PeakHoursUTC []int   `json:"peak_hours_utc"`
}

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithWindowWidth sets the circular window width in hours.
func WithWindowWidth(width int) Option {
	return func(e *Estimator) {
		if width > 0 && width < hoursInDay {
			e.windowWidth = width
		}
	}
}

// Estimator derives UTC offsets from hour-of-day activity histograms.
type Estimator struct {
	windowWidth    int
	wakingMidpoint int
}

// NewEstimator creates an estimator with configuration options.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		windowWidth:    defaultWindowWidth,
		wakingMidpoint: defaultWakingMidpoint,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate finds the circular window with maximum activity mass and maps
// its center to a UTC offset. Confidence is the share of total mass that
// falls inside the chosen window. Returns false when the histogram holds
// no activity at all.
func (e *Estimator) Estimate(hist [hoursInDay]float64) (Estimate, bool) {
	var total float64
	for _, v := range hist {
		total += v
	}
	if total == 0 {
		return Estimate{}, false
	}

	bestStart, bestMass := 0, math.Inf(-1)
	for start := 0; start < hoursInDay; start++ {
		var mass float64
		for i := 0; i < e.windowWidth; i++ {
			mass += hist[(start+i)%hoursInDay]
		}
		if mass > bestMass {
			bestStart, bestMass = start, mass
		}
	}

	center := float64(bestStart) + float64(e.windowWidth)/2
	offset := int(math.Round(float64(e.wakingMidpoint) - center))
	// Normalize to the [-12, +11] offset range.
	for offset < -12 {
		offset += hoursInDay
	}
	for offset > 11 {
		offset -= hoursInDay
	}

	peaks := make([]int, 0, e.windowWidth)
	for i := 0; i < e.windowWidth; i++ {
		peaks = append(peaks, (bestStart+i)%hoursInDay)
	}

	return Estimate{
		Offset:       formatOffset(offset),
		Confidence:   bestMass / total,
		PeakHoursUTC: peaks,
	}, true
}

func formatOffset(hours int) string {
	sign := "+"
	if hours < 0 {
		sign = "-"
		hours = -hours
	}
	return fmt.Sprintf("UTC%s%02d:00", sign, hours)
}
