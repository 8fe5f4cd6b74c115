package scoring_test

import (
	"context"
	"math"
	"testing"

	features "github.com/okian/sentinel/internal/domain/features"
	scoring "github.com/okian/sentinel/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// neutralRecord returns a schema-complete record that triggers no rules.
func neutralRecord() features.Record {
	rec := make(features.Record, len(features.Schema()))
	for _, k := range features.Schema() {
		rec[k] = 0
	}
	rec[features.AccountAgeDays] = 365
	rec[features.SubredditEntropy] = 0.8
	rec[features.HourEntropy] = 0.8
	return rec
}

// botlikeRecord triggers the strongest bot-leaning rules.
func botlikeRecord() features.Record {
	rec := neutralRecord()
	rec[features.AccountAgeDays] = 5
	rec[features.KarmaPerDay] = 600
	rec[features.EventCount] = 50
	rec[features.SubredditEntropy] = 0.1
	rec[features.HourEntropy] = 0.2
	rec[features.BurstScore] = 4
	rec[features.MedianGapSeconds] = 60
	rec[features.WordCount] = 500
	rec[features.VocabRichness] = 0.2
	rec[features.ErrFormality] = 3
	return rec
}

func TestHeuristicScore(t *testing.T) {
	ctx := context.Background()

	Convey("Given the reference heuristic scorer", t, func() {
		scorer := scoring.NewHeuristic()

		Convey("When scoring a neutral record", func() {
			out, err := scorer.Score(ctx, neutralRecord())

			Convey("Then the probability is zero with no factors", func() {
				So(err, ShouldBeNil)
				So(out.Probability, ShouldEqual, 0)
				So(out.Factors, ShouldBeEmpty)
			})
		})

		Convey("When scoring a strongly bot-like record", func() {
			out, err := scorer.Score(ctx, botlikeRecord())

			Convey("Then the probability is high and bounded", func() {
				So(err, ShouldBeNil)
				So(out.Probability, ShouldBeGreaterThan, 0.8)
				So(out.Probability, ShouldBeLessThanOrEqualTo, 1)
			})

			Convey("Then at most four factors are reported", func() {
				So(len(out.Factors), ShouldBeLessThanOrEqualTo, 4)
			})

			Convey("Then factors are sorted by descending absolute contribution", func() {
				for i := 1; i < len(out.Factors); i++ {
					So(math.Abs(out.Factors[i-1].Contribution),
						ShouldBeGreaterThanOrEqualTo, math.Abs(out.Factors[i].Contribution))
				}
			})

			Convey("Then each factor carries the raw feature value that triggered it", func() {
				for _, f := range out.Factors {
					So(f.Name, ShouldNotBeEmpty)
					if f.Name == "karma_velocity" {
						So(f.Value, ShouldEqual, 600)
					}
				}
			})
		})

		Convey("When human-leaning signals are present", func() {
			rec := neutralRecord()
			rec[features.VerifiedEmail] = 1
			rec[features.HasPremium] = 1
			rec[features.TrophyCount] = 7
			rec[features.ErrPhonetic] = 2
			out, err := scorer.Score(ctx, rec)

			Convey("Then the probability stays clamped at zero", func() {
				So(err, ShouldBeNil)
				So(out.Probability, ShouldEqual, 0)
			})

			Convey("Then the negative factors are still reported", func() {
				So(len(out.Factors), ShouldBeGreaterThan, 0)
				for _, f := range out.Factors {
					So(f.Contribution, ShouldBeLessThan, 0)
				}
			})
		})

		Convey("When the caller's context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := scorer.Score(cancelled, neutralRecord())

			Convey("Then scoring fails with the context error", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a scorer with a custom top-K", t, func() {
		scorer := scoring.NewHeuristic(scoring.WithTopK(2))

		Convey("When many rules trigger", func() {
			out, err := scorer.Score(ctx, botlikeRecord())

			Convey("Then only the top two factors survive", func() {
				So(err, ShouldBeNil)
				So(len(out.Factors), ShouldEqual, 2)
			})
		})
	})
}

func TestHeuristicConfidence(t *testing.T) {
	ctx := context.Background()

	Convey("Given two otherwise identical records with different sample sizes", t, func() {
		scorer := scoring.NewHeuristic()

		sparse := botlikeRecord()
		sparse[features.EventCount] = 5
		dense := botlikeRecord()
		dense[features.EventCount] = 50

		Convey("When scoring both", func() {
			sparseOut, err1 := scorer.Score(ctx, sparse)
			denseOut, err2 := scorer.Score(ctx, dense)

			Convey("Then more observed events means more confidence", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(denseOut.Confidence, ShouldBeGreaterThan, sparseOut.Confidence)
			})

			Convey("Then confidence stays within bounds", func() {
				So(sparseOut.Confidence, ShouldBeBetweenOrEqual, 0, 1)
				So(denseOut.Confidence, ShouldBeBetweenOrEqual, 0, 1)
			})
		})
	})

	Convey("Given a record with no triggered rules at all", t, func() {
		scorer := scoring.NewHeuristic()
		rec := neutralRecord()
		rec[features.EventCount] = 0

		Convey("When scoring", func() {
			out, err := scorer.Score(ctx, rec)

			Convey("Then confidence carries only the extremity term", func() {
				So(err, ShouldBeNil)
				// probability 0 -> extremity 1, weighted 0.15
				So(out.Confidence, ShouldAlmostEqual, 0.15)
			})
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given the classification thresholds", t, func() {
		cases := []struct {
			probability float64
			want        scoring.Classification
		}{
			{0.0, scoring.Human},
			{0.24, scoring.Human},
			{0.25, scoring.UnlikelyBot},
			{0.49, scoring.UnlikelyBot},
			{0.50, scoring.LikelyBot},
			{0.79, scoring.LikelyBot},
			{0.80, scoring.ConfirmedBot},
			{1.0, scoring.ConfirmedBot},
		}

		Convey("Then each boundary maps to its label", func() {
			for _, c := range cases {
				So(scoring.Classify(c.probability), ShouldEqual, c.want)
			}
		})
	})

	Convey("Given the label order", t, func() {
		Convey("Then suspicion is strictly increasing", func() {
			So(scoring.Human, ShouldBeLessThan, scoring.UnlikelyBot)
			So(scoring.UnlikelyBot, ShouldBeLessThan, scoring.LikelyBot)
			So(scoring.LikelyBot, ShouldBeLessThan, scoring.ConfirmedBot)
		})
	})

	Convey("Given the wire format", t, func() {
		Convey("Then labels render as their snake_case names", func() {
			So(scoring.Human.String(), ShouldEqual, "human")
			So(scoring.UnlikelyBot.String(), ShouldEqual, "unlikely_bot")
			So(scoring.LikelyBot.String(), ShouldEqual, "likely_bot")
			So(scoring.ConfirmedBot.String(), ShouldEqual, "confirmed_bot")

			b, err := scoring.LikelyBot.MarshalJSON()
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `"likely_bot"`)
		})
	})
}
