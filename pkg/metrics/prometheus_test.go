package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics helpers", t, func() {
		Convey("Then cache metrics record without panicking", func() {
			So(func() {
				RecordCacheHit()
				RecordCacheMiss()
				RecordCacheCoalesced()
				UpdateCacheEntries(42)
			}, ShouldNotPanic)
		})

		Convey("Then scoring metrics record without panicking", func() {
			So(func() {
				RecordScoreComputed()
				RecordScoringError()
				RecordScoringLatency(12.5)
			}, ShouldNotPanic)
		})

		Convey("Then collector metrics record without panicking", func() {
			So(func() {
				RecordFetchLatency(80)
				RecordFetchRetry()
				RecordFetchError("rate_limited")
			}, ShouldNotPanic)
		})

		Convey("Then batch and feedback metrics record without panicking", func() {
			So(func() {
				RecordBatchSize(10)
				RecordBatchItemError()
				RecordFeedback("false_positive")
			}, ShouldNotPanic)
		})

		Convey("Then HTTP and system metrics record without panicking", func() {
			So(func() {
				RecordHTTPRequest("score", "GET", "200")
				RecordHTTPRequestDuration("score", "GET", "200", 3.5)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the package-level registry", t, func() {
		Convey("Then it is non-nil and gatherable", func() {
			registry := GetRegistry()
			So(registry, ShouldNotBeNil)

			families, err := registry.Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
