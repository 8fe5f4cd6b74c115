package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/sentinel/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"SENTINEL_CONFIG",
		"SENTINEL_ADDR",
		"SENTINEL_LOG_LEVEL",
		"SENTINEL_CACHE_TTL_HOURS",
		"SENTINEL_NEGATIVE_TTL_SECONDS",
		"SENTINEL_STALE_FALLBACK",
		"SENTINEL_FETCH_CONCURRENCY",
		"SENTINEL_FETCH_MAX_ATTEMPTS",
		"SENTINEL_FETCH_BACKOFF_MS",
		"SENTINEL_BATCH_MAX",
		"SENTINEL_TOP_FACTORS",
		"SENTINEL_FEEDBACK_DB_PATH",
		"SENTINEL_COLLECTOR_BASE_URL",
	} {
		_ = os.Unsetenv(key)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
				convey.So(cfg.CacheTTLHours, convey.ShouldEqual, 48)
				convey.So(cfg.NegativeTTLSeconds, convey.ShouldEqual, 300)
				convey.So(cfg.StaleFallback, convey.ShouldBeFalse)
				convey.So(cfg.FetchConcurrency, convey.ShouldEqual, 4)
				convey.So(cfg.BatchMax, convey.ShouldEqual, 50)
				convey.So(cfg.TopFactors, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			clearConfigEnvVars()
			_ = os.Setenv("SENTINEL_ADDR", ":9000")
			_ = os.Setenv("SENTINEL_CACHE_TTL_HOURS", "24")
			_ = os.Setenv("SENTINEL_FETCH_CONCURRENCY", "8")
			_ = os.Setenv("SENTINEL_STALE_FALLBACK", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9000")
				convey.So(cfg.CacheTTLHours, convey.ShouldEqual, 24)
				convey.So(cfg.FetchConcurrency, convey.ShouldEqual, 8)
				convey.So(cfg.StaleFallback, convey.ShouldBeTrue)
				convey.So(cfg.BatchMax, convey.ShouldEqual, 50) // untouched default
			})
		})

		convey.Convey("When loading config from a YAML file", func() {
			clearConfigEnvVars()
			dir := t.TempDir()
			path := filepath.Join(dir, "sentinel.yaml")
			yaml := "addr: \":7000\"\nbatch_max: 25\ncollector_user_agent: \"sentinel-test/1\"\n"
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("SENTINEL_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the file overrides defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7000")
				convey.So(cfg.BatchMax, convey.ShouldEqual, 25)
				convey.So(cfg.CollectorUserAgent, convey.ShouldEqual, "sentinel-test/1")
			})
		})

		convey.Convey("When env vars override the file", func() {
			clearConfigEnvVars()
			dir := t.TempDir()
			path := filepath.Join(dir, "sentinel.yaml")
			convey.So(os.WriteFile(path, []byte("addr: \":7000\"\n"), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("SENTINEL_CONFIG", path)
			_ = os.Setenv("SENTINEL_ADDR", ":9999")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9999")
			})
		})

		convey.Convey("When a value fails validation", func() {
			clearConfigEnvVars()
			_ = os.Setenv("SENTINEL_BATCH_MAX", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with an invalid-config error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			clearConfigEnvVars()
			_ = os.Setenv("SENTINEL_CONFIG", "/nonexistent/sentinel.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}
