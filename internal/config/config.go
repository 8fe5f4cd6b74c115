// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// CacheTTLHours is how long a computed score stays fresh.
	CacheTTLHours int `koanf:"cache_ttl_hours"`

	// NegativeTTLSeconds is how long terminal lookup failures are remembered.
	NegativeTTLSeconds int `koanf:"negative_ttl_seconds"`

	// StaleFallback returns the last known score when recomputation fails.
	StaleFallback bool `koanf:"stale_fallback"`

	// FetchConcurrency bounds simultaneous upstream fetches.
	FetchConcurrency int `koanf:"fetch_concurrency"`

	// FetchMaxAttempts bounds retries of rate-limited fetches.
	FetchMaxAttempts int `koanf:"fetch_max_attempts"`

	// FetchBackoffMS is the initial retry backoff; it doubles per attempt.
	FetchBackoffMS int `koanf:"fetch_backoff_ms"`

	// BatchMax caps identifiers per batch request.
	BatchMax int `koanf:"batch_max"`

	// TopFactors caps contributing factors per score.
	TopFactors int `koanf:"top_factors"`

	// FeedbackDBPath locates the sqlite feedback store.
	FeedbackDBPath string `koanf:"feedback_db_path"`

	// CollectorBaseURL overrides the Reddit API base URL.
	CollectorBaseURL string `koanf:"collector_base_url"`

	// CollectorUserAgent identifies this service upstream.
	CollectorUserAgent string `koanf:"collector_user_agent"`

	// CollectorPageLimit caps activity events fetched per account.
	CollectorPageLimit int `koanf:"collector_page_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":8000",
		CacheTTLHours:      48,
		NegativeTTLSeconds: 300,
		StaleFallback:      false,
		FetchConcurrency:   4,
		FetchMaxAttempts:   4,
		FetchBackoffMS:     500,
		BatchMax:           50,
		TopFactors:         4,
		FeedbackDBPath:     "data/feedback.db",
		CollectorBaseURL:   "https://www.reddit.com",
		CollectorUserAgent: "sentinel/1.0 (bot-probability engine)",
		CollectorPageLimit: 100,
	}
}
