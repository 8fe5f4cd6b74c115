// Package cache provides the TTL score cache and request coalescer.
package cache

import "time"

// Option applies a configuration option to the ScoreCache.
type Option func(*ScoreCache)

// WithTTL sets how long a computed score stays fresh.
func WithTTL(ttl time.Duration) Option {
	return func(c *ScoreCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithNegativeTTL sets how long terminal failures are remembered.
func WithNegativeTTL(ttl time.Duration) Option {
	return func(c *ScoreCache) {
		if ttl > 0 {
			c.negativeTTL = ttl
		}
	}
}

// WithStaleFallback enables returning the last known value when a
// recomputation fails transiently. Off by default.
func WithStaleFallback(enabled bool) Option {
	return func(c *ScoreCache) {
		c.staleFallback = enabled
	}
}

// WithClock sets the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *ScoreCache) {
		if now != nil {
			c.now = now
		}
	}
}
