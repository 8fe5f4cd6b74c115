package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SENTINEL_CONFIG is set
//  3. env (prefix SENTINEL_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SENTINEL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Map env keys like SENTINEL_CACHE_TTL_HOURS -> cache_ttl_hours,
	// preserving underscores to match the koanf tags on the struct.
	envProvider := env.Provider("SENTINEL_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "sentinel_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.CacheTTLHours <= 0:
		return fmt.Errorf("%w: cache_ttl_hours must be positive", ErrInvalidConfig)
	case c.FetchConcurrency <= 0:
		return fmt.Errorf("%w: fetch_concurrency must be positive", ErrInvalidConfig)
	case c.FetchMaxAttempts <= 0:
		return fmt.Errorf("%w: fetch_max_attempts must be positive", ErrInvalidConfig)
	case c.BatchMax <= 0:
		return fmt.Errorf("%w: batch_max must be positive", ErrInvalidConfig)
	case c.TopFactors <= 0:
		return fmt.Errorf("%w: top_factors must be positive", ErrInvalidConfig)
	}
	return nil
}
