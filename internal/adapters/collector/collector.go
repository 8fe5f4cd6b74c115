// Package collector defines the upstream account data source and its
// Reddit implementation.
package collector

import (
	"context"

	"github.com/okian/sentinel/internal/domain/model"
)

// Collector fetches the raw account record for an identifier. The engine
// treats it as a rate-limited resource: concurrent fetches are bounded by
// the caller, and ErrRateLimited is retryable with backoff.
type Collector interface {
	Fetch(ctx context.Context, identifier string) (model.Account, error)
}
