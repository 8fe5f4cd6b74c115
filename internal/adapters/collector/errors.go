package collector

import "errors"

// Sentinel kinds for upstream fetch failures.
var (
	// ErrNotFound means the account does not exist. Terminal, never retried.
	ErrNotFound = errors.New("account not found")
	// ErrSuspended means the account exists but is suspended. Terminal.
	ErrSuspended = errors.New("account suspended")
	// ErrRateLimited means the upstream provider rejected the request for
	// rate reasons. Transient, retryable with backoff.
	ErrRateLimited = errors.New("upstream rate limited")
)
