// Package cache provides the TTL score cache and request coalescer.
//
// The cache is the only shared mutable resource in the engine. Its
// central invariant: at most one computation per identifier may be in
// flight at any instant, regardless of how many concurrent callers
// request it. Waiters block on the in-flight computation and receive its
// result; failures are never cached and always release the in-flight
// marker.
package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/sentinel/internal/domain/scoring"
	"github.com/okian/sentinel/pkg/metrics"
)

// Default cache configuration constants.
const (
	defaultTTL         = 48 * time.Hour
	defaultNegativeTTL = 5 * time.Minute
)

// ComputeFunc produces a fresh score for an identifier. The cache calls
// it at most once per identifier at a time.
type ComputeFunc func(ctx context.Context) (scoring.ScoreRecord, error)

// entry wraps a cached record with its insertion time.
type entry struct {
	record   scoring.ScoreRecord
	storedAt time.Time
}

// negativeEntry briefly caches a terminal per-identifier failure so a
// known-gone account does not trigger repeated upstream lookups.
type negativeEntry struct {
	err   error
	until time.Time
}

// inflight is the per-identifier marker for an in-progress computation.
// record, stale and err are written exactly once, before done is closed.
type inflight struct {
	done   chan struct{}
	record scoring.ScoreRecord
	stale  bool // record came from the stale fallback, not a computation
	err    error
}

// ScoreCache maps identifiers to cached score records with TTL expiry
// and deduplicates concurrent in-flight computations per identifier.
type ScoreCache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	negative map[string]negativeEntry
	inflight map[string]*inflight

	ttl           time.Duration
	negativeTTL   time.Duration
	staleFallback bool
	now           func() time.Time

	hits         atomic.Int64
	misses       atomic.Int64
	coalesced    atomic.Int64
	computations atomic.Int64
}

// New creates a score cache with configuration options.
func New(opts ...Option) *ScoreCache {
	c := &ScoreCache{
		entries:     make(map[string]*entry),
		negative:    make(map[string]negativeEntry),
		inflight:    make(map[string]*inflight),
		ttl:         defaultTTL,
		negativeTTL: defaultNegativeTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the score for id, serving a fresh cached record when
// one exists, joining an in-flight computation when one is running, and
// otherwise computing via compute. refresh bypasses a fresh entry but
// still joins any in-flight computation. The boolean reports whether the
// record was served from cache rather than freshly computed.
//
// Cancellation is per-caller: a waiter whose ctx ends gives up waiting,
// but the shared computation keeps running for everyone else.
func (c *ScoreCache) Resolve(ctx context.Context, id string, refresh bool, compute ComputeFunc) (scoring.ScoreRecord, bool, error) {
	c.mu.Lock()

	if !refresh {
		if neg, ok := c.negative[id]; ok {
			if c.now().Before(neg.until) {
				c.mu.Unlock()
				return scoring.ScoreRecord{}, true, neg.err
			}
			delete(c.negative, id)
		}
		if e, ok := c.entries[id]; ok && c.now().Before(e.record.ExpiresAt) {
			rec := e.record
			c.mu.Unlock()
			c.hits.Add(1)
			metrics.RecordCacheHit()
			return rec, true, nil
		}
	}

	if f, ok := c.inflight[id]; ok {
		c.mu.Unlock()
		c.coalesced.Add(1)
		metrics.RecordCacheCoalesced()
		return c.await(ctx, id, f)
	}

	f := &inflight{done: make(chan struct{})}
	c.inflight[id] = f
	c.mu.Unlock()
	c.misses.Add(1)
	metrics.RecordCacheMiss()

	// Detach the computation from the triggering caller so its
	// cancellation never aborts a result other waiters still want.
	go c.run(context.WithoutCancel(ctx), id, f, compute)

	return c.await(ctx, id, f)
}

// await blocks until the in-flight computation resolves or the caller's
// context ends.
func (c *ScoreCache) await(ctx context.Context, id string, f *inflight) (scoring.ScoreRecord, bool, error) {
	select {
	case <-f.done:
		return f.record, f.stale, f.err
	case <-ctx.Done():
		return scoring.ScoreRecord{}, false, fmt.Errorf("awaiting score for %q: %w", id, ctx.Err())
	}
}

// run executes the computation and publishes its outcome. The in-flight
// marker is released on every exit path, success or failure.
func (c *ScoreCache) run(ctx context.Context, id string, f *inflight, compute ComputeFunc) {
	rec, err := compute(ctx)

	c.mu.Lock()
	switch {
	case err == nil:
		rec.ExpiresAt = c.now().Add(c.ttl)
		c.entries[id] = &entry{record: rec, storedAt: c.now()}
		// A success supersedes any negative-cached terminal failure,
		// even one whose TTL has not lapsed yet.
		delete(c.negative, id)
		c.computations.Add(1)
		f.record = rec
	case isTerminal(err):
		c.negative[id] = negativeEntry{err: err, until: c.now().Add(c.negativeTTL)}
		f.err = err
	default:
		// Transient failure. Optionally fall back to the last known
		// value; the stale entry itself stays uncached as a score.
		if stale, ok := c.entries[id]; ok && c.staleFallback {
			f.record = stale.record
			f.stale = true
		} else {
			f.err = err
		}
	}
	delete(c.inflight, id)
	c.mu.Unlock()

	close(f.done)
}

// Invalidate drops any cached entry for id. In-flight computations are
// unaffected.
func (c *ScoreCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	delete(c.negative, id)
}

// Len returns the number of stored score entries, expired ones included.
func (c *ScoreCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats snapshot.

// Hits returns how many reads were served from a fresh entry.
func (c *ScoreCache) Hits() int64 { return c.hits.Load() }

// Misses returns how many reads triggered a computation.
func (c *ScoreCache) Misses() int64 { return c.misses.Load() }

// Coalesced returns how many reads joined an in-flight computation.
func (c *ScoreCache) Coalesced() int64 { return c.coalesced.Load() }

// Computations returns how many computations completed successfully.
func (c *ScoreCache) Computations() int64 { return c.computations.Load() }

// HitRate returns hits / (hits + misses), 0 before any read.
func (c *ScoreCache) HitRate() float64 {
	hits, misses := c.hits.Load(), c.misses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}
