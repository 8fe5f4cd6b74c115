// Package service provides the core analysis engine that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/sentinel/internal/adapters/cache"
	"github.com/okian/sentinel/internal/adapters/collector"
	"github.com/okian/sentinel/internal/adapters/feedback"
	"github.com/okian/sentinel/internal/domain/features"
	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/internal/domain/scoring"
	"github.com/okian/sentinel/internal/domain/timezone"
	"github.com/okian/sentinel/pkg/logger"
	"github.com/okian/sentinel/pkg/metrics"
)

// Default engine configuration constants.
const (
	defaultCacheTTL         = 48 * time.Hour
	defaultNegativeTTL      = 5 * time.Minute
	defaultFetchConcurrency = 4
	defaultFetchAttempts    = 4
	defaultFetchBackoff     = 500 * time.Millisecond
	defaultBatchMax         = 50
)

// Service wires the collector, extractors, scorer, timezone estimator,
// cache and feedback store into the engine exposed to the API layer.
type Service struct {
	mu sync.RWMutex

	// Core components
	collector collector.Collector
	scorer    scoring.Scorer
	estimator *timezone.Estimator
	cache     *cache.ScoreCache
	feedback  feedback.Store

	// Configuration
	cacheTTL         time.Duration
	negativeTTL      time.Duration
	staleFallback    bool
	fetchConcurrency int
	fetchAttempts    int
	fetchBackoff     time.Duration
	batchMax         int
	topFactors       int
	now              func() time.Time

	// fetchSlots bounds concurrent upstream fetches so the collector's
	// rate ceiling is respected locally, not merely retried after
	// rejection.
	fetchSlots chan struct{}

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCollector sets the upstream account collector.
func WithCollector(c collector.Collector) Option {
	return func(s *Service) {
		if c != nil {
			s.collector = c
		}
	}
}

// WithScorer replaces the default heuristic scorer. Any implementation
// of the scoring contract works without changes to callers.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithFeedbackStore sets the feedback store.
func WithFeedbackStore(st feedback.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.feedback = st
		}
	}
}

// WithCacheTTL sets how long computed scores stay fresh.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithNegativeTTL sets how long terminal lookup failures are remembered.
func WithNegativeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.negativeTTL = ttl
		}
	}
}

// WithStaleFallback enables best-effort stale results when recomputation
// fails.
func WithStaleFallback(enabled bool) Option {
	return func(s *Service) {
		s.staleFallback = enabled
	}
}

// WithFetchConcurrency bounds simultaneous upstream fetches.
func WithFetchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchConcurrency = n
		}
	}
}

// WithFetchRetry sets the rate-limit retry budget and initial backoff.
func WithFetchRetry(attempts int, backoff time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.fetchAttempts = attempts
		}
		if backoff > 0 {
			s.fetchBackoff = backoff
		}
	}
}

// WithBatchMax caps identifiers per batch request.
func WithBatchMax(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchMax = n
		}
	}
}

// WithTopFactors caps contributing factors per score.
func WithTopFactors(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topFactors = k
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cacheTTL:         defaultCacheTTL,
		negativeTTL:      defaultNegativeTTL,
		fetchConcurrency: defaultFetchConcurrency,
		fetchAttempts:    defaultFetchAttempts,
		fetchBackoff:     defaultFetchBackoff,
		batchMax:         defaultBatchMax,
		topFactors:       0, // scorer default applies when unset
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the engine components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("engine")
	}
	s.logger.Info(ctx, "starting analysis engine...")

	if s.collector == nil {
		s.collector = collector.NewRedditClient()
	}
	if s.scorer == nil {
		var opts []scoring.Option
		if s.topFactors > 0 {
			opts = append(opts, scoring.WithTopK(s.topFactors))
		}
		s.scorer = scoring.NewHeuristic(opts...)
	}
	if s.estimator == nil {
		s.estimator = timezone.NewEstimator()
	}
	s.cache = cache.New(
		cache.WithTTL(s.cacheTTL),
		cache.WithNegativeTTL(s.negativeTTL),
		cache.WithStaleFallback(s.staleFallback),
		cache.WithClock(s.now),
	)
	s.fetchSlots = make(chan struct{}, s.fetchConcurrency)

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "analysis engine started",
		logger.Duration("cacheTTL", s.cacheTTL),
		logger.Int("fetchConcurrency", s.fetchConcurrency),
		logger.String("model", s.scorer.Version()),
	)
	return nil
}

// Stop releases engine resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.feedback != nil {
		if err := s.feedback.Close(); err != nil {
			s.logger.Error(context.Background(), "closing feedback store", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "analysis engine stopped")
}

// GetScore resolves the score for one identifier through the cache and
// coalescer. forceRefresh bypasses a fresh cache entry but still joins
// any in-flight computation for the identifier. The boolean reports
// whether the record was served from cache.
func (s *Service) GetScore(ctx context.Context, identifier string, forceRefresh bool) (scoring.ScoreRecord, bool, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return scoring.ScoreRecord{}, false, ErrNotStarted
	}

	return s.cache.Resolve(ctx, identifier, forceRefresh, func(cctx context.Context) (scoring.ScoreRecord, error) {
		return s.compute(cctx, identifier)
	})
}

// Result is one entry of a batch response. Exactly one of Record and Err
// is meaningful.
type Result struct {
	Identifier string
	Record     scoring.ScoreRecord
	Cached     bool
	Err        error
}

// AnalyzeBatch resolves every identifier, preserving the caller's order
// and duplicate count. Duplicates are de-duplicated before dispatch, so
// an identifier requested twice resolves once and appears twice with the
// same record. A single item's failure never fails the batch.
func (s *Service) AnalyzeBatch(ctx context.Context, identifiers []string, forceRefresh bool) ([]Result, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	if len(identifiers) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(identifiers) > s.batchMax {
		return nil, fmt.Errorf("%w: %d identifiers, max %d", ErrBatchTooLarge, len(identifiers), s.batchMax)
	}
	metrics.RecordBatchSize(len(identifiers))

	unique := make([]string, 0, len(identifiers))
	seen := make(map[string]struct{}, len(identifiers))
	for _, id := range identifiers {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	type outcome struct {
		record scoring.ScoreRecord
		cached bool
		err    error
	}
	outcomes := make(map[string]outcome, len(unique))
	var omu sync.Mutex
	var wg sync.WaitGroup

	for _, id := range unique {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			rec, cached, err := s.GetScore(ctx, id, forceRefresh)
			omu.Lock()
			outcomes[id] = outcome{record: rec, cached: cached, err: err}
			omu.Unlock()
		}(id)
	}
	wg.Wait()

	results := make([]Result, len(identifiers))
	for i, id := range identifiers {
		o := outcomes[id]
		results[i] = Result{Identifier: id, Record: o.record, Cached: o.cached, Err: o.err}
		if o.err != nil {
			metrics.RecordBatchItemError()
		}
	}
	return results, nil
}

// compute is the cache-miss path: fetch raw data, extract features,
// score, and attach the advisory timezone estimate.
func (s *Service) compute(ctx context.Context, identifier string) (scoring.ScoreRecord, error) {
	acc, err := s.fetchWithRetry(ctx, identifier)
	if err != nil {
		if errors.Is(err, collector.ErrNotFound) || errors.Is(err, collector.ErrSuspended) {
			return scoring.ScoreRecord{}, cache.Terminal(err)
		}
		return scoring.ScoreRecord{}, err
	}

	start := s.now()
	rec, err := features.Extract(acc, s.now())
	if err != nil {
		metrics.RecordScoringError()
		return scoring.ScoreRecord{}, fmt.Errorf("extract features for %q: %w", identifier, err)
	}

	out, err := s.scorer.Score(ctx, rec)
	if err != nil {
		metrics.RecordScoringError()
		return scoring.ScoreRecord{}, fmt.Errorf("score %q: %w", identifier, err)
	}
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	metrics.RecordScoreComputed()

	score := scoring.ScoreRecord{
		Identifier:     identifier,
		Probability:    out.Probability,
		Confidence:     out.Confidence,
		Classification: scoring.Classify(out.Probability),
		Factors:        out.Factors,
		AnalyzedAt:     s.now().UTC(),
	}
	if est, ok := s.estimator.Estimate(features.HourHistogram(acc)); ok {
		score.Timezone = &est
	}

	s.logger.Debug(ctx, "score computed",
		logger.String("identifier", identifier),
		logger.Float64("probability", score.Probability),
		logger.Float64("confidence", score.Confidence),
		logger.String("classification", score.Classification.String()),
	)
	return score, nil
}

// fetchWithRetry resolves raw account data under the fetch concurrency
// bound, retrying rate-limited responses with capped exponential backoff.
func (s *Service) fetchWithRetry(ctx context.Context, identifier string) (acc model.Account, err error) {
	select {
	case s.fetchSlots <- struct{}{}:
		defer func() { <-s.fetchSlots }()
	case <-ctx.Done():
		return acc, fmt.Errorf("waiting for fetch slot: %w", ctx.Err())
	}

	backoff := s.fetchBackoff
	for attempt := 1; attempt <= s.fetchAttempts; attempt++ {
		start := time.Now()
		acc, err = s.collector.Fetch(ctx, identifier)
		metrics.RecordFetchLatency(float64(time.Since(start).Milliseconds()))
		if err == nil {
			return acc, nil
		}
		switch {
		case errors.Is(err, collector.ErrRateLimited):
			metrics.RecordFetchError("rate_limited")
			if attempt == s.fetchAttempts {
				return acc, fmt.Errorf("fetch %q: retries exhausted: %w", identifier, err)
			}
			metrics.RecordFetchRetry()
			s.logger.Warn(ctx, "rate limited upstream, backing off",
				logger.String("identifier", identifier),
				logger.Int("attempt", attempt),
				logger.Duration("backoff", backoff),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return acc, fmt.Errorf("fetch %q: %w", identifier, ctx.Err())
			}
			backoff *= 2
		case errors.Is(err, collector.ErrNotFound):
			metrics.RecordFetchError("not_found")
			return acc, err
		case errors.Is(err, collector.ErrSuspended):
			metrics.RecordFetchError("suspended")
			return acc, err
		default:
			metrics.RecordFetchError("other")
			return acc, err
		}
	}
	return acc, err
}

// RecordFeedback stores reviewer feedback for future offline use. It has
// no effect on the live cache or scorer.
func (s *Service) RecordFeedback(ctx context.Context, identifier string, kind feedback.Kind, note string) error {
	s.mu.RLock()
	store := s.feedback
	s.mu.RUnlock()
	if store == nil {
		return ErrNoFeedbackStore
	}
	if err := store.Record(ctx, identifier, kind, note); err != nil {
		return err
	}
	metrics.RecordFeedback(string(kind))
	return nil
}

// Stats is the monitoring snapshot exposed by the API layer.
type Stats struct {
	TotalAnalyzed  int64            `json:"total_accounts_analyzed"`
	CacheHitRate   float64          `json:"cache_hit_rate"`
	CacheEntries   int              `json:"cache_entries"`
	ModelVersion   string           `json:"model_version"`
	SchemaVersion  int              `json:"feature_schema_version"`
	UptimeSeconds  int64            `json:"uptime_seconds"`
	FeedbackCounts map[string]int64 `json:"feedback_counts"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return Stats{}, ErrNotStarted
	}

	st := Stats{
		TotalAnalyzed:  s.cache.Computations(),
		CacheHitRate:   s.cache.HitRate(),
		CacheEntries:   s.cache.Len(),
		ModelVersion:   s.scorer.Version(),
		SchemaVersion:  features.Version,
		UptimeSeconds:  int64(s.now().Sub(s.startedAt).Seconds()),
		FeedbackCounts: map[string]int64{},
	}
	metrics.UpdateCacheEntries(st.CacheEntries)

	if s.feedback != nil {
		counts, err := s.feedback.Counts(ctx)
		if err != nil {
			return Stats{}, fmt.Errorf("feedback counts: %w", err)
		}
		st.FeedbackCounts = counts
	}
	return st, nil
}
