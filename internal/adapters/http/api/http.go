// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/okian/sentinel/internal/adapters/feedback"
	service "github.com/okian/sentinel/internal/app"
	"github.com/okian/sentinel/internal/domain/scoring"
)

// Engine bundles the operations HTTP handlers need from the analysis
// service. Using an interface keeps the handler layer loosely coupled to
// the service implementation.
type Engine interface {
	// GetScore resolves a single identifier. The boolean reports whether
	// the record was served from cache.
	GetScore(ctx context.Context, identifier string, forceRefresh bool) (scoring.ScoreRecord, bool, error)

	// AnalyzeBatch resolves many identifiers concurrently, preserving
	// request order.
	AnalyzeBatch(ctx context.Context, identifiers []string, forceRefresh bool) ([]service.Result, error)

	// RecordFeedback persists an analyst label for a scored account.
	RecordFeedback(ctx context.Context, identifier string, kind feedback.Kind, note string) error

	// GetStats reports service-level counters.
	GetStats(ctx context.Context) (service.Stats, error)
}

// Server wires HTTP routes for the analysis API.
type Server struct {
	healthHandler   *HealthHandler
	scoreHandler    *ScoreHandler
	batchHandler    *BatchHandler
	feedbackHandler *FeedbackHandler
	statsHandler    *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(engine Engine) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		scoreHandler:    NewScoreHandler(engine),
		batchHandler:    NewBatchHandler(engine),
		feedbackHandler: NewFeedbackHandler(engine),
		statsHandler:    NewStatsHandler(engine),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/v1/score/", MetricsMiddleware(s.scoreHandler.HandleGetScore, "score"))
	mux.HandleFunc("/v1/analyze/batch", MetricsMiddleware(s.batchHandler.HandleAnalyzeBatch, "analyze_batch"))
	mux.HandleFunc("/v1/feedback", MetricsMiddleware(s.feedbackHandler.HandlePostFeedback, "feedback"))
	mux.HandleFunc("/v1/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
