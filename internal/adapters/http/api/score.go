// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/sentinel/internal/adapters/collector"
	"github.com/okian/sentinel/internal/domain/scoring"
)

// ScoreHandler handles single-account score requests.
type ScoreHandler struct {
	engine Engine
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(engine Engine) *ScoreHandler {
	return &ScoreHandler{engine: engine}
}

// scoreResponse is a score record plus a flag telling the caller whether
// it was served from cache.
type scoreResponse struct {
	scoring.ScoreRecord
	Cached bool `json:"cached"`
}

// HandleGetScore handles GET /v1/score/{identifier} requests. The
// optional refresh=true query parameter bypasses a fresh cache entry.
func (h *ScoreHandler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// r.URL.Path arrives percent-decoded; net/url stores Path in
	// decoded form, so no further unescaping here.
	identifier := strings.TrimPrefix(r.URL.Path, "/v1/score/")
	if identifier == "" || strings.Contains(identifier, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	refresh := r.URL.Query().Get("refresh") == "true"

	record, cached, err := h.engine.GetScore(r.Context(), identifier, refresh)
	if err != nil {
		writeScoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{ScoreRecord: record, Cached: cached})
}

// writeScoreError translates resolution errors into HTTP status codes.
func writeScoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, collector.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, collector.ErrSuspended):
		writeError(w, http.StatusNotFound, "suspended", err)
	case errors.Is(err, collector.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limited", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
