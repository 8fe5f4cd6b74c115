// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	service "github.com/okian/sentinel/internal/app"
	"github.com/okian/sentinel/internal/domain/scoring"
)

// BatchHandler handles batch analysis requests.
type BatchHandler struct {
	engine Engine
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(engine Engine) *BatchHandler {
	return &BatchHandler{engine: engine}
}

// batchRequest mirrors the request schema for POST /v1/analyze/batch.
type batchRequest struct {
	Usernames    []string `json:"usernames"`
	ForceRefresh bool     `json:"force_refresh"`
}

// Per-item outcome labels. A "cached" item succeeded without a fresh
// computation.
const (
	batchStatusCompleted = "completed"
	batchStatusCached    = "cached"
	batchStatusError     = "error"
)

type batchResult struct {
	Username string               `json:"username"`
	Status   string               `json:"status"`
	Score    *scoring.ScoreRecord `json:"score,omitempty"`
	Error    string               `json:"error,omitempty"`
}

type batchResponse struct {
	Results          []batchResult `json:"results"`
	ProcessingTimeMS int64         `json:"processing_time_ms"`
}

// HandleAnalyzeBatch handles POST /v1/analyze/batch requests. Results
// are returned in request order, duplicates included; individual
// failures do not fail the batch.
func (h *BatchHandler) HandleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	start := time.Now()
	results, err := h.engine.AnalyzeBatch(r.Context(), req.Usernames, req.ForceRefresh)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyBatch), errors.Is(err, service.ErrBatchTooLarge):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}

	out := batchResponse{
		Results:          make([]batchResult, len(results)),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}
	for i, res := range results {
		item := batchResult{Username: res.Identifier}
		switch {
		case res.Err != nil:
			item.Status = batchStatusError
			item.Error = res.Err.Error()
		case res.Cached:
			item.Status = batchStatusCached
			rec := res.Record
			item.Score = &rec
		default:
			item.Status = batchStatusCompleted
			rec := res.Record
			item.Score = &rec
		}
		out.Results[i] = item
	}
	writeJSON(w, http.StatusOK, out)
}
