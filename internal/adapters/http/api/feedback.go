// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/okian/sentinel/internal/adapters/feedback"
	service "github.com/okian/sentinel/internal/app"
)

// FeedbackHandler handles analyst feedback submissions.
type FeedbackHandler struct {
	engine Engine
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(engine Engine) *FeedbackHandler {
	return &FeedbackHandler{engine: engine}
}

// feedbackRequest mirrors the request schema for POST /v1/feedback.
type feedbackRequest struct {
	Username     string `json:"username"`
	FeedbackType string `json:"feedback_type"`
	Note         string `json:"note,omitempty"`
}

func (f feedbackRequest) validate() error {
	switch {
	case strings.TrimSpace(f.Username) == "":
		return errors.New("missing username")
	case strings.TrimSpace(f.FeedbackType) == "":
		return errors.New("missing feedback_type")
	}
	return nil
}

type feedbackResponse struct {
	Status string `json:"status"`
}

// HandlePostFeedback handles POST /v1/feedback requests.
func (h *FeedbackHandler) HandlePostFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	kind, err := feedback.ParseKind(req.FeedbackType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.engine.RecordFeedback(r.Context(), req.Username, kind, req.Note); err != nil {
		if errors.Is(err, service.ErrNoFeedbackStore) {
			writeError(w, http.StatusServiceUnavailable, "unavailable", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusAccepted, feedbackResponse{Status: "recorded"})
}
