package service

import "errors"

// Sentinel kinds for engine errors.
var (
	ErrNotStarted      = errors.New("engine not started")
	ErrEmptyBatch      = errors.New("empty batch")
	ErrBatchTooLarge   = errors.New("batch too large")
	ErrNoFeedbackStore = errors.New("feedback store not configured")
)
