package config

import (
	"errors"
)

// Sentinel errors returned by Load so callers can branch with errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrLoadConfig    = errors.New("configuration load failed")
)
