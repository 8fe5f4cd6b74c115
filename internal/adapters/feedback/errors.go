package feedback

import "errors"

// Sentinel kinds for feedback errors.
var (
	ErrUnknownKind     = errors.New("unknown feedback kind")
	ErrEmptyIdentifier = errors.New("empty identifier")
)
