package features

import "errors"

// Sentinel kinds for feature aggregation errors.
var (
	ErrSchemaCollision = errors.New("feature outside extractor partition")
	ErrMissingFeature  = errors.New("schema feature missing from record")
)
