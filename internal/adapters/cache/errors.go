package cache

import "errors"

// terminalError marks a compute failure as terminal for its identifier,
// making it eligible for brief negative caching.
type terminalError struct {
	err error
}

func (e terminalError) Error() string { return e.err.Error() }

func (e terminalError) Unwrap() error { return e.err }

// Terminal wraps err so the cache treats it as a terminal per-identifier
// failure (account gone or suspended) rather than a transient one.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return terminalError{err: err}
}

func isTerminal(err error) bool {
	var t terminalError
	return errors.As(err, &t)
}
