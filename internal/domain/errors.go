package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks missing or empty inputs: files, search results,
	// hotspots. Callers render a placeholder instead of failing.
	ErrNotFound = errors.New("not found")

	// ErrParse marks malformed structured fields such as the tweet geo
	// payload. It never leaves the context extractor.
	ErrParse = errors.New("parse error")
)

// ConfigurationError reports an invalid setting, e.g. an H3 resolution
// outside the supported range.
type ConfigurationError struct {
	Setting string
	Value   any
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Setting, e.Value, e.Reason)
}
