// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingID is returned when a reference line has no leading [id].
	ErrMissingID = errors.New("reference line has no [id] token")

	// ErrContentMismatch marks fetched content that does not match the
	// reference. It is recorded in ValidationResult.Reason, never returned
	// to batch callers.
	ErrContentMismatch = errors.New("content does not match reference")

	// ErrBudgetExceeded halts a batch once the cost ceiling is reached.
	ErrBudgetExceeded = errors.New("budget exceeded")

	// ErrNotFinalizable is returned when a finalize request fails its checks.
	ErrNotFinalizable = errors.New("reference cannot be finalized")
)

// ParseError describes a line that could not be parsed into a Reference.
type ParseError struct {
	Line    int
	Content string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// NetworkError wraps a fetch failure or timeout for a URL.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("fetching %s: %v", e.URL, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }
