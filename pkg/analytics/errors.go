package analytics

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrInvalidParameter reports a non-positive iteration or phase cap.
	// Parameter errors surface before any parallel work starts.
	ErrInvalidParameter = errors.New("parameter out of range")
)

// AnalyticsError provides structured error information for algorithm runs.
type AnalyticsError struct {
	Algorithm string // "wcc", "kcore" or "louvain"
	Graph     string // Projection name
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *AnalyticsError) Error() string {
	return fmt.Sprintf("%s on graph %q: %v", e.Algorithm, e.Graph, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *AnalyticsError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *AnalyticsError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func invalidParameter(name string, value int) error {
	return fmt.Errorf("%w: %s=%d (must be positive)", ErrInvalidParameter, name, value)
}
