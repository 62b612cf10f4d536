package projection

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrGraphNotFound   = errors.New("projected graph not found")
	ErrGraphExists     = errors.New("projected graph already exists")
	ErrEmptyName       = errors.New("projection name is empty")
	ErrInvalidWeight   = errors.New("edge weight must be positive")
	ErrSnapshotFormat  = errors.New("snapshot format invalid")
	ErrSnapshotVersion = errors.New("snapshot version unsupported")
)

// ProjectionError provides structured error information for projection operations.
type ProjectionError struct {
	Op    string // Operation that failed (e.g., "build", "get", "snapshot")
	Graph string // Projection name (if applicable)
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *ProjectionError) Error() string {
	if e.Graph != "" {
		return fmt.Sprintf("%s projection %q: %v", e.Op, e.Graph, e.Cause)
	}
	return fmt.Sprintf("%s projection: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ProjectionError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *ProjectionError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// GraphNotFoundError creates an unknown-graph error for the given name.
func GraphNotFoundError(name string) error {
	return &ProjectionError{Op: "get", Graph: name, Cause: ErrGraphNotFound}
}

// IsNotFound returns true if the error is an unknown-graph error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrGraphNotFound)
}
