package llm

import (
	"errors"
	"fmt"
)

// BackendError wraps any failure from the generative-text backend so callers
// can apply their own retry policy. The original message is preserved.
type BackendError struct {
	Op         string // "complete", "stream", "embed"
	StatusCode int    // 0 for transport-level failures
	Underlying error
}

func (e *BackendError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm %s: status %d: %v", e.Op, e.StatusCode, e.Underlying)
	}
	return fmt.Sprintf("llm %s: %v", e.Op, e.Underlying)
}

func (e *BackendError) Unwrap() error { return e.Underlying }

// IsBackendError reports whether err originated from a backend call.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
