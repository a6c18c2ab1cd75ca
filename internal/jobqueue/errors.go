package jobqueue

import (
	"errors"
	"fmt"

	"github.com/storyarc/storyarc/internal/llm"
	"github.com/storyarc/storyarc/internal/model"
)

// ErrQueueClosed is returned by Submit after Stop has been called.
var ErrQueueClosed = errors.New("jobqueue: queue is closed")

// QueueFullError reports a rejected submission because the worker lane for
// the key had no capacity within the enqueue timeout.
type QueueFullError struct {
	Lane     int
	Length   int
	Capacity int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("jobqueue: lane %d full (%d/%d)", e.Lane, e.Length, e.Capacity)
}

// ErrorCategory determines how a failed attempt is handled.
type ErrorCategory int

const (
	// Recoverable attempts are retried with exponential backoff.
	Recoverable ErrorCategory = iota

	// Irrecoverable attempts fail the job immediately.
	Irrecoverable
)

func (c ErrorCategory) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// ClassifiedError carries a category so the retry loop can distinguish
// transient backend trouble from errors that no retry will fix.
type ClassifiedError struct {
	Category   ErrorCategory
	Underlying error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("[%s] %v", e.Category, e.Underlying)
}

func (e *ClassifiedError) Unwrap() error { return e.Underlying }

// Classify assigns a category to an arbitrary pipeline error. Validation and
// missing-data errors cannot succeed on retry; AI backend 4xx responses other
// than 429 are equally permanent. Everything else is assumed transient.
func Classify(err error) *ClassifiedError {
	cat := Recoverable

	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrNotFound):
		cat = Irrecoverable
	default:
		var be *llm.BackendError
		if errors.As(err, &be) {
			if be.StatusCode >= 400 && be.StatusCode < 500 && be.StatusCode != 429 {
				cat = Irrecoverable
			}
		}
	}
	return &ClassifiedError{Category: cat, Underlying: err}
}

// IsIrrecoverable reports whether err should not be retried.
func IsIrrecoverable(err error) bool {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Category == Irrecoverable
	}
	return false
}
