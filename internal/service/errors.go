package service

import (
	"context"
	"errors"
	"fmt"

	"letsgohome/internal/cache"
)

var (
	// ErrNotFound means the session, or the participant within it, does
	// not exist. Recoverable: the caller can re-check state.
	ErrNotFound = errors.New("not found")

	// ErrConfiguration means the session carries a threshold rule the
	// evaluator does not recognize. Non-retryable; the session is left
	// uncompleted.
	ErrConfiguration = errors.New("invalid threshold configuration")

	// ErrTransient means a store transaction timed out or exhausted its
	// conflict retries. The caller may retry the whole operation.
	ErrTransient = errors.New("transient store failure")
)

// storeErr maps store-level failures onto the coordinator's error kinds.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, cache.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, cache.ErrConflict), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, ErrTransient)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
