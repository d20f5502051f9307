// Package retry re-attempts ID-generating store operations that race on the
// per-household max()+1 next-ID scheme. Two members creating rows at the same
// moment can compute the same ID; the losing insert fails its primary key
// constraint and is safe to recompute and try again.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrIDGenerationExhausted is returned when an operation keeps colliding on
// unique constraints after all attempts. It wraps the last underlying error.
var ErrIDGenerationExhausted = errors.New("could not generate a unique id after multiple attempts")

const (
	maxAttempts = 3
	backoffStep = 10 * time.Millisecond
)

// OnIDCollision runs op up to 3 times, retrying only when isCollision
// classifies the failure as a unique-constraint violation. Any other error
// propagates immediately. Attempts are spaced by a linear 10ms*attempt
// backoff to reduce the chance of colliding again under contention.
func OnIDCollision[T any](ctx context.Context, isCollision func(error) bool, op func(attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := op(attempt)
		if err == nil {
			return result, nil
		}
		if !isCollision(err) {
			return zero, err
		}
		lastErr = err

		if attempt < maxAttempts {
			select {
			case <-time.After(backoffStep * time.Duration(attempt)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}

	return zero, fmt.Errorf("%w: %w", ErrIDGenerationExhausted, lastErr)
}
