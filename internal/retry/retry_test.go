package retry

import (
	"context"
	"errors"
	"testing"

	"household-planner/internal/database"
)

func TestOnIDCollision(t *testing.T) {
	ctx := context.Background()

	t.Run("SucceedsFirstAttempt", func(t *testing.T) {
		attempts := 0
		got, err := OnIDCollision(ctx, database.IsUniqueConstraint, func(attempt int) (int, error) {
			attempts++
			return 42, nil
		})
		if err != nil {
			t.Fatalf("Expected success, got %v", err)
		}
		if got != 42 {
			t.Errorf("Expected 42, got %d", got)
		}
		if attempts != 1 {
			t.Errorf("Expected 1 attempt, got %d", attempts)
		}
	})

	t.Run("RetriesCollisionThenSucceeds", func(t *testing.T) {
		attempts := 0
		got, err := OnIDCollision(ctx, database.IsUniqueConstraint, func(attempt int) (int, error) {
			attempts++
			if attempts < 3 {
				return 0, database.ErrUniqueConstraint
			}
			return 7, nil
		})
		if err != nil {
			t.Fatalf("Expected success after retries, got %v", err)
		}
		if got != 7 {
			t.Errorf("Expected 7, got %d", got)
		}
		if attempts != 3 {
			t.Errorf("Expected 3 attempts, got %d", attempts)
		}
	})

	t.Run("ExhaustsAfterThreeCollisions", func(t *testing.T) {
		attempts := 0
		_, err := OnIDCollision(ctx, database.IsUniqueConstraint, func(attempt int) (int, error) {
			attempts++
			return 0, database.ErrUniqueConstraint
		})
		if !errors.Is(err, ErrIDGenerationExhausted) {
			t.Fatalf("Expected ErrIDGenerationExhausted, got %v", err)
		}
		if !errors.Is(err, database.ErrUniqueConstraint) {
			t.Errorf("Expected wrapped underlying error, got %v", err)
		}
		if attempts != 3 {
			t.Errorf("Expected exactly 3 attempts, got %d", attempts)
		}
	})

	t.Run("OtherErrorsPropagateImmediately", func(t *testing.T) {
		attempts := 0
		boom := errors.New("disk on fire")
		_, err := OnIDCollision(ctx, database.IsUniqueConstraint, func(attempt int) (int, error) {
			attempts++
			return 0, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Expected original error, got %v", err)
		}
		if attempts != 1 {
			t.Errorf("Expected exactly 1 attempt, got %d", attempts)
		}
	})

	t.Run("AttemptNumberPassedThrough", func(t *testing.T) {
		var seen []int
		_, _ = OnIDCollision(ctx, database.IsUniqueConstraint, func(attempt int) (int, error) {
			seen = append(seen, attempt)
			return 0, database.ErrUniqueConstraint
		})
		if len(seen) != 3 || seen[0] != 1 || seen[1] != 2 || seen[2] != 3 {
			t.Errorf("Expected attempts [1 2 3], got %v", seen)
		}
	})

	t.Run("CancelledContextStopsBackoff", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := OnIDCollision(cancelled, database.IsUniqueConstraint, func(attempt int) (int, error) {
			return 0, database.ErrUniqueConstraint
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})
}
