package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/oicomi/oicomi/internal/productivity/domain/memo"
	"github.com/oicomi/oicomi/internal/productivity/domain/task"
)

// BreakerBackend wraps a Backend's write paths in a circuit breaker so a dead
// backend fails fast instead of hanging every mutation. Read paths pass
// through; they already degrade to empty results.
type BreakerBackend struct {
	next    Backend
	breaker *gobreaker.CircuitBreaker[any]
}

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// MaxRequests is the number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the period of the open state.
	Timeout time.Duration

	// FailureThreshold is the consecutive-failure count that trips the
	// breaker.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// NewBreakerBackend wraps next with a circuit breaker.
func NewBreakerBackend(next Backend, cfg BreakerConfig, logger *slog.Logger) *BreakerBackend {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        "persistence",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &BreakerBackend{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

func (b *BreakerBackend) execute(fn func() error) error {
	_, err := b.breaker.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return err
}

// LoadTasks passes through to the wrapped backend.
func (b *BreakerBackend) LoadTasks(ctx context.Context, identityID string) ([]*task.Task, error) {
	return b.next.LoadTasks(ctx, identityID)
}

// SaveTask persists through the breaker.
func (b *BreakerBackend) SaveTask(ctx context.Context, identityID string, t *task.Task) error {
	return b.execute(func() error {
		return b.next.SaveTask(ctx, identityID, t)
	})
}

// UpdateTask updates through the breaker. A missing record is a caller
// mistake, not a backend failure, so it does not count against the breaker.
func (b *BreakerBackend) UpdateTask(ctx context.Context, identityID string, id uuid.UUID, patch task.Patch) error {
	var notFound bool
	err := b.execute(func() error {
		err := b.next.UpdateTask(ctx, identityID, id, patch)
		if errors.Is(err, task.ErrNotFound) {
			notFound = true
			return nil
		}
		return err
	})
	if notFound {
		return task.ErrNotFound
	}
	return err
}

// LoadMemo passes through to the wrapped backend.
func (b *BreakerBackend) LoadMemo(ctx context.Context, identityID string) (*memo.Memo, error) {
	return b.next.LoadMemo(ctx, identityID)
}

// SaveMemo persists through the breaker.
func (b *BreakerBackend) SaveMemo(ctx context.Context, identityID string, m *memo.Memo) error {
	return b.execute(func() error {
		return b.next.SaveMemo(ctx, identityID, m)
	})
}
