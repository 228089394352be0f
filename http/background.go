package http

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Background runs fire-and-forget tasks that must be allowed to finish after
// the response has been sent, and lets the server wait for them before exit.
type Background struct {
	group   errgroup.Group
	timeout time.Duration
}

// NewBackground returns a Background running at most limit tasks at a time
// (no limit when limit <= 0). Each task gets a context bounded by timeout.
func NewBackground(limit int, timeout time.Duration) *Background {
	b := &Background{timeout: timeout}
	if limit > 0 {
		b.group.SetLimit(limit)
	}
	return b
}

// Go starts fn unless the group is at its limit, in which case the task is
// dropped and Go returns false. Task errors are logged, never propagated.
func (b *Background) Go(logger *slog.Logger, name string, fn func(ctx context.Context) error) bool {
	started := b.group.TryGo(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("background task panicked", "task", name, "panic", fmt.Sprint(rec))
			}
		}()

		if err := fn(ctx); err != nil {
			logger.Warn("background task failed", "task", name, "err", err)
		}
		return nil
	})

	if !started {
		logger.Warn("background task dropped", "task", name)
	}
	return started
}

// Wait blocks until every started task has returned or ctx is done.
func (b *Background) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		_ = b.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for background tasks: %w", ctx.Err())
	}
}
