package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubExpirer struct {
	calls   atomic.Int64
	expired int64
	err     error
}

func (s *stubExpirer) ExpireDueHolds(ctx context.Context, now time.Time) (int64, error) {
	s.calls.Add(1)
	return s.expired, s.err
}

func TestSweeperRunsUntilCancelled(t *testing.T) {
	expirer := &stubExpirer{expired: 2}
	s := New(expirer, 10*time.Millisecond, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return expirer.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}

func TestSweeperKeepsRunningAfterError(t *testing.T) {
	expirer := &stubExpirer{err: errors.New("db down")}
	s := New(expirer, 10*time.Millisecond, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	s.Run(ctx)

	assert.GreaterOrEqual(t, expirer.calls.Load(), int64(2))
}
