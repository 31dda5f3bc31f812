package guard_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gnames/gnbold/pkg/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(opts ...guard.Option) *guard.Guard {
	opts = append([]guard.Option{
		guard.OptBackoff(time.Millisecond),
		guard.OptTimeout(50 * time.Millisecond),
	}, opts...)
	return guard.New("test", opts...)
}

func TestDoRetries(t *testing.T) {
	errNet := errors.New("connection reset")

	tests := []struct {
		msg       string
		failures  int
		err       error
		calls     int32
		lookupErr bool
	}{
		{"success", 0, errNet, 1, false},
		{"recovers on second attempt", 1, errNet, 2, false},
		{"gives up after attempts", 5, errNet, 3, true},
		{"permanent error is not retried", 5,
			fmt.Errorf("%w: bad request", guard.ErrPermanent), 1, true},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			g := newGuard(guard.OptAttempts(3))
			var calls int32
			err := g.Do(context.Background(), func(context.Context) error {
				n := atomic.AddInt32(&calls, 1)
				if int(n) <= v.failures {
					return v.err
				}
				return nil
			})
			assert.Equal(t, v.calls, calls)
			if !v.lookupErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, guard.ErrLookupFailed)
			assert.ErrorIs(t, err, v.err)
		})
	}
}

func TestDoTimeout(t *testing.T) {
	g := newGuard(guard.OptAttempts(2))
	err := g.Do(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, guard.ErrLookupFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDoCanceled(t *testing.T) {
	g := newGuard()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := g.Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, guard.ErrLookupFailed)
}

func TestRateLimitSlowsDown(t *testing.T) {
	g := newGuard(
		guard.OptConcurrency(8),
		guard.OptAttempts(1),
		guard.OptRecovery(2),
	)
	assert.Equal(t, 8, g.Limit())

	limited := func(context.Context) error { return guard.ErrRateLimited }
	ok := func(context.Context) error { return nil }

	err := g.Do(context.Background(), limited)
	assert.ErrorIs(t, err, guard.ErrLookupFailed)
	assert.Equal(t, 4, g.Limit())

	_ = g.Do(context.Background(), limited)
	assert.Equal(t, 2, g.Limit())

	for range 4 {
		require.NoError(t, g.Do(context.Background(), ok))
	}
	assert.Equal(t, 4, g.Limit())

	for range 8 {
		require.NoError(t, g.Do(context.Background(), ok))
	}
	assert.Equal(t, 8, g.Limit())
}

func TestConcurrencyBound(t *testing.T) {
	g := newGuard(guard.OptConcurrency(2))
	var inFlight, peak int32
	done := make(chan struct{})
	for range 6 {
		go func() {
			_ = g.Do(context.Background(), func(context.Context) error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
			done <- struct{}{}
		}()
	}
	for range 6 {
		<-done
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestNilGuard(t *testing.T) {
	var g *guard.Guard
	called := false
	err := g.Do(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}
