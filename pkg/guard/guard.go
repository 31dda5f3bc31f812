// Package guard wraps calls to remote collaborators with a timeout, a
// bounded retry with exponential backoff and a concurrency limit shared by
// all workers. A rate-limit response shrinks the limit for everybody, a
// streak of successful calls restores it slot by slot.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrLookupFailed marks a call that did not produce an answer after
	// all attempts.
	ErrLookupFailed = errors.New("lookup failed")

	// ErrRateLimited is returned by collaborators when the remote service
	// asks to slow down.
	ErrRateLimited = errors.New("rate limited")

	// ErrPermanent marks failures that retrying cannot fix.
	ErrPermanent = errors.New("permanent failure")
)

// Guard is safe for concurrent use.
type Guard struct {
	name     string
	timeout  time.Duration
	attempts int
	backoff  time.Duration
	recovery int

	max int
	sem *semaphore.Weighted

	mu     sync.Mutex
	debt   int
	parked int
	streak int
}

// Option configures Guard.
type Option func(*Guard)

// OptTimeout sets the limit for a single attempt.
func OptTimeout(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// OptAttempts sets how many times a call is tried.
func OptAttempts(i int) Option {
	return func(g *Guard) {
		if i > 0 {
			g.attempts = i
		}
	}
}

// OptBackoff sets the delay before the second attempt. Later delays
// double.
func OptBackoff(d time.Duration) Option {
	return func(g *Guard) {
		if d >= 0 {
			g.backoff = d
		}
	}
}

// OptConcurrency sets the maximum number of calls in flight.
func OptConcurrency(i int) Option {
	return func(g *Guard) {
		if i > 0 {
			g.max = i
		}
	}
}

// OptRecovery sets how many consecutive successes return one concurrency
// slot taken away by a rate limit.
func OptRecovery(i int) Option {
	return func(g *Guard) {
		if i > 0 {
			g.recovery = i
		}
	}
}

// New creates a Guard for a named collaborator.
func New(name string, opts ...Option) *Guard {
	res := &Guard{
		name:     name,
		timeout:  30 * time.Second,
		attempts: 3,
		backoff:  time.Second,
		recovery: 20,
		max:      4,
	}
	for _, opt := range opts {
		opt(res)
	}
	res.sem = semaphore.NewWeighted(int64(res.max))
	return res
}

// Limit returns the current number of calls allowed in flight.
func (g *Guard) Limit() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.max - g.parked - g.debt
}

// Do runs fn until it succeeds, fails permanently, or runs out of attempts.
// Every failure that Do gives up on wraps ErrLookupFailed. Cancellation of
// ctx is returned as is.
func (g *Guard) Do(ctx context.Context, fn func(context.Context) error) error {
	if g == nil {
		return fn(ctx)
	}

	var err error
	delay := g.backoff
	for i := 1; i <= g.attempts; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = g.acquire(ctx); err != nil {
			return err
		}
		err = g.call(ctx, fn)
		g.sem.Release(1)

		if err == nil {
			g.succeeded()
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrRateLimited) {
			g.slowDown()
		}
		if errors.Is(err, ErrPermanent) || i == g.attempts {
			break
		}

		slog.Debug("Retrying collaborator call",
			"collaborator", g.name, "attempt", i, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s: %w: %w", g.name, ErrLookupFailed, err)
}

func (g *Guard) call(
	ctx context.Context,
	fn func(context.Context) error,
) error {
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	err := fn(cctx)
	if err == nil && cctx.Err() == context.DeadlineExceeded {
		err = cctx.Err()
	}
	return err
}

// acquire takes a slot. Slots owed to a slowdown are parked first, as
// long as they can be taken without waiting.
func (g *Guard) acquire(ctx context.Context) error {
	g.mu.Lock()
	for g.debt > 0 && g.sem.TryAcquire(1) {
		g.debt--
		g.parked++
	}
	g.mu.Unlock()
	return g.sem.Acquire(ctx, 1)
}

func (g *Guard) slowDown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.streak = 0
	limit := g.max - g.parked - g.debt
	if limit <= 1 {
		return
	}
	g.debt += limit / 2
	slog.Warn("Rate limited, reducing concurrency",
		"collaborator", g.name, "limit", limit-limit/2)
}

func (g *Guard) succeeded() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.parked == 0 && g.debt == 0 {
		return
	}
	g.streak++
	if g.streak < g.recovery {
		return
	}
	g.streak = 0
	if g.debt > 0 {
		g.debt--
	} else {
		g.parked--
		g.sem.Release(1)
	}
	slog.Info("Restoring concurrency",
		"collaborator", g.name, "limit", g.max-g.parked-g.debt)
}
