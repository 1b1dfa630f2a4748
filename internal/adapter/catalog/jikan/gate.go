package jikan

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

var errGateExhausted = errors.New("admission gate cannot admit request")

// Gate is the process-wide admission gate for catalog requests.
// Request starts are spaced at least one interval apart no matter how many
// goroutines call Wait concurrently.
type Gate struct {
	limiter *rate.Limiter
	clock   clockwork.Clock
}

// NewGate creates a gate admitting one request per interval.
// A non-positive interval disables pacing.
func NewGate(interval time.Duration, clock clockwork.Clock) *Gate {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Gate{
		limiter: rate.NewLimiter(limit, 1),
		clock:   clock,
	}
}

// Wait blocks until the caller may start its request.
// The slot is reserved on entry, so concurrent callers are admitted in arrival order.
func (g *Gate) Wait(ctx context.Context) error {
	now := g.clock.Now()
	r := g.limiter.ReserveN(now, 1)
	if !r.OK() {
		return errGateExhausted
	}

	delay := r.DelayFrom(now)
	if delay <= 0 {
		return nil
	}

	select {
	case <-g.clock.After(delay):
		return nil
	case <-ctx.Done():
		// Hand the slot back so later callers are not delayed by a request that never ran
		r.CancelAt(g.clock.Now())
		return ctx.Err()
	}
}
