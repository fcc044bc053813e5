package api

import (
	"context"
	"sync"
	"sync/atomic"
)

// refreshRole is what a caller that saw a 401 must do next.
type refreshRole int

const (
	// roleLead: no refresh outstanding, the caller performs it.
	roleLead refreshRole = iota
	// roleWait: another caller is refreshing; wait for its outcome.
	roleWait
	// roleStale: the token the caller sent has already been replaced.
	roleStale
)

// refreshFlight is one refresh call. err is written before done is closed.
type refreshFlight struct {
	done chan struct{}
	err  error

	// waiters counts the callers parked in wait.
	waiters atomic.Int32
}

// wait blocks until the refresh settles or ctx is done.
func (f *refreshFlight) wait(ctx context.Context) error {
	f.waiters.Add(1)
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// refreshGate admits at most one refresh at a time. Every caller arriving
// while a refresh is outstanding parks on its done channel; settling the
// refresh releases all of them at once.
type refreshGate struct {
	mu      sync.Mutex
	current *refreshFlight
}

// outstanding returns the refresh in progress, or nil when idle.
func (g *refreshGate) outstanding() *refreshFlight {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// join decides the caller's role atomically with the transition to refreshing.
// stillCurrent reports whether the token the caller sent is still the session's
// token; it is evaluated under the gate's lock.
func (g *refreshGate) join(stillCurrent func() bool) (*refreshFlight, refreshRole) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current != nil {
		return g.current, roleWait
	}
	if !stillCurrent() {
		return nil, roleStale
	}

	g.current = &refreshFlight{done: make(chan struct{})}
	return g.current, roleLead
}

// settle records the outcome of f, returns the gate to idle and wakes all waiters.
func (g *refreshGate) settle(f *refreshFlight, err error) {
	g.mu.Lock()
	f.err = err
	if g.current == f {
		g.current = nil
	}
	g.mu.Unlock()

	close(f.done)
}
