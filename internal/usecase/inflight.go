package usecase

import (
	"context"
	"sync"
)

// RequestTracker hands out request generations per (session, operation).
// Starting a new generation cancels the previous one, and only the newest
// generation may deliver a result.
type RequestTracker struct {
	current map[trackerKey]*Ticket
	mu      sync.Mutex
	seq     uint64
}

type trackerKey struct {
	session   string
	operation string
}

// Ticket is one request generation.
type Ticket struct {
	tracker *RequestTracker
	cancel  context.CancelFunc
	key     trackerKey
	id      uint64
}

// NewRequestTracker creates a new RequestTracker.
func NewRequestTracker() *RequestTracker {
	return &RequestTracker{current: make(map[trackerKey]*Ticket)}
}

// Begin starts a new generation for session and operation, cancelling the
// one in flight. The returned context is cancelled when the ticket is
// superseded or released.
func (rt *RequestTracker) Begin(ctx context.Context, session, operation string) (context.Context, *Ticket) {
	ctx, cancel := context.WithCancel(ctx)
	key := trackerKey{session: session, operation: operation}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if prev, ok := rt.current[key]; ok {
		prev.cancel()
	}

	rt.seq++
	ticket := &Ticket{
		tracker: rt,
		cancel:  cancel,
		key:     key,
		id:      rt.seq,
	}
	rt.current[key] = ticket

	return ctx, ticket
}

// Current reports whether no newer generation has started since this one.
func (t *Ticket) Current() bool {
	t.tracker.mu.Lock()
	defer t.tracker.mu.Unlock()

	cur, ok := t.tracker.current[t.key]
	return ok && cur.id == t.id
}

// Release cancels the ticket's context and forgets it if it is still current.
func (t *Ticket) Release() {
	t.cancel()

	t.tracker.mu.Lock()
	defer t.tracker.mu.Unlock()

	if cur, ok := t.tracker.current[t.key]; ok && cur.id == t.id {
		delete(t.tracker.current, t.key)
	}
}

// InFlight returns the number of live generations.
func (rt *RequestTracker) InFlight() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	return len(rt.current)
}
