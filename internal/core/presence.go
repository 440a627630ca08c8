package core

import "sync"

// Presence counts distinct authenticated users with at least one open
// connection. A user with two tabs open counts once.
type Presence struct {
	mu    sync.Mutex
	conns map[string]int
}

// NewPresence constructs an empty presence counter.
func NewPresence() *Presence {
	return &Presence{conns: make(map[string]int)}
}

// Connect records an open connection for the user. Returns the new distinct
// count and whether this was the user's zero-to-one transition.
func (p *Presence) Connect(userID string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.conns[userID]++
	return len(p.conns), p.conns[userID] == 1
}

// Disconnect records a closed connection for the user. Returns the new
// distinct count and whether this was the user's one-to-zero transition.
// A disconnect with no matching connect is a no-op; the count never goes
// negative.
func (p *Presence) Disconnect(userID string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, ok := p.conns[userID]
	if !ok {
		return len(p.conns), false
	}
	if n <= 1 {
		delete(p.conns, userID)
		return len(p.conns), true
	}
	p.conns[userID] = n - 1
	return len(p.conns), false
}

// Count returns the current distinct connected-user count.
func (p *Presence) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}
