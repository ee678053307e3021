package keylock

import "sync"

// Guard is a per-key mutual-exclusion map: each key owns an exclusive
// in-flight flag that is either free or held. TryAcquire never blocks and
// never queues; overlapping work for the same key is rejected outright, so a
// second writer cannot run a diff computed against a baseline the first
// writer is still changing. Distinct keys are fully independent.
type Guard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// New returns an empty guard.
func New() *Guard {
	return &Guard{held: make(map[string]struct{})}
}

// TryAcquire claims key, reporting false when it is already in flight.
func (g *Guard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return false
	}
	g.held[key] = struct{}{}
	return true
}

// Release frees key. Releasing a key that is not held is a no-op.
func (g *Guard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
}

// InFlight reports whether key is currently held.
func (g *Guard) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.held[key]
	return busy
}
