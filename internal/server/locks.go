package server

import (
	"fmt"
	"sync"
	"time"
)

// listGuard prevents two regenerations of the same shopping list from
// overlapping. Regeneration's delete/recreate window is not transactional,
// so the boundary layer must keep it from racing with itself.
//
// Entries also expire after a TTL as a safety net: a request that never
// released its slot (crashed handler, lost connection) must not wedge the
// list forever.
type listGuard struct {
	mu  sync.Mutex
	ttl time.Duration

	busy map[string]time.Time
}

func newListGuard(ttl time.Duration) *listGuard {
	return &listGuard{ttl: ttl, busy: map[string]time.Time{}}
}

func guardKey(householdID, listID int64) string {
	return fmt.Sprintf("%d:%d", householdID, listID)
}

// tryAcquire claims the slot for a list, sweeping expired entries first.
// Returns false if a regeneration is already in flight.
func (g *listGuard) tryAcquire(householdID, listID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for key, started := range g.busy {
		if now.Sub(started) > g.ttl {
			delete(g.busy, key)
		}
	}

	key := guardKey(householdID, listID)
	if _, inFlight := g.busy[key]; inFlight {
		return false
	}
	g.busy[key] = now
	return true
}

func (g *listGuard) release(householdID, listID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, guardKey(householdID, listID))
}
