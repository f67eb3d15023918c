package network

import (
	"sync"
	"time"

	"github.com/brinkworld/voxelcore/internal/vec"
)

// blockWrite is the last-accepted BlockUpdate at one position, kept
// just long enough to resolve a duplicate or reordered retransmit.
type blockWrite struct {
	id uint32
	at time.Time
}

// idempotentBlockGuard resolves duplicate or out-of-order BlockUpdate
// deliveries (a client reconnect replaying its last few unacked
// writes) with a last-write-wins rule: the later timestamp wins, and a
// write that loses against an already-applied later write is dropped
// rather than reapplied.
type idempotentBlockGuard struct {
	mu   sync.Mutex
	last map[vec.BlockPos]blockWrite
}

func newIdempotentBlockGuard() *idempotentBlockGuard {
	return &idempotentBlockGuard{last: make(map[vec.BlockPos]blockWrite)}
}

// Accept reports whether a BlockUpdate of id at pos, observed at at,
// should be applied — false means a later write at the same position
// already won.
func (g *idempotentBlockGuard) Accept(pos vec.BlockPos, id uint32, at time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev, ok := g.last[pos]
	if ok && !at.After(prev.at) {
		return false
	}
	g.last[pos] = blockWrite{id: id, at: at}
	return true
}
