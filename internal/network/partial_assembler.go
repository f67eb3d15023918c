package network

import (
	"sync"
	"time"

	"github.com/brinkworld/voxelcore/internal/protocol"
)

// partialTransfer tracks the fragments received so far for one
// in-flight chunk delivery, keyed by PartialChunkUpdate.ID.
type partialTransfer struct {
	x, y, z  int32
	data     [protocol.FullChunkBlocks]uint32
	received [protocol.PartialChunkParts]bool
	count    int
	started  time.Time
}

func (t *partialTransfer) apply(p protocol.PartialChunkUpdate) {
	if int(p.Part) >= protocol.PartialChunkParts {
		return
	}
	if t.received[p.Part] {
		return
	}
	t.received[p.Part] = true
	t.count++
	base := int(p.Part) * protocol.PartialChunkSize
	for i, id := range p.Data {
		idx := base + i
		if idx >= protocol.FullChunkBlocks {
			break
		}
		t.data[idx] = id
	}
}

func (t *partialTransfer) complete() bool {
	return t.count >= protocol.PartialChunkParts
}

// PartialAssembler reassembles PartialChunkUpdate fragments into a
// complete dense block grid, one transfer per delivery id. Grounded on
// the shape of sync.BatchManager's capacity-bounded, mutex-protected
// accumulate-then-flush buffer, adapted here to accumulate by id rather
// than by time window and to flush on completion rather than on a
// ticker (a stale transfer is instead evicted by sweepStale).
type PartialAssembler struct {
	mu        sync.Mutex
	transfers map[uint32]*partialTransfer
	staleAfter time.Duration
}

// NewPartialAssembler constructs an assembler that discards transfers
// left incomplete for longer than staleAfter (a client that vanished
// mid-stream, or a dropped final fragment).
func NewPartialAssembler(staleAfter time.Duration) *PartialAssembler {
	return &PartialAssembler{
		transfers:  make(map[uint32]*partialTransfer),
		staleAfter: staleAfter,
	}
}

// Add folds one fragment into its transfer and returns the completed
// FullChunkUpdate once every one of PartialChunkParts fragments has
// arrived; ok is false while the transfer is still in flight.
func (a *PartialAssembler) Add(p protocol.PartialChunkUpdate) (full protocol.FullChunkUpdate, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, exists := a.transfers[p.ID]
	if !exists {
		t = &partialTransfer{x: p.X, y: p.Y, z: p.Z, started: time.Now()}
		a.transfers[p.ID] = t
	}
	t.apply(p)

	if !t.complete() {
		return protocol.FullChunkUpdate{}, false
	}
	delete(a.transfers, p.ID)
	return protocol.FullChunkUpdate{X: t.x, Y: t.y, Z: t.z, Data: t.data}, true
}

// SweepStale drops any transfer older than staleAfter, returning how
// many were evicted.
func (a *PartialAssembler) SweepStale() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	evicted := 0
	now := time.Now()
	for id, t := range a.transfers {
		if now.Sub(t.started) > a.staleAfter {
			delete(a.transfers, id)
			evicted++
		}
	}
	return evicted
}

// Split is the send-side counterpart: it cuts a dense block grid into
// PartialChunkParts ordered PartialChunkUpdate fragments under one
// delivery id.
func Split(id uint32, full protocol.FullChunkUpdate) []protocol.PartialChunkUpdate {
	parts := make([]protocol.PartialChunkUpdate, 0, protocol.PartialChunkParts)
	for part := 0; part < protocol.PartialChunkParts; part++ {
		var data [protocol.PartialChunkSize]uint32
		base := part * protocol.PartialChunkSize
		for i := range data {
			idx := base + i
			if idx >= protocol.FullChunkBlocks {
				break
			}
			data[i] = full.Data[idx]
		}
		parts = append(parts, protocol.PartialChunkUpdate{
			ID: id, Part: uint32(part),
			X: full.X, Y: full.Y, Z: full.Z,
			Data: data,
		})
	}
	return parts
}
