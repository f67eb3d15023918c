package interaction

import (
	"sync"
	"time"

	"github.com/brinkworld/voxelcore/internal/vec"
)

// DestroyDwell is how long a target must stay continuously targeted
// before it is destroyed.
const DestroyDwell = 800 * time.Millisecond

// DestroyState is one state of the per-player destroy state machine.
type DestroyState uint8

const (
	StateIdle DestroyState = iota
	StateTargeting
	StateDestroying
)

// DestroyTracker drives one player's Idle -> Targeting -> Destroying
// state machine: losing the button or the target resets the dwell
// timer, and DestroyDwell of continuous targeting fires the destroy.
type DestroyTracker struct {
	mu     sync.Mutex
	state  DestroyState
	target vec.BlockPos
	start  time.Time
}

// NewDestroyTracker constructs a tracker in the Idle state.
func NewDestroyTracker() *DestroyTracker {
	return &DestroyTracker{state: StateIdle}
}

// Update folds one tick's input (is the destroy button held, and what
// block — if any — the player's raycast currently targets) into the
// state machine. fired is true exactly once, the tick the dwell
// completes, with target set to the block that should be destroyed.
func (t *DestroyTracker) Update(buttonDown bool, hit *vec.BlockPos, now time.Time) (fired bool, target vec.BlockPos) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !buttonDown || hit == nil {
		t.state = StateIdle
		return false, vec.BlockPos{}
	}

	switch t.state {
	case StateIdle:
		t.state = StateTargeting
		t.target = *hit
		t.start = now
	case StateTargeting, StateDestroying:
		if *hit != t.target {
			t.state = StateTargeting
			t.target = *hit
			t.start = now
			return false, vec.BlockPos{}
		}
		if now.Sub(t.start) >= DestroyDwell {
			t.state = StateIdle
			return true, t.target
		}
	}
	return false, vec.BlockPos{}
}

// State returns the tracker's current state, chiefly for tests and
// client-facing progress feedback.
func (t *DestroyTracker) State() DestroyState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
