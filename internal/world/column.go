package world

import (
	"sync"

	"github.com/brinkworld/voxelcore/internal/vec"
)

// NoSkylight is the SkylightHeight sentinel meaning sky reaches
// arbitrarily low at that (x,z) — no opaque block anywhere above.
const NoSkylight = -1

// Column holds the per-(x,z) sky-exposure metadata shared by every
// chunk stacked at that horizontal position, at block granularity
// (16 x 16, one column cell per block x/z pair).
type Column struct {
	mu sync.RWMutex

	SkylightHeight [vec.ChunkSize][vec.ChunkSize]int32
	Dirty          bool
}

// NewColumn constructs a column with every cell set to NoSkylight.
func NewColumn() *Column {
	col := &Column{Dirty: true}
	for x := range col.SkylightHeight {
		for z := range col.SkylightHeight[x] {
			col.SkylightHeight[x][z] = NoSkylight
		}
	}
	return col
}

// Height returns the skylight height at local (x,z).
func (c *Column) Height(x, z uint8) int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.SkylightHeight[x][z]
}

// SetHeight updates the skylight height at local (x,z) and marks the
// column dirty if the value changed.
func (c *Column) SetHeight(x, z uint8, y int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SkylightHeight[x][z] != y {
		c.SkylightHeight[x][z] = y
		c.Dirty = true
	}
}

// MarkDirty flags the column for light re-propagation, e.g. after a
// block change anywhere in one of its stacked chunks.
func (c *Column) MarkDirty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Dirty = true
}

// MarkClean clears the dirty flag after light re-propagation.
func (c *Column) MarkClean() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Dirty = false
}

// IsDirty reports whether the column needs light re-propagation.
func (c *Column) IsDirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Dirty
}
