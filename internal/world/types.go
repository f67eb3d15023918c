// Package world implements the chunk store (C2): the authoritative
// mapping from chunk/column coordinate to resident block and lighting
// data, plus the game-object-to-chunk binding the rest of the engine
// relies on.
package world

import (
	"sync"

	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/vec"
)

// GenStage is a chunk's position in the generation pipeline. It is
// load-bearing for the Surrounding-rerender contract: a chunk below Lit
// has not had its light field computed and cannot be meshed.
type GenStage uint8

const (
	StageBlank GenStage = iota
	StageStructures
	StageDecorated
	StageLit
	StageReady
)

func (s GenStage) String() string {
	switch s {
	case StageBlank:
		return "Blank"
	case StageStructures:
		return "Structures"
	case StageDecorated:
		return "Decorated"
	case StageLit:
		return "Lit"
	case StageReady:
		return "Ready"
	default:
		return "Unknown"
	}
}

// ChunkFlags is the bitset carried on every ChunkData.
type ChunkFlags uint8

const (
	// FlagAtEdge marks a chunk on the outer ring of the loaded set: its
	// cross-chunk visibility can't yet be computed.
	FlagAtEdge ChunkFlags = 1 << iota
	// FlagReady marks a chunk whose mesh has been built and published
	// at least once.
	FlagReady
)

func (f ChunkFlags) Has(bit ChunkFlags) bool { return f&bit != 0 }

// LightSample is one voxel's resolved lighting: an RGB block-light
// channel (each pre-normalized against its source's peak contribution)
// plus a sky-light strength.
type LightSample struct {
	R, G, B  uint8
	Skylight uint8
}

// MaxLight is the light engine's propagation radius in voxels, and the
// ceiling on any channel's strength.
const MaxLight = 16

const blockCount = vec.ChunkSize * vec.ChunkSize * vec.ChunkSize

// ChunkData is one resident 16^3 chunk: its dense block array (or the
// Empty optimization), its resolved per-voxel light field, generation
// stage/flags, and a dirty bit for persistence.
//
// A ChunkData's zero value is not useable; construct with NewChunkData.
type ChunkData struct {
	mu sync.RWMutex

	Position vec.ChunkPos

	// blocks is nil for an Empty (all-air) chunk — every read path must
	// treat a nil blocks array identically to a dense array of zeros.
	blocks []catalog.BlockID
	Light  [blockCount]LightSample

	// mask caches the C3 viewable-direction computation until the chunk
	// (or a neighbor within light radius) next mutates.
	mask      *[blockCount]uint8
	maskDirty bool

	Flags ChunkFlags
	Stage GenStage
	Dirty bool

	// objects is the set of game objects currently bound to this chunk.
	objects map[GameObjectID]struct{}
}

// NewChunkData constructs an Empty chunk at pos.
func NewChunkData(pos vec.ChunkPos) *ChunkData {
	return &ChunkData{
		Position:  pos,
		maskDirty: true,
		objects:   make(map[GameObjectID]struct{}),
	}
}

// IsEmpty reports whether the chunk is the all-air storage optimization.
// It is semantically equivalent to every block being catalog.AirBlockID.
func (c *ChunkData) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks == nil
}

// Block returns the block id at local, treating a nil (Empty) backing
// array as all-air.
func (c *ChunkData) Block(local vec.Local) catalog.BlockID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blockLocked(local)
}

func (c *ChunkData) blockLocked(local vec.Local) catalog.BlockID {
	if c.blocks == nil {
		return catalog.AirBlockID
	}
	return c.blocks[local.Index()]
}

// SetBlock sets the block at local, densifying an Empty chunk on first
// write. It marks the chunk dirty and invalidates the cached visibility
// mask. Returns the previous id.
func (c *ChunkData) SetBlock(local vec.Local, id catalog.BlockID) catalog.BlockID {
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.blockLocked(local)
	if old == id {
		return old
	}
	if c.blocks == nil {
		if id == catalog.AirBlockID {
			return old
		}
		c.blocks = make([]catalog.BlockID, blockCount)
	}
	c.blocks[local.Index()] = id
	c.Dirty = true
	c.maskDirty = true
	c.compactIfAllAir()
	return old
}

// compactIfAllAir re-adopts the Empty optimization once every block in a
// densified chunk has been cleared back to air. Caller holds c.mu.
func (c *ChunkData) compactIfAllAir() {
	if c.blocks == nil {
		return
	}
	for _, id := range c.blocks {
		if id != catalog.AirBlockID {
			return
		}
	}
	c.blocks = nil
}

// Mask returns the cached viewable-direction mask and whether it is
// still valid; callers recompute and call SetMask on a miss.
func (c *ChunkData) Mask() (*[blockCount]uint8, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.maskDirty || c.mask == nil {
		return nil, false
	}
	return c.mask, true
}

// SetMask installs a freshly computed visibility mask.
func (c *ChunkData) SetMask(mask *[blockCount]uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mask = mask
	c.maskDirty = false
}

// InvalidateMask forces the next Mask() call to miss; used when a
// neighbor chunk within light radius mutates.
func (c *ChunkData) InvalidateMask() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maskDirty = true
}

// LightAt returns the resolved light sample at local.
func (c *ChunkData) LightAt(local vec.Local) LightSample {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Light[local.Index()]
}

// ReplaceLight atomically installs a freshly computed light field and
// marks the chunk Ready. Called by the mesh/light build pipeline on
// completion.
func (c *ChunkData) ReplaceLight(light [blockCount]LightSample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Light = light
	c.Flags |= FlagReady
	c.Stage = StageReady
}

// Snapshot returns an independent copy of the chunk's block and light
// data, suitable for handing to a mesh-builder worker that must not
// observe concurrent mutation mid-build.
func (c *ChunkData) Snapshot() *ChunkData {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cp := &ChunkData{
		Position: c.Position,
		Light:    c.Light,
		Flags:    c.Flags,
		Stage:    c.Stage,
		Dirty:    c.Dirty,
		objects:  make(map[GameObjectID]struct{}, len(c.objects)),
	}
	if c.blocks != nil {
		cp.blocks = make([]catalog.BlockID, len(c.blocks))
		copy(cp.blocks, c.blocks)
	}
	for id := range c.objects {
		cp.objects[id] = struct{}{}
	}
	return cp
}

// ClearDirty resets the dirty bit after a successful persistence flush.
func (c *ChunkData) ClearDirty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Dirty = false
}

// IsDirty reports whether the chunk has unpersisted changes.
func (c *ChunkData) IsDirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Dirty
}

// Blocks returns a copy of the chunk's dense block array, or nil if the
// chunk is Empty. The persistence layer uses this to serialize a
// chunk's contents independent of any in-progress mutation.
func (c *ChunkData) Blocks() []catalog.BlockID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.blocks == nil {
		return nil
	}
	out := make([]catalog.BlockID, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// RestoreBlocks installs a previously-saved block array, stage and flag
// set onto a freshly constructed chunk, adopting the Empty optimization
// if blocks is nil or all-air. Used only by the persistence layer when
// loading a chunk back from storage.
func (c *ChunkData) RestoreBlocks(blocks []catalog.BlockID, stage GenStage, flags ChunkFlags) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if blocks != nil {
		c.blocks = make([]catalog.BlockID, len(blocks))
		copy(c.blocks, blocks)
		c.compactIfAllAir()
	}
	c.Stage = stage
	c.Flags = flags
	c.maskDirty = true
}

func (c *ChunkData) bindObject(id GameObjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[id] = struct{}{}
}

func (c *ChunkData) unbindObject(id GameObjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.objects, id)
}

func (c *ChunkData) boundObjects() []GameObjectID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]GameObjectID, 0, len(c.objects))
	for id := range c.objects {
		out = append(out, id)
	}
	return out
}
