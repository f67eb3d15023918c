package world

import (
	"fmt"
	"sync"

	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/logging"
	"github.com/brinkworld/voxelcore/internal/vec"
)

// GameObjectID identifies a game object (player, item drop, ...) bound
// to whichever chunk contains its current position.
type GameObjectID uint64

// eventQueueSize bounds the store's internal event channel; a full
// queue drops the event and logs, matching the teacher's per-region
// event channel behavior rather than blocking the caller.
const eventQueueSize = 4096

// Store is the authoritative chunk/column/object index (C2). Each
// ChunkData is exclusively owned by the Store; callers needing a stable
// view across a longer operation (mesh build) must take Snapshot().
type Store struct {
	mu      sync.RWMutex
	chunks  map[vec.ChunkPos]*ChunkData
	columns map[vec.ColumnPos]*Column

	objMu       sync.RWMutex
	objectChunk map[GameObjectID]vec.ChunkPos

	events chan Event

	// DespawnFunc, if set, is invoked for every game object bound to a
	// chunk being unloaded (mirrors the teacher's storage-function
	// injection pattern rather than importing the entity package
	// directly and risking an import cycle).
	DespawnFunc func(GameObjectID)
	// PersistFunc, if set, is invoked on Unload for a dirty chunk so the
	// persistence package can flush it before eviction.
	PersistFunc func(*ChunkData) error
}

// NewStore constructs an empty chunk store.
func NewStore() *Store {
	return &Store{
		chunks:      make(map[vec.ChunkPos]*ChunkData),
		columns:     make(map[vec.ColumnPos]*Column),
		objectChunk: make(map[GameObjectID]vec.ChunkPos),
		events:      make(chan Event, eventQueueSize),
	}
}

// Events returns the store's event stream. Consumers (mesh scheduler,
// network broadcaster, persistence) range over it in their own
// goroutines.
func (s *Store) Events() <-chan Event { return s.events }

// Publish emits an event on the store's stream. Exported so worker-pool
// packages (mesh scheduler, persistence) that complete work out of band
// can surface it to anyone ranging over Events(), the same way SetBlock
// and Unload do internally.
func (s *Store) Publish(e Event) { s.emit(e) }

func (s *Store) emit(e Event) {
	select {
	case s.events <- e:
	default:
		logging.Warnf("world: event queue full, dropping %T", e)
	}
}

// Get returns the resident chunk at pos, if loaded.
func (s *Store) Get(pos vec.ChunkPos) (*ChunkData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[pos]
	return c, ok
}

// GetMut returns the resident chunk at pos for in-place mutation. Since
// ChunkData internally synchronizes, this is the same accessor as Get —
// kept as a distinct name to mirror the read/write-intent split the
// contract calls for.
func (s *Store) GetMut(pos vec.ChunkPos) (*ChunkData, bool) {
	return s.Get(pos)
}

// Column returns the column at pos, if one has been created.
func (s *Store) Column(pos vec.ColumnPos) (*Column, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.columns[pos]
	return c, ok
}

// getOrCreateColumn returns the column at pos, creating it on first
// reference. Caller must not hold s.mu.
func (s *Store) getOrCreateColumn(pos vec.ColumnPos) *Column {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.columns[pos]
	if !ok {
		col = NewColumn()
		s.columns[pos] = col
	}
	return col
}

// ErrChunkNotLoaded is returned by SetBlock when the target chunk is
// not resident.
type ErrChunkNotLoaded struct {
	Pos vec.ChunkPos
}

func (e ErrChunkNotLoaded) Error() string {
	return fmt.Sprintf("world: chunk %+v not loaded", e.Pos)
}

// SetBlock sets the block at pos, marks the owning chunk dirty, marks
// its column for light re-propagation, and emits a BlockUpdateEvent
// carrying the old and new ids. Refuses for an unloaded chunk.
func (s *Store) SetBlock(pos vec.BlockPos, id catalog.BlockID) error {
	chunkPos := pos.Chunk()
	chunk, ok := s.Get(chunkPos)
	if !ok {
		return ErrChunkNotLoaded{Pos: chunkPos}
	}

	old := chunk.SetBlock(pos.LocalPos(), id)
	if old == id {
		return nil
	}

	col := s.getOrCreateColumn(pos.Column())
	col.MarkDirty()

	s.invalidateNeighborMasks(chunkPos, pos.LocalPos())

	s.emit(BlockUpdateEvent{Pos: pos, NewID: uint32(id), OldID: uint32(old)})
	return nil
}

// invalidateNeighborMasks invalidates the cached visibility mask of any
// neighbor chunk that shares a border with the edited voxel, since a
// block change at the chunk boundary can flip a face across it.
func (s *Store) invalidateNeighborMasks(chunkPos vec.ChunkPos, local vec.Local) {
	for _, d := range vec.AllDirections {
		off := d.Offset()
		atEdge := false
		switch {
		case off.X < 0:
			atEdge = local.X == 0
		case off.X > 0:
			atEdge = local.X == vec.ChunkSize-1
		case off.Y < 0:
			atEdge = local.Y == 0
		case off.Y > 0:
			atEdge = local.Y == vec.ChunkSize-1
		case off.Z < 0:
			atEdge = local.Z == 0
		case off.Z > 0:
			atEdge = local.Z == vec.ChunkSize-1
		}
		if !atEdge {
			continue
		}
		neighborPos := chunkPos.Add(vec.ChunkPos{X: off.X, Y: off.Y, Z: off.Z})
		if neighbor, ok := s.Get(neighborPos); ok {
			neighbor.InvalidateMask()
		}
	}
}

// Load installs data as the resident chunk at its own position and
// requests a Surrounding rebuild, per the load contract.
func (s *Store) Load(pos vec.ChunkPos, data *ChunkData) {
	s.mu.Lock()
	s.chunks[pos] = data
	s.mu.Unlock()

	s.emit(RerenderChunkRequestEvent{Pos: pos, Context: RerenderSurrounding})
}

// Unload removes the chunk at pos, despawning any game objects bound to
// it (via DespawnFunc, if set) and persisting it first (via
// PersistFunc) if it is dirty.
func (s *Store) Unload(pos vec.ChunkPos) {
	s.mu.Lock()
	chunk, ok := s.chunks[pos]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.chunks, pos)
	s.mu.Unlock()

	if chunk.IsDirty() && s.PersistFunc != nil {
		if err := s.PersistFunc(chunk); err != nil {
			logging.Errorf("world: persisting chunk %+v on unload: %v", pos, err)
		} else {
			chunk.ClearDirty()
		}
	}

	for _, id := range chunk.boundObjects() {
		s.unbindLocked(id)
		if s.DespawnFunc != nil {
			s.DespawnFunc(id)
		}
	}
}

// BindObject binds a game object to the chunk containing pos, emitting
// ObjectBoundEvent. It unbinds any prior chunk binding first.
func (s *Store) BindObject(id GameObjectID, pos vec.ChunkPos) {
	s.objMu.Lock()
	prev, had := s.objectChunk[id]
	s.objectChunk[id] = pos
	s.objMu.Unlock()

	if had && prev != pos {
		if c, ok := s.Get(prev); ok {
			c.unbindObject(id)
		}
	}
	if c, ok := s.Get(pos); ok {
		c.bindObject(id)
	}
	s.emit(ObjectBoundEvent{ID: id, Pos: pos})
}

// UnbindObject removes a game object's chunk binding entirely, e.g. on
// despawn/disconnect.
func (s *Store) UnbindObject(id GameObjectID) {
	s.objMu.Lock()
	pos, ok := s.objectChunk[id]
	delete(s.objectChunk, id)
	s.objMu.Unlock()
	if !ok {
		return
	}
	if c, ok := s.Get(pos); ok {
		c.unbindObject(id)
	}
	s.emit(ObjectUnboundEvent{ID: id, Pos: pos})
}

func (s *Store) unbindLocked(id GameObjectID) {
	s.objMu.Lock()
	delete(s.objectChunk, id)
	s.objMu.Unlock()
}

// ObjectChunk returns the chunk a game object is currently bound to.
func (s *Store) ObjectChunk(id GameObjectID) (vec.ChunkPos, bool) {
	s.objMu.RLock()
	defer s.objMu.RUnlock()
	pos, ok := s.objectChunk[id]
	return pos, ok
}

// LoadedChunks returns the coordinates of every resident chunk. Used by
// persistence's save-on-shutdown pass and by tests.
func (s *Store) LoadedChunks() []vec.ChunkPos {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]vec.ChunkPos, 0, len(s.chunks))
	for pos := range s.chunks {
		out = append(out, pos)
	}
	return out
}

// Neighbors returns the up-to-26 resident neighbor chunks within one
// chunk step in every axis, used by the mesh builder's 3x3x3 lookup.
func (s *Store) Neighbors(pos vec.ChunkPos) map[vec.ChunkPos]*ChunkData {
	out := make(map[vec.ChunkPos]*ChunkData, 26)
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				np := vec.ChunkPos{X: pos.X + dx, Y: pos.Y + dy, Z: pos.Z + dz}
				if c, ok := s.Get(np); ok {
					out[np] = c
				}
			}
		}
	}
	return out
}
