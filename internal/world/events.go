package world

import "github.com/brinkworld/voxelcore/internal/vec"

// EventType tags the variants of Event the store emits on its internal
// channel, mirroring the teacher's typed in-process event style.
type EventType uint8

const (
	EventBlockUpdate EventType = iota
	EventRerenderChunkRequest
	EventChunkRebuilt
	EventObjectBound
	EventObjectUnbound
)

// Event is the interface satisfied by every store-emitted event.
type Event interface {
	Type() EventType
}

// RerenderContext controls how wide a rebuild a RerenderChunkRequest
// asks for: just the named chunk, its 6-neighborhood, or the full
// 26-neighborhood (used on load and on edge-block edits).
type RerenderContext uint8

const (
	RerenderNone RerenderContext = iota
	RerenderAdjacent
	RerenderSurrounding
)

// BlockUpdateEvent is emitted by SetBlock; C6/C7 subscribe to broadcast
// and persist it.
type BlockUpdateEvent struct {
	Pos   vec.BlockPos
	NewID uint32
	OldID uint32
}

func (BlockUpdateEvent) Type() EventType { return EventBlockUpdate }

// RerenderChunkRequestEvent asks the mesh build scheduler to (re)build
// a chunk's buffers.
type RerenderChunkRequestEvent struct {
	Pos     vec.ChunkPos
	Context RerenderContext
}

func (RerenderChunkRequestEvent) Type() EventType { return EventRerenderChunkRequest }

// ChunkRebuiltEvent is emitted by the mesh builder once a chunk's
// buffers and light field have been replaced.
type ChunkRebuiltEvent struct {
	Pos vec.ChunkPos
}

func (ChunkRebuiltEvent) Type() EventType { return EventChunkRebuilt }

// ObjectBoundEvent/ObjectUnboundEvent track a game object's chunk
// binding, emitted on spawn/move/despawn and on chunk unload.
type ObjectBoundEvent struct {
	ID  GameObjectID
	Pos vec.ChunkPos
}

func (ObjectBoundEvent) Type() EventType { return EventObjectBound }

type ObjectUnboundEvent struct {
	ID  GameObjectID
	Pos vec.ChunkPos
}

func (ObjectUnboundEvent) Type() EventType { return EventObjectUnbound }
