// Package protocol implements the chunk-streaming wire format (C6): a
// length-prefixed (u32 little-endian) tagged-union binary codec carrying
// the engine's packet set over the network layer's three logical
// channels (reliable / unreliable / chunk).
package protocol

import "github.com/brinkworld/voxelcore/internal/vec"

// Tag identifies a packet's wire type, serialized as the first byte of
// every frame's payload.
type Tag uint8

const (
	TagAuthorization Tag = iota + 1
	TagAuthorizationAccepted
	TagPlayerMove
	TagPlayerRotate
	TagGameObjectMoved
	TagGameObjectRotated
	TagSpawnGameObject
	TagDespawnGameObject
	TagBlockUpdate
	TagPlaceBlock
	TagDestroyBlock
	TagFullChunkUpdate
	TagPartialChunkUpdate
	TagAcknowledgeChunk
	TagUnloadAllChunks
	TagServerState
	TagChatSent
	TagUpdateInventory
	TagPing
	TagPong
	TagDisconnect
)

// Packet is implemented by every wire message.
type Packet interface {
	Tag() Tag
}

// PartialChunkSize is the block-id count carried by one PartialChunkUpdate.
const PartialChunkSize = 100

// FullChunkBlocks is the block count of one chunk's dense grid.
const FullChunkBlocks = vec.ChunkSize * vec.ChunkSize * vec.ChunkSize

// PartialChunkParts is the number of PartialChunkUpdate messages needed
// to reassemble one chunk: ceil(FullChunkBlocks / PartialChunkSize).
const PartialChunkParts = (FullChunkBlocks + PartialChunkSize - 1) / PartialChunkSize

// Authorization carries the client's auth token over the reliable
// channel as the session's first application packet.
type Authorization struct {
	Token string
}

func (Authorization) Tag() Tag { return TagAuthorization }

// AuthorizationAccepted is the server's acceptance reply.
type AuthorizationAccepted struct {
	ObjectID uint64
}

func (AuthorizationAccepted) Tag() Tag { return TagAuthorizationAccepted }

// PlayerMove is a client->server position update.
type PlayerMove struct {
	Pos vec.Vec3
}

func (PlayerMove) Tag() Tag { return TagPlayerMove }

// PlayerRotate is a client->server orientation update.
type PlayerRotate struct {
	Rot vec.Quat
}

func (PlayerRotate) Tag() Tag { return TagPlayerRotate }

// GameObjectMoved is a server->client broadcast of another object's
// position.
type GameObjectMoved struct {
	ID  uint64
	Pos vec.Vec3
}

func (GameObjectMoved) Tag() Tag { return TagGameObjectMoved }

// GameObjectRotated is a server->client broadcast of another object's
// orientation.
type GameObjectRotated struct {
	ID  uint64
	Rot vec.Quat
}

func (GameObjectRotated) Tag() Tag { return TagGameObjectRotated }

// ObjectKind distinguishes the GameObjectData payload carried by
// SpawnGameObject.
type ObjectKind uint8

const (
	ObjectKindPlayer ObjectKind = iota
	ObjectKindItemDrop
)

// SpawnGameObject announces a new object (player or item drop) entering
// view.
type SpawnGameObject struct {
	ID       uint64
	Pos      vec.Vec3
	Rot      vec.Quat
	Kind     ObjectKind
	ItemID   uint32 // meaningful only for ObjectKindItemDrop
	ItemQty  uint16 // meaningful only for ObjectKindItemDrop
	Username string // meaningful only for ObjectKindPlayer
}

func (SpawnGameObject) Tag() Tag { return TagSpawnGameObject }

// DespawnGameObject announces an object leaving view.
type DespawnGameObject struct {
	ID uint64
}

func (DespawnGameObject) Tag() Tag { return TagDespawnGameObject }

// BlockUpdate is a single-voxel mutation, sent both client->server (a
// provisional request alongside PlaceBlock/DestroyBlock) and
// server->client (the canonical broadcast).
type BlockUpdate struct {
	X, Y, Z int32
	ID      uint32
}

func (BlockUpdate) Tag() Tag { return TagBlockUpdate }

// PlaceBlock is the client's placement request against its current
// target face.
type PlaceBlock struct {
	X, Y, Z int32
}

func (PlaceBlock) Tag() Tag { return TagPlaceBlock }

// DestroyBlock is the client's destroy request, resent while the player
// keeps targeting the block; the server tracks the 800ms dwell itself
// across those sends and destroys the block only once it has elapsed.
type DestroyBlock struct {
	X, Y, Z int32
}

func (DestroyBlock) Tag() Tag { return TagDestroyBlock }

// FullChunkUpdate carries an entire 16^3 block grid in one packet.
type FullChunkUpdate struct {
	X, Y, Z int32
	Data    [FullChunkBlocks]uint32
}

func (FullChunkUpdate) Tag() Tag { return TagFullChunkUpdate }

// PartialChunkUpdate is one of PartialChunkParts fragments of a chunk,
// keyed by a monotonically increasing delivery id and ordered by Part.
type PartialChunkUpdate struct {
	ID      uint32
	Part    uint32
	X, Y, Z int32
	Data    [PartialChunkSize]uint32
}

func (PartialChunkUpdate) Tag() Tag { return TagPartialChunkUpdate }

// AcknowledgeChunk is the client's completion receipt, used by the
// server to bound each client's in-flight chunk window.
type AcknowledgeChunk struct {
	X, Y, Z int32
}

func (AcknowledgeChunk) Tag() Tag { return TagAcknowledgeChunk }

// UnloadAllChunks instructs the client to drop every resident chunk
// (e.g. on teleport to a distant region).
type UnloadAllChunks struct{}

func (UnloadAllChunks) Tag() Tag { return TagUnloadAllChunks }

// ServerStateKind enumerates the coarse lifecycle states the server
// reports to clients.
type ServerStateKind uint8

const (
	ServerStateRunning ServerStateKind = iota
	ServerStateSavingWorld
	ServerStateShuttingDown
)

// ServerState is a coarse lifecycle announcement.
type ServerState struct {
	State ServerStateKind
}

func (ServerState) Tag() Tag { return TagServerState }

// ChatSent carries one chat line in either direction.
type ChatSent struct {
	Message string
}

func (ChatSent) Tag() Tag { return TagChatSent }

// InventorySlotCount is the fixed hotbar+inventory size carried by
// UpdateInventory.
const InventorySlotCount = 10

// ItemStack is one inventory slot's contents; Count == 0 represents an
// empty slot (the wire equivalent of Option<ItemStack>::None).
type ItemStack struct {
	ItemID uint32
	Count  uint16
}

// UpdateInventory replaces the full 10-slot inventory.
type UpdateInventory struct {
	Slots [InventorySlotCount]ItemStack
}

func (UpdateInventory) Tag() Tag { return TagUpdateInventory }

// Ping/Pong carry an opaque round-trip code.
type Ping struct{ Code uint64 }

func (Ping) Tag() Tag { return TagPing }

type Pong struct{ Code uint64 }

func (Pong) Tag() Tag { return TagPong }

// DisconnectReason enumerates why a session is ending.
type DisconnectReason uint8

const (
	DisconnectClientRequested DisconnectReason = iota
	DisconnectIdleTimeout
	DisconnectAuthRejected
	DisconnectProtocolError
	DisconnectServerShutdown
)

// Disconnect is sent by either side to announce an orderly close.
type Disconnect struct {
	Reason DisconnectReason
}

func (Disconnect) Tag() Tag { return TagDisconnect }
