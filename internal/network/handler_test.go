package network

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/entity"
	"github.com/brinkworld/voxelcore/internal/interaction"
	"github.com/brinkworld/voxelcore/internal/logging"
	"github.com/brinkworld/voxelcore/internal/protocol"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

const handlerTestCatalogJSON = `[{"id": 1, "identifier": "core:stone", "full": true}]`

func loadHandlerTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blocks.json")
	require.NoError(t, os.WriteFile(path, []byte(handlerTestCatalogJSON), 0644))
	cat, err := catalog.Load(path)
	require.NoError(t, err)
	return cat
}

func newTestHandler(t *testing.T) (*Handler, *Server, *world.Store) {
	t.Helper()
	store := world.NewStore()
	store.Load(vec.ChunkPos{}, world.NewChunkData(vec.ChunkPos{}))

	logger, err := logging.NewLogger("network-test")
	require.NoError(t, err)

	server := NewServer(":0", nil, logger)
	handler := NewHandler(store, server, logger, loadHandlerTestCatalog(t))
	server.Handler = handler
	return handler, server, store
}

func registerSession(server *Server, id world.GameObjectID, reliable *fakeChannel) *Session {
	sess := &Session{ObjectID: id, Reliable: reliable}
	server.sessionsMu.Lock()
	server.sessions[id] = sess
	server.sessionsMu.Unlock()
	return sess
}

// aimSessionAt points sess's tracked transform at target's center from
// 5 blocks along +Z at the same height, looking along the default
// (unrotated) -Z forward direction — well within Handler.targetedBlock's
// reach check.
func aimSessionAt(sess *Session, target vec.BlockPos) {
	sess.SetTransform(entity.Transform{
		Pos: vec.Vec3{X: float64(target.X) + 0.5, Y: float64(target.Y) + 0.5, Z: float64(target.Z) + 5.5},
		Rot: vec.Quat{},
	})
}

func TestHandlerOnSessionStartBroadcastsSpawnToOthers(t *testing.T) {
	handler, server, _ := newTestHandler(t)

	otherChan := &fakeChannel{}
	registerSession(server, 2, otherChan)

	newChan := &fakeChannel{}
	sess := &Session{ObjectID: 1, Reliable: newChan}
	server.sessionsMu.Lock()
	server.sessions[1] = sess
	server.sessionsMu.Unlock()

	handler.OnSessionStart(sess, entity.PlayerData{Username: "alice"})

	require.Len(t, otherChan.sent, 1)
	spawn, ok := otherChan.sent[0].(protocol.SpawnGameObject)
	require.True(t, ok)
	require.Equal(t, "alice", spawn.Username)
	require.Empty(t, newChan.sent, "the spawning session itself must not receive its own spawn broadcast")
}

func TestHandlerOnSessionEndBroadcastsDespawnToEveryone(t *testing.T) {
	handler, server, store := newTestHandler(t)

	otherChan := &fakeChannel{}
	sess2 := registerSession(server, 2, otherChan)
	_ = sess2

	leavingChan := &fakeChannel{}
	leaving := registerSession(server, 1, leavingChan)
	store.BindObject(leaving.ObjectID, vec.ChunkPos{})

	handler.OnSessionEnd(leaving)

	require.Len(t, otherChan.sent, 1)
	_, ok := otherChan.sent[0].(protocol.DespawnGameObject)
	require.True(t, ok)

	require.Len(t, leavingChan.sent, 1, "Broadcast(skip=0) includes everyone still registered")
}

func TestHandlerDispatchMoveBroadcastsExceptSender(t *testing.T) {
	handler, server, _ := newTestHandler(t)

	senderChan := &fakeChannel{}
	sender := registerSession(server, 1, senderChan)

	otherChan := &fakeChannel{}
	registerSession(server, 2, otherChan)

	handler.Dispatch(sender, protocol.PlayerMove{Pos: vec.Vec3{X: 1, Y: 2, Z: 3}})

	require.Empty(t, senderChan.sent)
	require.Len(t, otherChan.sent, 1)
	moved, ok := otherChan.sent[0].(protocol.GameObjectMoved)
	require.True(t, ok)
	require.Equal(t, uint64(1), moved.ID)
	require.Equal(t, vec.Vec3{X: 1, Y: 2, Z: 3}, sender.Transform().Pos)
}

func TestHandlerDispatchPingRepliesPong(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	senderChan := &fakeChannel{}
	sender := &Session{ObjectID: 1, Reliable: senderChan}

	handler.Dispatch(sender, protocol.Ping{Code: 42})

	require.Len(t, senderChan.sent, 1)
	pong, ok := senderChan.sent[0].(protocol.Pong)
	require.True(t, ok)
	require.Equal(t, uint64(42), pong.Code)
}

func TestHandlerDestroyBlockSetsAirAfterDwellAndBroadcasts(t *testing.T) {
	handler, server, store := newTestHandler(t)
	start := time.Unix(0, 0)
	handler.now = func() time.Time { return start }

	senderChan := &fakeChannel{}
	sender := registerSession(server, 1, senderChan)
	target := vec.BlockPos{X: 1, Y: 1, Z: 1}
	aimSessionAt(sender, target)
	require.NoError(t, store.SetBlock(target, catalog.BlockID(1)))

	// First request only starts the dwell timer; the block must survive.
	handler.Dispatch(sender, protocol.DestroyBlock{X: 1, Y: 1, Z: 1})
	chunkBefore, ok := store.Get(vec.ChunkPos{})
	require.True(t, ok)
	require.Equal(t, catalog.BlockID(1), chunkBefore.Block(target.LocalPos()))

	handler.now = func() time.Time { return start.Add(interaction.DestroyDwell) }
	handler.Dispatch(sender, protocol.DestroyBlock{X: 1, Y: 1, Z: 1})

	chunk, ok := store.Get(vec.ChunkPos{})
	require.True(t, ok)
	require.Equal(t, catalog.AirBlockID, chunk.Block(target.LocalPos()))

	require.Len(t, senderChan.sent, 1)
	_, ok = senderChan.sent[0].(protocol.BlockUpdate)
	require.True(t, ok)
}

func TestHandlerDestroyBlockOutOfReachIsIgnored(t *testing.T) {
	handler, server, store := newTestHandler(t)

	senderChan := &fakeChannel{}
	sender := registerSession(server, 1, senderChan)
	target := vec.BlockPos{X: 1, Y: 1, Z: 1}
	require.NoError(t, store.SetBlock(target, catalog.BlockID(1)))
	// Sender's transform defaults to the origin, which is nowhere near
	// (and not even aimed at) the target block.

	handler.Dispatch(sender, protocol.DestroyBlock{X: 1, Y: 1, Z: 1})

	require.Empty(t, senderChan.sent)
	chunk, ok := store.Get(vec.ChunkPos{})
	require.True(t, ok)
	require.Equal(t, catalog.BlockID(1), chunk.Block(target.LocalPos()))
}

// neighborBelow returns the block one cell north, at Z-1 (in the aimSessionAt
// look path, "behind" the target) of target, used as the solid surface
// a place request's raycast must bounce off of.
func neighborBelow(target vec.BlockPos) vec.BlockPos {
	return vec.BlockPos{X: target.X, Y: target.Y, Z: target.Z - 1}
}

func TestHandlerPlaceBlockUsesFirstInventorySlot(t *testing.T) {
	handler, server, store := newTestHandler(t)

	senderChan := &fakeChannel{}
	sender := registerSession(server, 1, senderChan)
	target := vec.BlockPos{X: 2, Y: 2, Z: 2}
	surface := neighborBelow(target)
	aimSessionAt(sender, surface)
	require.NoError(t, store.SetBlock(surface, catalog.BlockID(1)))

	data := entity.PlayerData{Username: "bob"}
	data.Inventory[0] = entity.ItemStack{ItemID: 1, Count: 1}
	sender.SetData(data)

	handler.Dispatch(sender, protocol.PlaceBlock{X: 2, Y: 2, Z: 2})

	chunk, ok := store.Get(vec.ChunkPos{})
	require.True(t, ok)
	require.Equal(t, uint32(1), uint32(chunk.Block(target.LocalPos())))
}

func TestHandlerPlaceBlockNoopsWithEmptyInventorySlot(t *testing.T) {
	handler, server, store := newTestHandler(t)

	senderChan := &fakeChannel{}
	sender := registerSession(server, 1, senderChan)
	target := vec.BlockPos{X: 3, Y: 3, Z: 3}
	surface := neighborBelow(target)
	aimSessionAt(sender, surface)
	require.NoError(t, store.SetBlock(surface, catalog.BlockID(1)))

	handler.Dispatch(sender, protocol.PlaceBlock{X: 3, Y: 3, Z: 3})

	require.Empty(t, senderChan.sent)
	chunk, ok := store.Get(vec.ChunkPos{})
	require.True(t, ok)
	require.Equal(t, catalog.AirBlockID, chunk.Block(target.LocalPos()))
}

func TestHandlerPlaceBlockOutOfReachIsIgnored(t *testing.T) {
	handler, server, store := newTestHandler(t)

	senderChan := &fakeChannel{}
	sender := registerSession(server, 1, senderChan)
	data := entity.PlayerData{Username: "bob"}
	data.Inventory[0] = entity.ItemStack{ItemID: 1, Count: 1}
	sender.SetData(data)
	// No aim set: sender's transform stays at the zero value, which
	// never reaches (3, 3, 3).

	handler.Dispatch(sender, protocol.PlaceBlock{X: 3, Y: 3, Z: 3})

	require.Empty(t, senderChan.sent)
	chunk, ok := store.Get(vec.ChunkPos{})
	require.True(t, ok)
	require.Equal(t, catalog.AirBlockID, chunk.Block(vec.Local{X: 3, Y: 3, Z: 3}))
}

func TestHandlerBlockUpdateRejectsStaleReplay(t *testing.T) {
	handler, server, store := newTestHandler(t)

	senderChan := &fakeChannel{}
	sender := registerSession(server, 1, senderChan)
	at := time.Unix(1_700_000_000, 0)
	handler.now = func() time.Time { return at }

	handler.handleBlockUpdate(sender, protocol.BlockUpdate{X: 4, Y: 4, Z: 4, ID: 3})
	handler.handleBlockUpdate(sender, protocol.BlockUpdate{X: 4, Y: 4, Z: 4, ID: 3})

	require.Len(t, senderChan.sent, 1, "the second identical update is stamped at the same instant as the first and must be dropped")
	chunk, ok := store.Get(vec.ChunkPos{})
	require.True(t, ok)
	require.Equal(t, uint32(3), uint32(chunk.Block(vec.Local{X: 4, Y: 4, Z: 4})))
}
