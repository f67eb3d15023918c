package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/vec"
)

func TestChunkDataEmptyIsAllAir(t *testing.T) {
	c := NewChunkData(vec.ChunkPos{})
	require.True(t, c.IsEmpty())
	assert.Equal(t, catalog.AirBlockID, c.Block(vec.Local{X: 3, Y: 4, Z: 5}))
}

func TestChunkDataSetBlockDensifiesAndCompacts(t *testing.T) {
	c := NewChunkData(vec.ChunkPos{})
	local := vec.Local{X: 1, Y: 2, Z: 3}

	old := c.SetBlock(local, catalog.BlockID(7))
	assert.Equal(t, catalog.AirBlockID, old)
	require.False(t, c.IsEmpty())
	assert.Equal(t, catalog.BlockID(7), c.Block(local))
	assert.True(t, c.IsDirty())

	old = c.SetBlock(local, catalog.AirBlockID)
	assert.Equal(t, catalog.BlockID(7), old)
	assert.True(t, c.IsEmpty(), "chunk should re-adopt the Empty optimization once all-air again")
}

func TestChunkDataSnapshotIsIndependent(t *testing.T) {
	c := NewChunkData(vec.ChunkPos{})
	local := vec.Local{X: 0, Y: 0, Z: 0}
	c.SetBlock(local, catalog.BlockID(3))

	snap := c.Snapshot()
	c.SetBlock(local, catalog.BlockID(9))

	assert.Equal(t, catalog.BlockID(3), snap.Block(local))
	assert.Equal(t, catalog.BlockID(9), c.Block(local))
}

func TestStoreSetBlockRefusesUnloadedChunk(t *testing.T) {
	s := NewStore()
	err := s.SetBlock(vec.BlockPos{X: 100, Y: 0, Z: 0}, catalog.BlockID(1))
	require.Error(t, err)
	var notLoaded ErrChunkNotLoaded
	require.ErrorAs(t, err, &notLoaded)
}

func TestStoreSetBlockEmitsEventAndMarksColumnDirty(t *testing.T) {
	s := NewStore()
	pos := vec.ChunkPos{}
	s.Load(pos, NewChunkData(pos))

	// Drain the Surrounding rerender request emitted by Load.
	ev := <-s.Events()
	_, ok := ev.(RerenderChunkRequestEvent)
	require.True(t, ok)

	blockPos := vec.BlockPos{X: 1, Y: 1, Z: 1}
	require.NoError(t, s.SetBlock(blockPos, catalog.BlockID(5)))

	update := (<-s.Events()).(BlockUpdateEvent)
	assert.Equal(t, blockPos, update.Pos)
	assert.Equal(t, uint32(5), update.NewID)
	assert.Equal(t, uint32(0), update.OldID)

	col, ok := s.Column(blockPos.Column())
	require.True(t, ok)
	assert.True(t, col.IsDirty())
}

func TestStoreUnloadDespawnsBoundObjects(t *testing.T) {
	s := NewStore()
	pos := vec.ChunkPos{}
	s.Load(pos, NewChunkData(pos))
	<-s.Events() // Surrounding rerender request

	var despawned []GameObjectID
	s.DespawnFunc = func(id GameObjectID) {
		despawned = append(despawned, id)
	}

	s.BindObject(GameObjectID(42), pos)
	<-s.Events() // ObjectBoundEvent

	s.Unload(pos)

	assert.Equal(t, []GameObjectID{42}, despawned)
	_, ok := s.ObjectChunk(GameObjectID(42))
	assert.False(t, ok)
	_, ok = s.Get(pos)
	assert.False(t, ok)
}

func TestStoreNeighborsReturnsOnlyLoaded(t *testing.T) {
	s := NewStore()
	center := vec.ChunkPos{X: 0, Y: 0, Z: 0}
	east := vec.ChunkPos{X: 1, Y: 0, Z: 0}
	s.Load(center, NewChunkData(center))
	s.Load(east, NewChunkData(east))
	<-s.Events()
	<-s.Events()

	neighbors := s.Neighbors(center)
	assert.Len(t, neighbors, 1)
	_, ok := neighbors[east]
	assert.True(t, ok)
}
