package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

func TestPreloadSpawnLoadsFullColumnRangeAtEachRadiusStep(t *testing.T) {
	chunkStore := newTestChunkStore(t)
	store := world.NewStore()

	generated := 0
	generate := func(pos vec.ChunkPos) *world.ChunkData {
		generated++
		return world.NewChunkData(pos)
	}

	require.NoError(t, PreloadSpawn(store, chunkStore, 1, generate))

	// radius 1 on X/Z (3x3 columns) times Y in [0,5] (6 layers) = 54 chunks.
	require.Equal(t, 54, generated)

	_, ok := store.Get(vec.ChunkPos{X: 0, Y: 0, Z: 0})
	require.True(t, ok)
	_, ok = store.Get(vec.ChunkPos{X: -1, Y: 5, Z: 1})
	require.True(t, ok)
	_, ok = store.Get(vec.ChunkPos{X: 2, Y: 0, Z: 0})
	require.False(t, ok, "outside the requested radius")
}

func TestPreloadSpawnReusesPersistedChunksOnSecondCall(t *testing.T) {
	chunkStore := newTestChunkStore(t)
	store := world.NewStore()

	generated := 0
	generate := func(pos vec.ChunkPos) *world.ChunkData {
		generated++
		c := world.NewChunkData(pos)
		c.SetBlock(vec.Local{}, catalog.BlockID(3))
		return c
	}

	require.NoError(t, PreloadSpawn(store, chunkStore, 0, generate))
	firstCount := generated

	store2 := world.NewStore()
	require.NoError(t, PreloadSpawn(store2, chunkStore, 0, generate))
	require.Equal(t, firstCount, generated, "chunks saved by the first preload must not regenerate on the second")

	chunk, ok := store2.Get(vec.ChunkPos{X: 0, Y: 0, Z: 0})
	require.True(t, ok)
	require.Equal(t, catalog.BlockID(3), chunk.Block(vec.Local{}))
}
