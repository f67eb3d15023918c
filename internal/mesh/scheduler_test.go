package mesh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

func TestSchedulerRequestDeduplicatesAndWidensContext(t *testing.T) {
	store := world.NewStore()
	s := NewScheduler(store, nil, nil)

	pos := vec.ChunkPos{X: 1, Y: 0, Z: 0}
	s.Request(pos, world.RerenderAdjacent)
	s.Request(pos, world.RerenderSurrounding)

	require.Len(t, s.queue, 1, "a second Request for the same pos must not enqueue twice")
	require.Equal(t, world.RerenderSurrounding, s.queue[0].context, "context must widen, not reset")
}

func TestSchedulerPopOrdersByDistanceToFocus(t *testing.T) {
	store := world.NewStore()
	s := NewScheduler(store, nil, nil)
	s.SetFocus(vec.ChunkPos{X: 10, Y: 0, Z: 0})

	near := vec.ChunkPos{X: 9, Y: 0, Z: 0}
	far := vec.ChunkPos{X: 0, Y: 0, Z: 0}
	s.Request(far, world.RerenderAdjacent)
	s.Request(near, world.RerenderAdjacent)

	j, ok := s.pop()
	require.True(t, ok)
	require.Equal(t, near, j.pos)

	j, ok = s.pop()
	require.True(t, ok)
	require.Equal(t, far, j.pos)

	_, ok = s.pop()
	require.False(t, ok)
}

func TestSchedulerBuildPublishesEmptyBuffersForAirChunk(t *testing.T) {
	store := world.NewStore()
	pos := vec.ChunkPos{X: 0, Y: 0, Z: 0}
	store.Load(pos, world.NewChunkData(pos))

	var gotPos vec.ChunkPos
	var gotBuf *Buffers
	s := NewScheduler(store, nil, func(p vec.ChunkPos, b *Buffers) {
		gotPos = p
		gotBuf = b
	})

	s.build(&job{pos: pos, context: world.RerenderAdjacent})

	require.Equal(t, pos, gotPos)
	require.NotNil(t, gotBuf)
	require.Empty(t, gotBuf.OpaqueVertices)
}

func TestSchedulerBuildDropsJobForUnloadedChunk(t *testing.T) {
	store := world.NewStore()
	s := NewScheduler(store, nil, nil)

	require.NotPanics(t, func() {
		s.build(&job{pos: vec.ChunkPos{X: 5, Y: 5, Z: 5}, context: world.RerenderAdjacent})
	})
}
