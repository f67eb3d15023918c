package persistence

import (
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

// PreloadSpawn loads every chunk within radius chunks of the origin
// column, in every vertical layer from 0 to 5 inclusive, into store —
// the region a freshly connecting player can see immediately without
// waiting on an on-demand load. generate builds a chunk's initial
// content when nothing was ever saved for it; chunkStore.LoadOrGenerate
// handles the save-once-generated bookkeeping.
func PreloadSpawn(store *world.Store, chunkStore *ChunkStore, radius int, generate func(vec.ChunkPos) *world.ChunkData) error {
	for x := -radius; x <= radius; x++ {
		for z := -radius; z <= radius; z++ {
			for y := 0; y <= 5; y++ {
				pos := vec.ChunkPos{X: int32(x), Y: int32(y), Z: int32(z)}
				chunk, err := chunkStore.LoadOrGenerate(pos, generate)
				if err != nil {
					return err
				}
				store.Load(pos, chunk)
			}
		}
	}
	return nil
}
