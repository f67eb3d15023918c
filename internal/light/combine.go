package light

import (
	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

// AmbientFloor is the baseline every voxel receives regardless of
// propagated light, so pitch-black caves stay barely perceptible.
var AmbientFloor = world.LightSample{R: 2, G: 2, B: 2, Skylight: 0}

// Build runs both propagation passes and folds their results together
// with the ambient floor into the per-voxel field the mesh builder
// samples, replacing center's Light field atomically.
func Build(cat *catalog.Catalog, centerPos vec.ChunkPos, center *world.ChunkData, chunkNeighbors map[vec.ChunkPos]*world.ChunkData, columns ColumnLookup) [size * size * size]world.LightSample {
	block := PropagateBlockLight(cat, centerPos, center, chunkNeighbors)
	sky := PropagateSkyLight(cat, centerPos, center, chunkNeighbors, columns)

	var out [size * size * size]world.LightSample
	for i := range out {
		out[i] = world.LightSample{
			R:        maxU8(AmbientFloor.R, block[i].R),
			G:        maxU8(AmbientFloor.G, block[i].G),
			B:        maxU8(AmbientFloor.B, block[i].B),
			Skylight: maxU8(AmbientFloor.Skylight, sky[i]),
		}
	}
	return out
}

func maxU8(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

// RecomputeColumnHeight finds the lowest world-y in chunk at local (x,z)
// above which every block is non-full, i.e. the lowest point sky
// reaches directly. It scans from the chunk's top down and returns one
// above the highest full block, or sealed=false if the column holds
// none. Across a column's stacked chunks the true height is the highest
// value reported by any resident chunk, since a lower chunk's opaque
// roof is shadowed by one further up.
func RecomputeColumnHeight(cat *catalog.Catalog, chunkPos vec.ChunkPos, chunk *world.ChunkData, x, z uint8) (worldY int32, sealed bool) {
	if chunk.IsEmpty() {
		return 0, false
	}
	for y := int(vec.ChunkSize) - 1; y >= 0; y-- {
		local := vec.Local{X: x, Y: uint8(y), Z: z}
		id := chunk.Block(local)
		if id == catalog.AirBlockID {
			continue
		}
		def, ok := cat.Get(id)
		if !ok || !def.Full {
			continue
		}
		return chunkPos.Y*vec.ChunkSize + int32(y) + 1, true
	}
	return 0, false
}
