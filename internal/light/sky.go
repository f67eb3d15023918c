package light

import (
	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

// MaxSkylight is the strength a directly sky-exposed voxel receives,
// ported verbatim from the original engine's MAX_SKYLIGHT_BRIGHTNESS.
const MaxSkylight = 12

// ColumnLookup resolves a column by its (x,z) chunk coordinate; it
// returns ok=false for a column that isn't resident.
type ColumnLookup func(vec.ColumnPos) (*world.Column, bool)

// PropagateSkyLight computes the sky-light strength field for center,
// seeding every directly sky-exposed, non-opaque voxel in the center
// chunk and its 8 horizontal neighbor columns at MaxSkylight, then
// flooding laterally/downward through non-opaque cells, attenuating 1
// per step — a single multi-source flood, since sky light is scalar
// rather than the per-source-colored block-light field.
func PropagateSkyLight(cat *catalog.Catalog, centerPos vec.ChunkPos, center *world.ChunkData, chunkNeighbors map[vec.ChunkPos]*world.ChunkData, columns ColumnLookup) [size * size * size]uint8 {
	var out [size * size * size]uint8

	type node struct {
		pos      rel
		strength uint8
	}
	var queue []node

	for offX := -1; offX <= 1; offX++ {
		for offZ := -1; offZ <= 1; offZ++ {
			colPos := vec.ColumnPos{X: centerPos.X + int32(offX), Z: centerPos.Z + int32(offZ)}
			col, ok := columns(colPos)
			if !ok {
				continue
			}
			for lx := 0; lx < size; lx++ {
				for lz := 0; lz < size; lz++ {
					height := col.Height(uint8(lx), uint8(lz))
					for offY := -1; offY <= 1; offY++ {
						chunkPos := vec.ChunkPos{X: colPos.X, Y: centerPos.Y + int32(offY), Z: colPos.Z}
						var chunk *world.ChunkData
						if offX == 0 && offY == 0 && offZ == 0 {
							chunk = center
						} else {
							chunk, ok = chunkNeighbors[chunkPos]
							if !ok {
								continue
							}
						}
						for ly := 0; ly < size; ly++ {
							worldY := chunkPos.Y*size + int32(ly)
							if height != world.NoSkylight && worldY < height {
								continue
							}
							local := vec.Local{X: uint8(lx), Y: uint8(ly), Z: uint8(lz)}
							if id := chunk.Block(local); id != catalog.AirBlockID {
								if def, ok := cat.Get(id); ok && def.Full {
									continue
								}
							}
							queue = append(queue, node{
								pos:      rel{x: offX*size + lx, y: offY*size + ly, z: offZ*size + lz},
								strength: MaxSkylight,
							})
						}
					}
				}
			}
		}
	}

	best := make(map[rel]uint8)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if prev, ok := best[n.pos]; ok && prev >= n.strength {
			continue
		}
		best[n.pos] = n.strength

		if n.strength <= 1 {
			continue
		}
		for _, d := range vec.AllDirections {
			np := n.pos.step(d.Offset())
			id, known := sample(centerPos, center, chunkNeighbors, np)
			if !known {
				continue
			}
			if def, ok := cat.Get(id); ok && def.Full {
				continue
			}
			queue = append(queue, node{pos: np, strength: n.strength - 1})
		}
	}

	for p, strength := range best {
		if local, ok := p.inCenter(); ok {
			out[local.Index()] = strength
		}
	}
	return out
}
