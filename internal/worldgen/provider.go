package worldgen

import (
	"math/rand"

	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

// TreeProvider places a trunk-and-canopy tree on forest/plains columns —
// the 3D analogue of the teacher's placeTreeMetadata, which stamped a
// "has_tree" metadata flag onto a 2D active-layer cell at the same per-
// biome chance this carries forward (0.15 forest, a lower plains rate).
type TreeProvider struct {
	ForestChance float64
	PlainsChance float64
}

// NewTreeProvider returns a TreeProvider with the teacher's own default
// rates (ForestDensity = 0.05 on plains, a flat 15% in forest).
func NewTreeProvider() *TreeProvider {
	return &TreeProvider{ForestChance: 0.15, PlainsChance: 0.05}
}

func (t *TreeProvider) Decorate(chunk *world.ChunkData, cat *catalog.Catalog, biome Biome, rng *rand.Rand) {
	if biome != BiomeForest && biome != BiomePlains {
		return
	}
	chance := t.PlainsChance
	if biome == BiomeForest {
		chance = t.ForestChance
	}

	log := resolveOrFallback(cat, "core:log", 6)
	leaves := resolveOrFallback(cat, "core:leaves", 7)

	for x := uint8(0); x < vec.ChunkSize; x++ {
		for z := uint8(0); z < vec.ChunkSize; z++ {
			if rng.Float64() >= chance {
				continue
			}
			groundY, ok := topSolidLocalY(chunk, x, z)
			if !ok {
				continue
			}
			height := uint8(3 + rng.Intn(3))
			if int(groundY)+int(height)+2 >= vec.ChunkSize {
				// Canopy would straddle into the chunk above; this
				// provider only ever touches the chunk it's handed.
				continue
			}

			for dy := uint8(1); dy <= height; dy++ {
				chunk.SetBlock(vec.Local{X: x, Y: groundY + dy, Z: z}, log)
			}

			canopyY := groundY + height
			for dx := -1; dx <= 1; dx++ {
				for dz := -1; dz <= 1; dz++ {
					lx, lz := int(x)+dx, int(z)+dz
					if lx < 0 || lx >= vec.ChunkSize || lz < 0 || lz >= vec.ChunkSize {
						continue
					}
					leafPos := vec.Local{X: uint8(lx), Y: canopyY, Z: uint8(lz)}
					if chunk.Block(leafPos) == catalog.AirBlockID {
						chunk.SetBlock(leafPos, leaves)
					}
				}
			}
		}
	}
}

// topSolidLocalY scans down from the top of the chunk's column (x, z)
// and returns the highest non-air local Y, or false if the column is
// entirely air within this chunk.
func topSolidLocalY(chunk *world.ChunkData, x, z uint8) (uint8, bool) {
	for y := int(vec.ChunkSize) - 1; y >= 0; y-- {
		if chunk.Block(vec.Local{X: x, Y: uint8(y), Z: z}) != catalog.AirBlockID {
			return uint8(y), true
		}
	}
	return 0, false
}

func resolveOrFallback(cat *catalog.Catalog, identifier string, fallback catalog.BlockID) catalog.BlockID {
	if cat != nil {
		if id, ok := cat.LookupByIdentifier(identifier); ok {
			return id
		}
	}
	return fallback
}
