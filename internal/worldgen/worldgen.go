// Package worldgen implements the deterministic seeded terrain pipeline:
// base heightmap and biome shape from Perlin noise, then a pluggable
// Provider chain that decorates the result (trees, ores, structures).
// Content itself — which biomes exist, what a Provider places — is out
// of scope; the pipeline that drives any such content deterministically
// from a world seed is the part this package owns.
package worldgen

import (
	"math/rand"
	"sync"

	"github.com/aquilax/go-perlin"

	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/logging"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

// Noise scale constants, carried over from the teacher's 2D generator:
// NoiseScale controls how stretched the heightmap is, BiomeScale how
// large a biome region is (coarser than the heightmap itself).
const (
	NoiseScale = 0.05
	BiomeScale = 0.02

	perlinAlpha = 2.0
	perlinBeta  = 2.0
	perlinOctaves int32 = 3
)

// Biome mirrors the teacher's BiomeType, picked from the same two noise
// channels (height + a separate biome-value channel) but evaluated per
// column rather than reused across the whole chunk.
type Biome int

const (
	BiomePlains Biome = iota
	BiomeDesert
	BiomeForest
	BiomeMountains
)

// Provider decorates a freshly shaped chunk after terrain placement —
// the hook a biome/structure content pack would implement. rng is
// seeded deterministically from the chunk's coordinate and the
// pipeline's world seed, so two Decorate calls for the same chunk
// always place the same things.
type Provider interface {
	Decorate(chunk *world.ChunkData, cat *catalog.Catalog, biome Biome, rng *rand.Rand)
}

// blockSet is the set of block ids the pipeline paints terrain with;
// each entry is resolved against the catalog on every Generate call.
type blockSet struct {
	stone, dirt, grass, sand, water BlockIDOrFallback
}

// BlockIDOrFallback is resolved against the catalog each time it's
// used, without caching; see resolveBlock.
type BlockIDOrFallback struct {
	identifier string
	fallback   catalog.BlockID
}

// Pipeline is the terrain generator for one world seed. It is safe for
// concurrent use — go-perlin's Noise2D is read-only after construction
// and the pipeline holds no other mutable state beyond a warn-once set.
type Pipeline struct {
	seed   int64
	height *perlin.Perlin
	biome  *perlin.Perlin
	cat    *catalog.Catalog
	blocks blockSet

	providers []Provider

	warnOnceMu sync.Mutex
	warned     map[string]bool
}

// New builds a Pipeline for seed. cat may be nil — a missing catalog
// (or a catalog missing one of the terrain identifiers below) falls
// back to small sequential ids, logged once per identifier, the same
// graceful-degradation the rest of the engine gives a catalog miss.
func New(seed int64, cat *catalog.Catalog, providers ...Provider) *Pipeline {
	return &Pipeline{
		seed:   seed,
		height: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed),
		biome:  perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed+42),
		cat:    cat,
		blocks: blockSet{
			stone: BlockIDOrFallback{identifier: "core:stone", fallback: 1},
			dirt:  BlockIDOrFallback{identifier: "core:dirt", fallback: 2},
			grass: BlockIDOrFallback{identifier: "core:grass", fallback: 3},
			sand:  BlockIDOrFallback{identifier: "core:sand", fallback: 4},
			water: BlockIDOrFallback{identifier: "core:water", fallback: 5},
		},
		providers: providers,
		warned:    make(map[string]bool),
	}
}

func (p *Pipeline) resolveBlock(b BlockIDOrFallback) catalog.BlockID {
	if p.cat != nil {
		if id, ok := p.cat.LookupByIdentifier(b.identifier); ok {
			return id
		}
	}
	p.warnOnceMu.Lock()
	defer p.warnOnceMu.Unlock()
	if !p.warned[b.identifier] {
		p.warned[b.identifier] = true
		logging.Warnf("worldgen: catalog miss for %q, using fallback id %d", b.identifier, b.fallback)
	}
	return b.fallback
}

// heightAt returns normalized terrain noise in [0, 1] for the column at
// global block (x, z).
func (p *Pipeline) heightAt(x, z int32) float64 {
	n := p.height.Noise2D(float64(x)*NoiseScale, float64(z)*NoiseScale)
	return (n + 1.0) / 2.0
}

// MountainStart is the normalized height (same [0,1] range as heightAt)
// above which a column is BiomeMountains regardless of biome noise,
// matching the teacher's height-overrides-biome decision order.
const MountainStart = 0.80

func (p *Pipeline) biomeAt(x, z int32) Biome {
	if p.heightAt(x, z) > MountainStart {
		return BiomeMountains
	}
	// Noise2D already returns [-1, 1] — the same range the teacher's
	// biomeValue thresholds (-0.3/0.3) were tuned against.
	v := p.biome.Noise2D(float64(x)*BiomeScale, float64(z)*BiomeScale)
	switch {
	case v < -0.3:
		return BiomeDesert
	case v > 0.3:
		return BiomeForest
	default:
		return BiomePlains
	}
}

// surfaceHeight maps the [0,1] noise sample to a world-Y block height.
// MinSurface/MaxSurface bound where the column's floor/grass sits;
// anything at or above SeaLevel but below the surface is water.
const (
	MinSurface = 40
	MaxSurface = 120
	SeaLevel   = 62
)

func (p *Pipeline) surfaceHeight(x, z int32) int32 {
	h := p.heightAt(x, z)
	return MinSurface + int32(h*float64(MaxSurface-MinSurface))
}

// chunkRNG derives a deterministic per-chunk random source from the
// pipeline seed and the chunk coordinate, mirroring the teacher
// generator's per-chunk chunkSeed construction.
func (p *Pipeline) chunkRNG(pos vec.ChunkPos) *rand.Rand {
	seed := p.seed + int64(pos.X)*1_000_003 + int64(pos.Y)*1_009 + int64(pos.Z)*31
	return rand.New(rand.NewSource(seed))
}

// Generate produces a fully terrain-shaped, decorated chunk at pos.
// Terrain placement advances the chunk to StageStructures; each
// Provider.Decorate call runs in order and the chunk is left at
// StageDecorated once they've all run — StageLit/StageReady are the
// light engine and mesh builder's responsibility, not this package's.
func (p *Pipeline) Generate(pos vec.ChunkPos) *world.ChunkData {
	chunk := world.NewChunkData(pos)
	rng := p.chunkRNG(pos)

	stone := p.resolveBlock(p.blocks.stone)
	dirt := p.resolveBlock(p.blocks.dirt)
	grass := p.resolveBlock(p.blocks.grass)
	sand := p.resolveBlock(p.blocks.sand)
	water := p.resolveBlock(p.blocks.water)

	for x := uint8(0); x < vec.ChunkSize; x++ {
		for z := uint8(0); z < vec.ChunkSize; z++ {
			blockPos := vec.FromChunkLocal(pos, vec.Local{X: x, Z: z})
			surface := p.surfaceHeight(blockPos.X, blockPos.Z)
			biome := p.biomeAt(blockPos.X, blockPos.Z)
			topBlock := grass
			switch biome {
			case BiomeDesert:
				topBlock = sand
			case BiomeMountains:
				topBlock = stone
			}

			for y := uint8(0); y < vec.ChunkSize; y++ {
				globalY := pos.Y*vec.ChunkSize + int32(y)
				local := vec.Local{X: x, Y: y, Z: z}

				switch {
				case globalY < surface-4:
					chunk.SetBlock(local, stone)
				case globalY < surface:
					chunk.SetBlock(local, dirt)
				case globalY == surface:
					if surface < SeaLevel {
						chunk.SetBlock(local, water)
					} else {
						chunk.SetBlock(local, topBlock)
					}
				case globalY <= SeaLevel && globalY > surface:
					chunk.SetBlock(local, water)
				default:
					// air, already the chunk's zero value
				}
			}
		}
	}
	chunk.Stage = world.StageStructures

	for _, provider := range p.providers {
		biome := p.biomeAt(pos.X*vec.ChunkSize, pos.Z*vec.ChunkSize)
		provider.Decorate(chunk, p.cat, biome, rng)
	}
	chunk.Stage = world.StageDecorated

	return chunk
}
