package light

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

const lightTestCatalog = `[
  {"id": 1, "identifier": "core:stone", "full": true},
  {"id": 2, "identifier": "core:torch", "emission": {"r": 255, "g": 200, "b": 100, "strength": 10}}
]`

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blocks.json")
	require.NoError(t, os.WriteFile(path, []byte(lightTestCatalog), 0644))
	cat, err := catalog.Load(path)
	require.NoError(t, err)
	return cat
}

func TestPropagateBlockLightDecaysWithDistance(t *testing.T) {
	cat := loadCatalog(t)
	chunk := world.NewChunkData(vec.ChunkPos{})
	origin := vec.Local{X: 8, Y: 8, Z: 8}
	chunk.SetBlock(origin, catalog.BlockID(2))

	result := PropagateBlockLight(cat, vec.ChunkPos{}, chunk, nil)

	assert := require.New(t)
	assert.NotZero(result[origin.Index()].R)

	near := vec.Local{X: 9, Y: 8, Z: 8}
	far := vec.Local{X: 14, Y: 8, Z: 8}
	assert.Greater(result[near.Index()].R, result[far.Index()].R)
}

func TestPropagateBlockLightStopsAtFullBlock(t *testing.T) {
	cat := loadCatalog(t)
	chunk := world.NewChunkData(vec.ChunkPos{})
	origin := vec.Local{X: 8, Y: 8, Z: 8}
	chunk.SetBlock(origin, catalog.BlockID(2))
	// A full stone wall spanning the whole chunk at x=9 blocks every path
	// around it, unlike a single voxel which light can flood around.
	for y := uint8(0); y < vec.ChunkSize; y++ {
		for z := uint8(0); z < vec.ChunkSize; z++ {
			chunk.SetBlock(vec.Local{X: 9, Y: y, Z: z}, catalog.BlockID(1))
		}
	}

	result := PropagateBlockLight(cat, vec.ChunkPos{}, chunk, nil)
	beyondWall := vec.Local{X: 10, Y: 8, Z: 8}
	require.Zero(t, result[beyondWall.Index()].R)
}

func TestPropagateSkyLightFullyOpenColumnIsMaxEverywhere(t *testing.T) {
	cat := loadCatalog(t)
	chunk := world.NewChunkData(vec.ChunkPos{})
	col := world.NewColumn() // every cell NoSkylight => fully open

	lookup := func(pos vec.ColumnPos) (*world.Column, bool) {
		if pos == (vec.ColumnPos{}) {
			return col, true
		}
		return nil, false
	}

	result := PropagateSkyLight(cat, vec.ChunkPos{}, chunk, nil, lookup)
	require.Equal(t, uint8(MaxSkylight), result[vec.Local{X: 0, Y: 0, Z: 0}.Index()])
	require.Equal(t, uint8(MaxSkylight), result[vec.Local{X: 15, Y: 15, Z: 15}.Index()])
}

func TestPropagateSkyLightBlockedBelowSurface(t *testing.T) {
	cat := loadCatalog(t)
	chunk := world.NewChunkData(vec.ChunkPos{})
	// Seal the chunk's top half with stone so the bottom isn't directly lit.
	for x := uint8(0); x < vec.ChunkSize; x++ {
		for z := uint8(0); z < vec.ChunkSize; z++ {
			chunk.SetBlock(vec.Local{X: x, Y: 8, Z: z}, catalog.BlockID(1))
		}
	}
	col := world.NewColumn()
	for x := uint8(0); x < vec.ChunkSize; x++ {
		for z := uint8(0); z < vec.ChunkSize; z++ {
			col.SetHeight(x, z, 9) // sky reaches only at world y >= 9, matching the stone ceiling at y=8
		}
	}

	lookup := func(pos vec.ColumnPos) (*world.Column, bool) {
		if pos == (vec.ColumnPos{}) {
			return col, true
		}
		return nil, false
	}

	result := PropagateSkyLight(cat, vec.ChunkPos{}, chunk, nil, lookup)
	require.Zero(t, result[vec.Local{X: 8, Y: 0, Z: 8}.Index()])
}

func TestBuildAppliesAmbientFloor(t *testing.T) {
	cat := loadCatalog(t)
	chunk := world.NewChunkData(vec.ChunkPos{})
	col := world.NewColumn()
	lookup := func(vec.ColumnPos) (*world.Column, bool) { return col, true }

	field := Build(cat, vec.ChunkPos{}, chunk, nil, lookup)
	deepCorner := vec.Local{X: 0, Y: 0, Z: 0}
	require.GreaterOrEqual(t, field[deepCorner.Index()].R, AmbientFloor.R)
}
