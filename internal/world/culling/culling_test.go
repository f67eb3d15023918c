package culling

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

const testCatalogJSON = `[
  {"id": 1, "identifier": "core:stone", "full": true},
  {"id": 2, "identifier": "core:glass", "translucent": true, "full": true},
  {"id": 3, "identifier": "core:glass", "translucent": true, "full": true, "draw_betweens": true}
]`

func loadTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "blocks.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogJSON), 0644))
	cat, err := catalog.Load(path)
	require.NoError(t, err)
	return cat
}

func TestComputeAirBlockHasZeroMask(t *testing.T) {
	cat := loadTestCatalog(t)
	chunk := world.NewChunkData(vec.ChunkPos{})
	mask := Compute(cat, chunk, [6]*world.ChunkData{}, false, false)
	require.Equal(t, uint8(0), mask[vec.Local{X: 5, Y: 5, Z: 5}.Index()])
}

func TestComputeStoneSurroundedByAirShowsAllFaces(t *testing.T) {
	cat := loadTestCatalog(t)
	chunk := world.NewChunkData(vec.ChunkPos{})
	local := vec.Local{X: 8, Y: 8, Z: 8}
	chunk.SetBlock(local, catalog.BlockID(1))

	mask := Compute(cat, chunk, [6]*world.ChunkData{}, false, false)
	require.Equal(t, uint8(0b111111), mask[local.Index()])
}

func TestComputeStoneAdjacentToStoneHidesSharedFace(t *testing.T) {
	cat := loadTestCatalog(t)
	chunk := world.NewChunkData(vec.ChunkPos{})
	a := vec.Local{X: 8, Y: 8, Z: 8}
	b := vec.Local{X: 9, Y: 8, Z: 8} // east of a
	chunk.SetBlock(a, catalog.BlockID(1))
	chunk.SetBlock(b, catalog.BlockID(1))

	mask := Compute(cat, chunk, [6]*world.ChunkData{}, false, false)
	require.Zero(t, mask[a.Index()]&vec.DirEast.Bit())
	require.Zero(t, mask[b.Index()]&vec.DirWest.Bit())
}

func TestComputeSameIdentifierGlassHidesFaceUnlessDrawBetweens(t *testing.T) {
	cat := loadTestCatalog(t)
	chunk := world.NewChunkData(vec.ChunkPos{})
	a := vec.Local{X: 8, Y: 8, Z: 8}
	b := vec.Local{X: 9, Y: 8, Z: 8}
	chunk.SetBlock(a, catalog.BlockID(2))
	chunk.SetBlock(b, catalog.BlockID(2))

	mask := Compute(cat, chunk, [6]*world.ChunkData{}, false, false)
	require.Zero(t, mask[a.Index()]&vec.DirEast.Bit(), "same-identifier glass without draw_betweens should not draw the shared face")

	chunk.SetBlock(a, catalog.BlockID(3))
	chunk.SetBlock(b, catalog.BlockID(3))
	mask = Compute(cat, chunk, [6]*world.ChunkData{}, false, false)
	require.NotZero(t, mask[a.Index()]&vec.DirEast.Bit(), "draw_betweens should force the shared face to draw")
}

func TestComputeUnloadedNeighborRespectsEdgeFacesFlag(t *testing.T) {
	cat := loadTestCatalog(t)
	chunk := world.NewChunkData(vec.ChunkPos{})
	local := vec.Local{X: 15, Y: 8, Z: 8} // on the +X boundary
	chunk.SetBlock(local, catalog.BlockID(1))

	maskNoEdge := Compute(cat, chunk, [6]*world.ChunkData{}, true, false)
	require.Zero(t, maskNoEdge[local.Index()]&vec.DirEast.Bit())

	maskEdge := Compute(cat, chunk, [6]*world.ChunkData{}, true, true)
	require.NotZero(t, maskEdge[local.Index()]&vec.DirEast.Bit())
}

func TestComputeLoadedNeighborChunkConsulted(t *testing.T) {
	cat := loadTestCatalog(t)
	chunk := world.NewChunkData(vec.ChunkPos{X: 0})
	local := vec.Local{X: 15, Y: 8, Z: 8}
	chunk.SetBlock(local, catalog.BlockID(1))

	eastChunk := world.NewChunkData(vec.ChunkPos{X: 1})
	eastChunk.SetBlock(vec.Local{X: 0, Y: 8, Z: 8}, catalog.BlockID(1))

	var neighbors [6]*world.ChunkData
	neighbors[vec.DirEast] = eastChunk

	mask := Compute(cat, chunk, neighbors, false, false)
	require.Zero(t, mask[local.Index()]&vec.DirEast.Bit(), "stone against stone across a loaded chunk boundary hides the shared face")
}
