package mesh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
	"github.com/brinkworld/voxelcore/internal/world/culling"
)

const meshTestCatalogJSON = `[
  {
    "id": 1,
    "identifier": "core:stone",
    "full": true,
    "faces": [
      {"direction": 0, "corners": [{"x":0,"y":1,"z":0},{"x":1,"y":1,"z":0},{"x":1,"y":1,"z":1},{"x":0,"y":1,"z":1}], "normal": {"x":0,"y":1,"z":0}, "atlas": {"u_min":0,"u_max":1,"v_min":0,"v_max":1}},
      {"direction": 1, "corners": [{"x":0,"y":0,"z":0},{"x":1,"y":0,"z":0},{"x":1,"y":0,"z":1},{"x":0,"y":0,"z":1}], "normal": {"x":0,"y":-1,"z":0}, "atlas": {"u_min":0,"u_max":1,"v_min":0,"v_max":1}}
    ]
  },
  {
    "id": 2,
    "identifier": "core:grass_blades",
    "translucent": true,
    "faces": [
      {"direction": 4, "corners": [{"x":0,"y":0,"z":0},{"x":0,"y":0,"z":1},{"x":0,"y":1,"z":1},{"x":0,"y":1,"z":0}], "normal": {"x":-1,"y":0,"z":0}, "atlas": {"u_min":0,"u_max":1,"v_min":0,"v_max":1}, "wind": true}
    ]
  }
]`

func loadMeshTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blocks.json")
	require.NoError(t, os.WriteFile(path, []byte(meshTestCatalogJSON), 0644))
	cat, err := catalog.Load(path)
	require.NoError(t, err)
	return cat
}

func TestBuildEmptyChunkProducesNoVertices(t *testing.T) {
	cat := loadMeshTestCatalog(t)
	chunk := world.NewChunkData(vec.ChunkPos{})
	mask := &culling.Mask{}

	buf := Build(cat, chunk, mask, [6]*world.ChunkData{})
	require.Empty(t, buf.OpaqueVertices)
	require.Empty(t, buf.TranslucentVertices)
}

func TestBuildEmitsOneQuadPerVisibleFace(t *testing.T) {
	cat := loadMeshTestCatalog(t)
	chunk := world.NewChunkData(vec.ChunkPos{})
	local := vec.Local{X: 8, Y: 8, Z: 8}
	chunk.SetBlock(local, catalog.BlockID(1))

	mask := culling.Compute(cat, chunk, [6]*world.ChunkData{}, false, false)
	buf := Build(cat, chunk, mask, [6]*world.ChunkData{})

	// Stone only declares Up/Down faces in this test catalog.
	require.Len(t, buf.OpaqueVertices, 8)
	require.Len(t, buf.OpaqueIndices, 12)
	require.Empty(t, buf.TranslucentVertices)
}

func TestBuildRoutesTranslucentFacesToTheirOwnBuffer(t *testing.T) {
	cat := loadMeshTestCatalog(t)
	chunk := world.NewChunkData(vec.ChunkPos{})
	local := vec.Local{X: 8, Y: 8, Z: 8}
	chunk.SetBlock(local, catalog.BlockID(2))

	mask := culling.Compute(cat, chunk, [6]*world.ChunkData{}, false, false)
	buf := Build(cat, chunk, mask, [6]*world.ChunkData{})

	require.Empty(t, buf.OpaqueVertices)
	require.Len(t, buf.TranslucentVertices, 4)
	for _, v := range buf.TranslucentVertices {
		require.Equal(t, float32(1), v.WindStrength)
	}
}

func TestBuildSkipsFacesHiddenByMask(t *testing.T) {
	cat := loadMeshTestCatalog(t)
	chunk := world.NewChunkData(vec.ChunkPos{})
	a := vec.Local{X: 8, Y: 8, Z: 8}
	b := vec.Local{X: 8, Y: 9, Z: 8} // directly above a
	chunk.SetBlock(a, catalog.BlockID(1))
	chunk.SetBlock(b, catalog.BlockID(1))

	mask := culling.Compute(cat, chunk, [6]*world.ChunkData{}, false, false)
	buf := Build(cat, chunk, mask, [6]*world.ChunkData{})

	// a's Up face and b's Down face are both hidden by the stone-stone
	// contact, leaving 2 visible faces total (a's Down, b's Up).
	require.Len(t, buf.OpaqueVertices, 8)
}
