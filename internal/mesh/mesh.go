// Package mesh implements the mesh builder (C5): transforms a chunk,
// its cached C3 visibility mask and its C4 light field into triangle
// vertex/index buffers split by material, plus the priority scheduler
// that runs builds on a bounded worker pool.
package mesh

import (
	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
	"github.com/brinkworld/voxelcore/internal/world/culling"
)

// Vertex is one emitted mesh vertex, matching the rendering interface's
// produced attribute set.
type Vertex struct {
	Position     [3]float32
	Normal       [3]float32
	UV           [2]float32
	Lighting     [4]float32
	WindStrength float32
}

// Buffers is a chunk's triangle-list mesh, split by material. Indices
// are into the matching Vertices slice.
type Buffers struct {
	OpaqueVertices      []Vertex
	OpaqueIndices       []uint32
	TranslucentVertices []Vertex
	TranslucentIndices  []uint32
}

func (b *Buffers) emit(translucent bool, corners [4]vec.Vec3, normal vec.Vec3, atlas catalog.AtlasRect, lighting [4]float32, wind float32) {
	verts := &b.OpaqueVertices
	idx := &b.OpaqueIndices
	if translucent {
		verts = &b.TranslucentVertices
		idx = &b.TranslucentIndices
	}

	base := uint32(len(*verts))
	uvs := [4][2]float32{
		{atlas.UMin, atlas.VMin},
		{atlas.UMax, atlas.VMin},
		{atlas.UMax, atlas.VMax},
		{atlas.UMin, atlas.VMax},
	}
	for i, c := range corners {
		*verts = append(*verts, Vertex{
			Position:     [3]float32{float32(c.X), float32(c.Y), float32(c.Z)},
			Normal:       [3]float32{float32(normal.X), float32(normal.Y), float32(normal.Z)},
			UV:           uvs[i],
			Lighting:     lighting,
			WindStrength: wind,
		})
	}
	*idx = append(*idx, base, base+1, base+2, base, base+2, base+3)
}

// Build transforms chunk into opaque/translucent vertex/index buffers.
// mask is the C3 visibility mask already computed for chunk. Each face
// is lit with the light sample of the voxel it faces: chunk's own light
// field inside the chunk, lightNeighbors[d]'s field across a chunk
// face — falling back to [0,0,0,0] when that neighbor chunk is nil (not
// resident).
//
// Iteration is x -> z -> y, then face direction in vec.AllDirections
// order, so that identical inputs always produce byte-identical output.
func Build(cat *catalog.Catalog, chunk *world.ChunkData, mask *culling.Mask, lightNeighbors [6]*world.ChunkData) *Buffers {
	buf := &Buffers{}
	if chunk.IsEmpty() {
		return buf
	}

	for x := uint8(0); x < vec.ChunkSize; x++ {
		for z := uint8(0); z < vec.ChunkSize; z++ {
			for y := uint8(0); y < vec.ChunkSize; y++ {
				local := vec.Local{X: x, Y: y, Z: z}
				id := chunk.Block(local)
				if id == catalog.AirBlockID {
					continue
				}
				bits := mask[local.Index()]
				if bits == 0 {
					continue
				}
				def, ok := cat.Get(id)
				if !ok {
					continue
				}
				for _, face := range def.Faces {
					if bits&face.Direction.Bit() == 0 {
						continue
					}
					lighting := sampleFaceLight(chunk, lightNeighbors, local, face.Direction)
					origin := vec.Vec3{X: float64(x), Y: float64(y), Z: float64(z)}
					corners := [4]vec.Vec3{
						origin.Add(face.Corners[0]),
						origin.Add(face.Corners[1]),
						origin.Add(face.Corners[2]),
						origin.Add(face.Corners[3]),
					}
					wind := float32(0)
					if face.Wind {
						wind = 1
					}
					buf.emit(def.Translucent, corners, face.Normal, face.Atlas, lighting, wind)
				}
			}
		}
	}
	return buf
}

// sampleFaceLight returns the lighting color to use for a face looking
// in direction d from local: the neighbor voxel's resolved light
// sample, falling back to [0,0,0,0] when that neighbor is in an
// unresident chunk.
func sampleFaceLight(chunk *world.ChunkData, neighbors [6]*world.ChunkData, local vec.Local, d vec.Direction) [4]float32 {
	off := d.Offset()
	nx, ny, nz := int(local.X)+int(off.X), int(local.Y)+int(off.Y), int(local.Z)+int(off.Z)

	if nx >= 0 && nx < vec.ChunkSize && ny >= 0 && ny < vec.ChunkSize && nz >= 0 && nz < vec.ChunkSize {
		s := chunk.LightAt(vec.Local{X: uint8(nx), Y: uint8(ny), Z: uint8(nz)})
		return lightToVec(s)
	}

	nb := neighbors[d]
	if nb == nil {
		return [4]float32{0, 0, 0, 0}
	}
	wrap := func(v int) uint8 {
		if v < 0 {
			return vec.ChunkSize - 1
		}
		if v >= vec.ChunkSize {
			return 0
		}
		return uint8(v)
	}
	s := nb.LightAt(vec.Local{X: wrap(nx), Y: wrap(ny), Z: wrap(nz)})
	return lightToVec(s)
}

func lightToVec(s world.LightSample) [4]float32 {
	return [4]float32{float32(s.R) / 255, float32(s.G) / 255, float32(s.B) / 255, float32(s.Skylight) / 255}
}
