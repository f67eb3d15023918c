// Package culling implements the viewable-direction computer (C3): for
// every voxel in a chunk, a 6-bit mask saying which of its axis-aligned
// faces should be drawn. Grounded on the original engine's
// ViewableDirection bitmask (Top/Bottom/Left/Right/Front/Back), remapped
// onto this engine's Up/Down/North/South/West/East direction set.
package culling

import (
	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/logging"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

// Mask is the per-chunk visibility output: one 6-bit face mask per
// voxel, indexed by vec.Local.Index().
type Mask [16 * 16 * 16]uint8

// Compute produces the visibility mask for chunk, consulting neighbors
// (indexed by vec.Direction, i.e. neighbors[vec.DirUp] is the chunk
// above) for voxels on the chunk's own boundary. When a needed neighbor
// chunk is absent, a boundary face is shown only if atEdge is true and
// the caller set edgeFaces — chunks flagged AtEdge must never be
// published Ready with edgeFaces false, since their true visibility is
// unknowable.
func Compute(cat *catalog.Catalog, chunk *world.ChunkData, neighbors [6]*world.ChunkData, atEdge, edgeFaces bool) *Mask {
	var mask Mask

	if chunk.IsEmpty() {
		return &mask
	}

	for x := uint8(0); x < vec.ChunkSize; x++ {
		for z := uint8(0); z < vec.ChunkSize; z++ {
			for y := uint8(0); y < vec.ChunkSize; y++ {
				local := vec.Local{X: x, Y: y, Z: z}
				self := chunk.Block(local)
				if self == catalog.AirBlockID {
					continue
				}
				selfDef, ok := cat.Get(self)
				if !ok {
					logging.Warnf("culling: unknown block id %d at %+v, treating as opaque", self, local)
					continue
				}

				var bits uint8
				for _, d := range vec.AllDirections {
					if faceVisible(cat, chunk, neighbors, local, d, selfDef, atEdge, edgeFaces) {
						bits |= d.Bit()
					}
				}
				mask[local.Index()] = bits
			}
		}
	}
	return &mask
}

func faceVisible(cat *catalog.Catalog, chunk *world.ChunkData, neighbors [6]*world.ChunkData, local vec.Local, d vec.Direction, selfDef *catalog.Definition, atEdge, edgeFaces bool) bool {
	neighborLocal, crosses := step(local, d)
	var neighborID catalog.BlockID
	if crosses {
		nc := neighbors[d]
		if nc == nil {
			return atEdge && edgeFaces
		}
		neighborID = nc.Block(neighborLocal)
	} else {
		neighborID = chunk.Block(neighborLocal)
	}

	if neighborID == catalog.AirBlockID {
		return true
	}

	neighborDef, ok := cat.Get(neighborID)
	if !ok {
		return false
	}

	if neighborDef.Translucent {
		if neighborDef.Identifier != selfDef.Identifier || selfDef.DrawBetweens {
			return true
		}
	}
	return !neighborDef.Full
}

// step returns the local position one voxel away from local in
// direction d, plus whether that step leaves the chunk (in which case
// the returned Local is wrapped to the neighboring chunk's own [0,15]
// range on the crossed axis).
func step(local vec.Local, d vec.Direction) (vec.Local, bool) {
	off := d.Offset()
	x, y, z := int(local.X)+int(off.X), int(local.Y)+int(off.Y), int(local.Z)+int(off.Z)

	crosses := x < 0 || x >= vec.ChunkSize || y < 0 || y >= vec.ChunkSize || z < 0 || z >= vec.ChunkSize
	wrap := func(v int) uint8 {
		if v < 0 {
			return vec.ChunkSize - 1
		}
		if v >= vec.ChunkSize {
			return 0
		}
		return uint8(v)
	}
	return vec.Local{X: wrap(x), Y: wrap(y), Z: wrap(z)}, crosses
}
