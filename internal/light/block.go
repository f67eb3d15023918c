// Package light implements the block-light and sky-light propagation
// engine (C4): breadth-first flood fill from emissive voxels and from
// each column's sky-exposed surface, combined with an ambient floor
// into the per-voxel LightSample field the mesh builder samples.
//
// Grounded on the original engine's per-chunk BFS flood
// (services/chunk/builder/lighting.rs, systems/chunk/builder/skylight.rs),
// generalized from a single always-resident chunk array to the
// streamed, partially-loaded 3x3x3 chunk-neighborhood this engine's
// chunk store provides.
package light

import (
	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

const size = vec.ChunkSize

// rel is a voxel coordinate relative to the center chunk's own origin.
// Components range over roughly [-MaxLight, ChunkSize+MaxLight), but
// since MaxLight == ChunkSize a flood never crosses more than one
// chunk step away on any axis.
type rel struct{ x, y, z int }

func (r rel) step(o vec.BlockPos) rel {
	return rel{r.x + int(o.X), r.y + int(o.Y), r.z + int(o.Z)}
}

// inCenter reports whether p falls inside the center chunk's own
// bounds, and if so its Local.
func (r rel) inCenter() (vec.Local, bool) {
	if r.x < 0 || r.x >= size || r.y < 0 || r.y >= size || r.z < 0 || r.z >= size {
		return vec.Local{}, false
	}
	return vec.Local{X: uint8(r.x), Y: uint8(r.y), Z: uint8(r.z)}, true
}

func split(v int) (chunkOff int32, local int32) {
	if v < 0 {
		return -1, int32(v + size)
	}
	if v >= size {
		return 1, int32(v - size)
	}
	return 0, int32(v)
}

// sample resolves the block id at a relative position, consulting
// center for (0,0,0) and neighbors (keyed by chunk coordinate) for
// every other reachable chunk. ok is false when the owning chunk isn't
// resident — the caller treats that as "no light beyond here".
func sample(centerPos vec.ChunkPos, center *world.ChunkData, neighbors map[vec.ChunkPos]*world.ChunkData, p rel) (catalog.BlockID, bool) {
	cox, lx := split(p.x)
	coy, ly := split(p.y)
	coz, lz := split(p.z)
	local := vec.Local{X: uint8(lx), Y: uint8(ly), Z: uint8(lz)}
	if cox == 0 && coy == 0 && coz == 0 {
		return center.Block(local), true
	}
	pos := vec.ChunkPos{X: centerPos.X + cox, Y: centerPos.Y + coy, Z: centerPos.Z + coz}
	nb, ok := neighbors[pos]
	if !ok {
		return 0, false
	}
	return nb.Block(local), true
}

// RGB is an additive RGB light contribution, combined later with sky
// light and the ambient floor.
type RGB struct{ R, G, B uint8 }

// source is one emitter's BFS result, restricted to cells inside the
// center chunk (the only cells the caller needs).
type source struct {
	origin    rel
	emission  catalog.Emission
	strengths map[int]uint8 // keyed by vec.Local.Index()
}

// PropagateBlockLight computes the block-light RGB field for center,
// flooding from every emissive voxel in center and its resident
// neighbors. Chunks absent from neighbors contribute no light, and the
// flood does not pass through them — the chunk will relight once loaded.
func PropagateBlockLight(cat *catalog.Catalog, centerPos vec.ChunkPos, center *world.ChunkData, neighbors map[vec.ChunkPos]*world.ChunkData) [size * size * size]RGB {
	var out [size * size * size]RGB

	sources := collectEmitters(cat, centerPos, center, neighbors)
	for i := range sources {
		floodOne(cat, centerPos, center, neighbors, &sources[i])
	}
	combine(sources, &out)
	return out
}

func collectEmitters(cat *catalog.Catalog, centerPos vec.ChunkPos, center *world.ChunkData, neighbors map[vec.ChunkPos]*world.ChunkData) []source {
	var sources []source

	scan := func(chunkOff rel, chunk *world.ChunkData) {
		if chunk == nil || chunk.IsEmpty() {
			return
		}
		for x := uint8(0); x < size; x++ {
			for y := uint8(0); y < size; y++ {
				for z := uint8(0); z < size; z++ {
					local := vec.Local{X: x, Y: y, Z: z}
					id := chunk.Block(local)
					if id == catalog.AirBlockID {
						continue
					}
					def, ok := cat.Get(id)
					if !ok || def.Emission.Strength == 0 {
						continue
					}
					sources = append(sources, source{
						origin:    rel{x: chunkOff.x + int(x), y: chunkOff.y + int(y), z: chunkOff.z + int(z)},
						emission:  def.Emission,
						strengths: make(map[int]uint8),
					})
				}
			}
		}
	}

	scan(rel{}, center)
	for pos, chunk := range neighbors {
		off := rel{x: int(pos.X-centerPos.X) * size, y: int(pos.Y-centerPos.Y) * size, z: int(pos.Z-centerPos.Z) * size}
		scan(off, chunk)
	}
	return sources
}

// floodOne runs the BFS flood for a single emitter, recording the
// strength reached at every center-chunk cell it touches. The emitter's
// own cell is always traversable regardless of its fullness; every
// other cell blocks the flood if its block is full.
func floodOne(cat *catalog.Catalog, centerPos vec.ChunkPos, center *world.ChunkData, neighbors map[vec.ChunkPos]*world.ChunkData, s *source) {
	type node struct {
		pos      rel
		strength uint8
	}
	visited := map[rel]bool{s.origin: true}
	queue := []node{{pos: s.origin, strength: s.emission.Strength}}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if local, ok := n.pos.inCenter(); ok {
			s.strengths[local.Index()] = n.strength
		}

		if n.strength <= 1 {
			continue
		}
		for _, d := range vec.AllDirections {
			np := n.pos.step(d.Offset())
			if visited[np] {
				continue
			}
			id, known := sample(centerPos, center, neighbors, np)
			if !known {
				continue
			}
			if def, ok := cat.Get(id); ok && def.Full {
				continue
			}
			visited[np] = true
			queue = append(queue, node{pos: np, strength: n.strength - 1})
		}
	}
}

// combine merges every source's per-cell strength into a final RGB,
// pre-normalizing each source's color contribution by its proportion of
// the total strength at that cell, scaled by the peak strength's
// fraction of MaxLight — so a single strong source dominates while
// several weak overlapping sources blend instead of saturating.
func combine(sources []source, out *[size * size * size]RGB) {
	for idx := 0; idx < size*size*size; idx++ {
		var total, peak float64
		for _, s := range sources {
			v := float64(s.strengths[idx])
			total += v
			if v > peak {
				peak = v
			}
		}
		if total == 0 {
			continue
		}
		var c RGB
		for _, s := range sources {
			v := float64(s.strengths[idx])
			if v == 0 {
				continue
			}
			scale := (v / total) * (peak / float64(world.MaxLight))
			c.R = addClamped(c.R, s.emission.R, scale)
			c.G = addClamped(c.G, s.emission.G, scale)
			c.B = addClamped(c.B, s.emission.B, scale)
		}
		out[idx] = c
	}
}

func addClamped(acc, channel uint8, scale float64) uint8 {
	v := int(acc) + int(float64(channel)*scale)
	if v > 255 {
		return 255
	}
	return uint8(v)
}
