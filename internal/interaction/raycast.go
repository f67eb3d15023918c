// Package interaction implements the raycast-driven block targeting and
// destroy/place pipeline (C7): a DDA voxel walk, a 3D swept-AABB
// movement check, the destroy dwell state machine, and the
// destroy/place provider chain.
package interaction

import (
	"math"

	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

// Hit is the result of a successful Raycast.
type Hit struct {
	Pos      vec.BlockPos
	Face     vec.Direction
	Distance float64
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// axisBoundaryT is the distance, along a normalized direction component
// dirComp, from origin coordinate o to the near edge of the next voxel
// in the step direction — the DDA "initial boundary offset computed
// from the fractional part of the origin".
func axisBoundaryT(o, dirComp float64) float64 {
	if dirComp == 0 {
		return math.Inf(1)
	}
	if dirComp > 0 {
		frac := o - math.Floor(o)
		return (1 - frac) / dirComp
	}
	frac := o - math.Floor(o)
	if frac == 0 {
		frac = 1
	}
	return frac / -dirComp
}

func axisDeltaT(dirComp float64) float64 {
	if dirComp == 0 {
		return math.Inf(1)
	}
	return 1 / math.Abs(dirComp)
}

// faceFromStep returns the face a ray is seen to hit when the walk just
// advanced one voxel along axis (0=X, 1=Y, 2=Z) in direction stepSign —
// the face normal is the inverse of the step direction just taken.
func faceFromStep(axis int, stepSign float64) vec.Direction {
	switch axis {
	case 0:
		if stepSign > 0 {
			return vec.DirWest
		}
		return vec.DirEast
	case 1:
		if stepSign > 0 {
			return vec.DirDown
		}
		return vec.DirUp
	default:
		if stepSign > 0 {
			return vec.DirNorth
		}
		return vec.DirSouth
	}
}

// blockAt looks up the block at pos, treating an unloaded chunk as air
// (a raycast that outruns loaded terrain simply passes through).
func blockAt(store *world.Store, pos vec.BlockPos) catalog.BlockID {
	chunk, ok := store.Get(pos.Chunk())
	if !ok {
		return catalog.AirBlockID
	}
	return chunk.Block(pos.LocalPos())
}

// rayIntersectsAABB reports whether the ray (origin, dir) intersects the
// world-space box [boxMin, boxMax] at some non-negative parametric
// distance, via the standard slab test.
func rayIntersectsAABB(origin, dir, boxMin, boxMax vec.Vec3) bool {
	tMin, tMax := math.Inf(-1), math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		o, d, lo, hi := component(origin, axis), component(dir, axis), component(boxMin, axis), component(boxMax, axis)
		if d == 0 {
			if o < lo || o > hi {
				return false
			}
			continue
		}
		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return false
		}
	}
	return tMax >= 0
}

func component(v vec.Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// blockHit reports whether the ray at the given voxel should be
// considered a hit: a full block always stops the ray, a partial block
// stops it only if one of its bounding boxes is actually crossed.
func blockHit(def *catalog.Definition, voxel vec.BlockPos, origin, dir vec.Vec3) bool {
	if def.Full {
		return true
	}
	base := vec.Vec3{X: float64(voxel.X), Y: float64(voxel.Y), Z: float64(voxel.Z)}
	for _, box := range def.BoundingBoxes {
		if rayIntersectsAABB(origin, dir, base.Add(box.Min), base.Add(box.Max)) {
			return true
		}
	}
	return false
}

// Raycast walks voxels along dir from origin using the DDA algorithm:
// per-axis step sign, boundary offsets from the fractional part of
// origin, and per-axis deltas of 1/|dir_i|, always advancing the axis
// with the smallest accumulated t. It stops at the first nonzero block
// whose definition is full or whose bounding boxes the ray actually
// crosses, or once the walked distance exceeds maxDist.
func Raycast(origin, dir vec.Vec3, maxDist float64, store *world.Store, cat *catalog.Catalog) (Hit, bool) {
	dir = dir.Normalized()
	if dir.Length() == 0 {
		return Hit{}, false
	}

	voxel := origin.Floor()
	stepX, stepY, stepZ := sign(dir.X), sign(dir.Y), sign(dir.Z)
	tMaxX, tMaxY, tMaxZ := axisBoundaryT(origin.X, dir.X), axisBoundaryT(origin.Y, dir.Y), axisBoundaryT(origin.Z, dir.Z)
	tDeltaX, tDeltaY, tDeltaZ := axisDeltaT(dir.X), axisDeltaT(dir.Y), axisDeltaT(dir.Z)

	dist := 0.0
	axis, stepSign := -1, 0.0

	for dist <= maxDist {
		id := blockAt(store, voxel)
		if id != catalog.AirBlockID {
			if def, ok := cat.Get(id); ok && blockHit(def, voxel, origin, dir) {
				face := vec.DirUp
				if axis >= 0 {
					face = faceFromStep(axis, stepSign)
				}
				return Hit{Pos: voxel, Face: face, Distance: dist}, true
			}
		}

		switch {
		case tMaxX <= tMaxY && tMaxX <= tMaxZ:
			voxel.X += int32(stepX)
			dist = tMaxX
			tMaxX += tDeltaX
			axis, stepSign = 0, stepX
		case tMaxY <= tMaxZ:
			voxel.Y += int32(stepY)
			dist = tMaxY
			tMaxY += tDeltaY
			axis, stepSign = 1, stepY
		default:
			voxel.Z += int32(stepZ)
			dist = tMaxZ
			tMaxZ += tDeltaZ
			axis, stepSign = 2, stepZ
		}
	}
	return Hit{}, false
}
