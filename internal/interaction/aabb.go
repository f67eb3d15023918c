package interaction

import "github.com/brinkworld/voxelcore/internal/vec"

// BoxCollider3D is an axis-aligned box collider sized in blocks,
// generalized from physics.BoxCollider's 2D width/height footprint into
// the full 3D body a player or item-drop entity occupies.
type BoxCollider3D struct {
	Width  float64
	Height float64
	Depth  float64
}

// NewBoxCollider3D constructs a collider of the given block-space size.
func NewBoxCollider3D(width, height, depth float64) *BoxCollider3D {
	return &BoxCollider3D{Width: width, Height: height, Depth: depth}
}

// CollisionPoints3D returns the sample points used to test a position
// for collision: the center alone for a sub-block collider, or the 8
// corners plus the center for anything larger — the 3D counterpart of
// physics.GetCollisionPoints's corners-plus-center sampling.
func CollisionPoints3D(pos vec.Vec3, c *BoxCollider3D) []vec.Vec3 {
	if c.Width <= 1 && c.Height <= 1 && c.Depth <= 1 {
		return []vec.Vec3{pos}
	}

	hw, hh, hd := c.Width/2, c.Height/2, c.Depth/2
	points := make([]vec.Vec3, 0, 9)
	for _, dx := range [2]float64{-hw, hw} {
		for _, dy := range [2]float64{-hh, hh} {
			for _, dz := range [2]float64{-hd, hd} {
				points = append(points, vec.Vec3{X: pos.X + dx, Y: pos.Y + dy, Z: pos.Z + dz})
			}
		}
	}
	points = append(points, pos)
	return points
}

// SweptAABB reports whether an entity with collider can occupy newPos,
// generalizing physics.CanMoveToPosition from a single-plane point
// check to a full 3D sample: passable reports whether the block at a
// given world point is safe to occupy.
func SweptAABB(newPos vec.Vec3, collider *BoxCollider3D, passable func(vec.Vec3) bool) bool {
	for _, point := range CollisionPoints3D(newPos, collider) {
		if !passable(point) {
			return false
		}
	}
	return true
}
