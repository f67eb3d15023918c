package interaction

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brinkworld/voxelcore/internal/vec"
)

func TestCollisionPoints3DSubBlockColliderReturnsCenterOnly(t *testing.T) {
	c := NewBoxCollider3D(0.6, 0.9, 0.6)
	points := CollisionPoints3D(vec.Vec3{X: 1, Y: 2, Z: 3}, c)
	require.Len(t, points, 1)
	require.Equal(t, vec.Vec3{X: 1, Y: 2, Z: 3}, points[0])
}

func TestCollisionPoints3DLargeColliderReturnsCornersAndCenter(t *testing.T) {
	c := NewBoxCollider3D(1, 2, 1)
	points := CollisionPoints3D(vec.Vec3{}, c)
	require.Len(t, points, 9)

	var sawCorner, sawCenter bool
	for _, p := range points {
		if p == (vec.Vec3{}) {
			sawCenter = true
		}
		if p.X == 0.5 && p.Y == 1 && p.Z == 0.5 {
			sawCorner = true
		}
	}
	require.True(t, sawCorner)
	require.True(t, sawCenter)
}

func TestSweptAABBAllowsWhenEveryPointIsPassable(t *testing.T) {
	c := NewBoxCollider3D(0.6, 1.8, 0.6)
	ok := SweptAABB(vec.Vec3{X: 10, Y: 10, Z: 10}, c, func(vec.Vec3) bool { return true })
	require.True(t, ok)
}

func TestSweptAABBBlocksWhenAnySampleIsImpassable(t *testing.T) {
	c := NewBoxCollider3D(2, 2, 2)
	blocked := vec.Vec3{X: 1, Y: 1, Z: 1}
	ok := SweptAABB(vec.Vec3{}, c, func(p vec.Vec3) bool { return p != blocked })
	require.False(t, ok)
}

func TestSweptAABBChecksOnlyCenterForSubBlockCollider(t *testing.T) {
	c := NewBoxCollider3D(0.3, 0.3, 0.3)
	calls := 0
	ok := SweptAABB(vec.Vec3{X: 5, Y: 5, Z: 5}, c, func(vec.Vec3) bool {
		calls++
		return true
	})
	require.True(t, ok)
	require.Equal(t, 1, calls)
}
