package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brinkworld/voxelcore/internal/vec"
)

func TestIdempotentBlockGuardAcceptsFirstWrite(t *testing.T) {
	g := newIdempotentBlockGuard()
	pos := vec.BlockPos{X: 1, Y: 2, Z: 3}
	require.True(t, g.Accept(pos, 5, time.Now()))
}

func TestIdempotentBlockGuardRejectsOlderReplay(t *testing.T) {
	g := newIdempotentBlockGuard()
	pos := vec.BlockPos{X: 1, Y: 2, Z: 3}
	now := time.Now()

	require.True(t, g.Accept(pos, 5, now))
	require.True(t, g.Accept(pos, 9, now.Add(time.Second)))

	require.False(t, g.Accept(pos, 5, now), "replay of the earlier write must lose")
}

func TestIdempotentBlockGuardRejectsEqualTimestamp(t *testing.T) {
	g := newIdempotentBlockGuard()
	pos := vec.BlockPos{X: 0, Y: 0, Z: 0}
	at := time.Now()

	require.True(t, g.Accept(pos, 1, at))
	require.False(t, g.Accept(pos, 2, at), "equal timestamp is not strictly after, so it must lose")
}

func TestIdempotentBlockGuardTracksPositionsIndependently(t *testing.T) {
	g := newIdempotentBlockGuard()
	now := time.Now()

	require.True(t, g.Accept(vec.BlockPos{X: 1}, 5, now))
	require.True(t, g.Accept(vec.BlockPos{X: 2}, 6, now))
}
