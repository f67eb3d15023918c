package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brinkworld/voxelcore/internal/protocol"
)

func sampleFullChunk() protocol.FullChunkUpdate {
	var full protocol.FullChunkUpdate
	full.X, full.Y, full.Z = 3, -1, 7
	for i := range full.Data {
		full.Data[i] = uint32(i % 5)
	}
	return full
}

func TestSplitThenAddReassemblesFullChunk(t *testing.T) {
	full := sampleFullChunk()
	parts := Split(42, full)
	require.Len(t, parts, protocol.PartialChunkParts)

	a := NewPartialAssembler(time.Minute)
	var got protocol.FullChunkUpdate
	var ok bool
	for _, p := range parts {
		got, ok = a.Add(p)
	}
	require.True(t, ok)
	require.Equal(t, full, got)
}

func TestAddIsIncompleteUntilLastPart(t *testing.T) {
	full := sampleFullChunk()
	parts := Split(7, full)

	a := NewPartialAssembler(time.Minute)
	for _, p := range parts[:len(parts)-1] {
		_, ok := a.Add(p)
		require.False(t, ok)
	}
	_, ok := a.Add(parts[len(parts)-1])
	require.True(t, ok)
}

func TestAddDuplicatePartDoesNotDoubleCount(t *testing.T) {
	full := sampleFullChunk()
	parts := Split(1, full)

	a := NewPartialAssembler(time.Minute)
	_, ok := a.Add(parts[0])
	require.False(t, ok)
	_, ok = a.Add(parts[0])
	require.False(t, ok)

	var last bool
	for _, p := range parts[1:] {
		_, last = a.Add(p)
	}
	require.True(t, last)
}

func TestAddOutOfRangePartIsIgnored(t *testing.T) {
	a := NewPartialAssembler(time.Minute)
	bad := protocol.PartialChunkUpdate{ID: 1, Part: protocol.PartialChunkParts + 5}
	_, ok := a.Add(bad)
	require.False(t, ok)
}

func TestSweepStaleEvictsOldTransfersOnly(t *testing.T) {
	a := NewPartialAssembler(0)
	full := sampleFullChunk()
	parts := Split(9, full)

	_, ok := a.Add(parts[0])
	require.False(t, ok)

	evicted := a.SweepStale()
	require.Equal(t, 1, evicted)

	_, ok = a.Add(parts[1])
	require.False(t, ok, "transfer should have been evicted and restarted, not completed")
}

func TestTwoConcurrentTransfersDoNotInterfere(t *testing.T) {
	a := NewPartialAssembler(time.Minute)
	fullA := sampleFullChunk()
	fullB := protocol.FullChunkUpdate{X: 100, Y: 200, Z: 300}
	for i := range fullB.Data {
		fullB.Data[i] = uint32(i)
	}

	partsA := Split(1, fullA)
	partsB := Split(2, fullB)

	var gotA, gotB protocol.FullChunkUpdate
	for i := 0; i < len(partsA); i++ {
		if res, ok := a.Add(partsA[i]); ok {
			gotA = res
		}
		if res, ok := a.Add(partsB[i]); ok {
			gotB = res
		}
	}

	require.Equal(t, fullA, gotA)
	require.Equal(t, fullB, gotB)
}
