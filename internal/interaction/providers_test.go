package interaction

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

func alwaysSkipDestroy(catalog.BlockID, vec.BlockPos, *world.Store) (Verdict, catalog.BlockID) {
	return Skip, 0
}

func TestRunDestroyProvidersEmptyChainAllowsAndClearsToAir(t *testing.T) {
	allow, id := RunDestroyProviders(nil, catalog.BlockID(5), vec.BlockPos{}, nil)
	require.True(t, allow)
	require.Equal(t, catalog.AirBlockID, id)
}

func TestRunDestroyProvidersFirstNonSkipWins(t *testing.T) {
	providers := []DestroyProvider{
		alwaysSkipDestroy,
		func(catalog.BlockID, vec.BlockPos, *world.Store) (Verdict, catalog.BlockID) {
			return Replace, catalog.BlockID(9)
		},
		func(catalog.BlockID, vec.BlockPos, *world.Store) (Verdict, catalog.BlockID) {
			t.Fatal("must not reach a provider after a non-Skip verdict")
			return Skip, 0
		},
	}
	allow, id := RunDestroyProviders(providers, catalog.BlockID(5), vec.BlockPos{}, nil)
	require.True(t, allow)
	require.Equal(t, catalog.BlockID(9), id)
}

func TestRunDestroyProvidersPreventBlocksAndKeepsOriginalID(t *testing.T) {
	providers := []DestroyProvider{
		func(id catalog.BlockID, _ vec.BlockPos, _ *world.Store) (Verdict, catalog.BlockID) {
			return Prevent, 0
		},
	}
	allow, id := RunDestroyProviders(providers, catalog.BlockID(7), vec.BlockPos{}, nil)
	require.False(t, allow)
	require.Equal(t, catalog.BlockID(7), id)
}

func TestRunPlaceProvidersEmptyChainAllowsRequestedID(t *testing.T) {
	allow, id := RunPlaceProviders(nil, catalog.BlockID(3), vec.BlockPos{}, nil)
	require.True(t, allow)
	require.Equal(t, catalog.BlockID(3), id)
}

func TestRunPlaceProvidersReplaceSubstitutesID(t *testing.T) {
	providers := []PlaceProvider{
		func(catalog.BlockID, vec.BlockPos, *world.Store) (Verdict, catalog.BlockID) {
			return Replace, catalog.BlockID(42)
		},
	}
	allow, id := RunPlaceProviders(providers, catalog.BlockID(3), vec.BlockPos{}, nil)
	require.True(t, allow)
	require.Equal(t, catalog.BlockID(42), id)
}

func TestRunPlaceProvidersPreventResultsInAir(t *testing.T) {
	providers := []PlaceProvider{
		func(catalog.BlockID, vec.BlockPos, *world.Store) (Verdict, catalog.BlockID) {
			return Prevent, 0
		},
	}
	allow, id := RunPlaceProviders(providers, catalog.BlockID(3), vec.BlockPos{}, nil)
	require.False(t, allow)
	require.Equal(t, catalog.AirBlockID, id)
}

func TestRunPlaceProvidersSkipsAllFallThroughToAllow(t *testing.T) {
	providers := []PlaceProvider{
		func(catalog.BlockID, vec.BlockPos, *world.Store) (Verdict, catalog.BlockID) {
			return Skip, 0
		},
		func(catalog.BlockID, vec.BlockPos, *world.Store) (Verdict, catalog.BlockID) {
			return Skip, 0
		},
	}
	allow, id := RunPlaceProviders(providers, catalog.BlockID(11), vec.BlockPos{}, nil)
	require.True(t, allow)
	require.Equal(t, catalog.BlockID(11), id)
}
