package interaction

import (
	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

// Verdict is a provider's answer for one candidate destroy or place.
type Verdict uint8

const (
	// Skip defers to the next provider in the chain.
	Skip Verdict = iota
	// Replace accepts the action but substitutes the resulting block id.
	Replace
	// Prevent rejects the action outright.
	Prevent
)

// DestroyProvider judges a pending destroy of the block id at pos,
// generalizing block.BlockBehavior.HandleInteraction's single-block-type
// callback into an ordered, block-agnostic predicate list: the first
// provider to return anything but Skip decides the outcome.
type DestroyProvider func(id catalog.BlockID, pos vec.BlockPos, store *world.Store) (Verdict, catalog.BlockID)

// PlaceProvider judges a pending placement of id at pos.
type PlaceProvider func(id catalog.BlockID, pos vec.BlockPos, store *world.Store) (Verdict, catalog.BlockID)

// RunDestroyProviders runs providers in order and returns whether the
// destroy is allowed and which block id should result — Air (0) unless
// a provider replaces it. An empty chain allows the destroy outright.
func RunDestroyProviders(providers []DestroyProvider, id catalog.BlockID, pos vec.BlockPos, store *world.Store) (allow bool, resultID catalog.BlockID) {
	for _, p := range providers {
		verdict, replacement := p(id, pos, store)
		switch verdict {
		case Skip:
			continue
		case Replace:
			return true, replacement
		case Prevent:
			return false, id
		}
	}
	return true, catalog.AirBlockID
}

// RunPlaceProviders runs providers in order and returns whether the
// placement is allowed and which block id should be placed — id unless
// a provider replaces it. An empty chain allows the placement outright.
func RunPlaceProviders(providers []PlaceProvider, id catalog.BlockID, pos vec.BlockPos, store *world.Store) (allow bool, resultID catalog.BlockID) {
	for _, p := range providers {
		verdict, replacement := p(id, pos, store)
		switch verdict {
		case Skip:
			continue
		case Replace:
			return true, replacement
		case Prevent:
			return false, catalog.AirBlockID
		}
	}
	return true, id
}
