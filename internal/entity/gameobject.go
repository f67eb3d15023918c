// Package entity holds the world-object model shared by the network and
// persistence layers: players and item drops, addressed by the same
// GameObjectID the chunk store uses to bind objects to chunks.
package entity

import (
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

// Transform is an object's position and orientation.
type Transform struct {
	Pos vec.Vec3
	Rot vec.Quat
}

// Kind distinguishes the GameObjectData variant a GameObject carries.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindItemDrop
)

// GameObjectData is implemented by PlayerData and ItemDropData.
type GameObjectData interface {
	Kind() Kind
}

// ItemStack mirrors protocol.ItemStack; kept separate so this package
// doesn't import protocol for a two-field value type.
type ItemStack struct {
	ItemID uint32
	Count  uint16
}

// InventorySlots is the fixed hotbar+inventory size, matching
// protocol.InventorySlotCount.
const InventorySlots = 10

// PlayerData is a connected player's session-scoped state.
type PlayerData struct {
	Username  string
	Inventory [InventorySlots]ItemStack
}

func (PlayerData) Kind() Kind { return KindPlayer }

// ItemDropData is a world-resident dropped item stack.
type ItemDropData struct {
	Item ItemStack
}

func (ItemDropData) Kind() Kind { return KindItemDrop }

// GameObject is any object bound into the chunk store: a player or a
// dropped item stack.
type GameObject struct {
	ID        world.GameObjectID
	Transform Transform
	Data      GameObjectData
}

// Player returns o's PlayerData and whether o is a player.
func (o *GameObject) Player() (PlayerData, bool) {
	p, ok := o.Data.(PlayerData)
	return p, ok
}

// ItemDrop returns o's ItemDropData and whether o is an item drop.
func (o *GameObject) ItemDrop() (ItemDropData, bool) {
	d, ok := o.Data.(ItemDropData)
	return d, ok
}
