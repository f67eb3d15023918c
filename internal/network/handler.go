package network

import (
	"context"
	"sync"
	"time"

	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/entity"
	"github.com/brinkworld/voxelcore/internal/interaction"
	"github.com/brinkworld/voxelcore/internal/logging"
	"github.com/brinkworld/voxelcore/internal/protocol"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

// ReachDistance is how far a player's raycast is allowed to travel
// when validating a destroy or place request, matching the default
// interaction range client-side aiming is tuned for.
const ReachDistance = 6.0

// Handler turns incoming packets into world/session mutations and
// drives the broadcasts every other connected client needs as a
// result — the single point SPEC_FULL.md's interaction and persistence
// layers plug into. Grounded on game_handler.go's
// type-switch dispatch held against a world.WorldManager reference,
// generalized from a string MsgType switch to protocol.Packet's own
// Go type.
type Handler struct {
	store  *world.Store
	server *Server
	logger *logging.Logger
	guard  *idempotentBlockGuard
	cat    *catalog.Catalog

	// DestroyProviders/PlaceProviders are consulted, in order, before
	// any destroy or place is applied to the world; an empty chain
	// allows every request a valid raycast produces.
	DestroyProviders []interaction.DestroyProvider
	PlaceProviders   []interaction.PlaceProvider

	trackersMu sync.Mutex
	trackers   map[world.GameObjectID]*interaction.DestroyTracker

	// now is the time source handleDestroy feeds into each session's
	// DestroyTracker; overridden in tests so dwell timing doesn't
	// depend on a real 800ms sleep.
	now func() time.Time

	// OnSpawn/OnDespawn let the persistence layer load/save a player's
	// position, rotation and inventory around a session's lifetime;
	// nil is a valid no-op default.
	OnSpawn   func(sess *Session)
	OnDespawn func(sess *Session)
}

// NewHandler constructs a Handler bound to store and able to broadcast
// through server (Server.Handler should be set to the result). cat
// resolves block definitions for raycasting; a nil cat disables
// destroy/place validation (every request is rejected, since no
// definition can ever be resolved to confirm a target).
func NewHandler(store *world.Store, server *Server, logger *logging.Logger, cat *catalog.Catalog) *Handler {
	return &Handler{
		store:    store,
		server:   server,
		logger:   logger,
		guard:    newIdempotentBlockGuard(),
		cat:      cat,
		trackers: make(map[world.GameObjectID]*interaction.DestroyTracker),
		now:      time.Now,
	}
}

func (h *Handler) trackerFor(id world.GameObjectID) *interaction.DestroyTracker {
	h.trackersMu.Lock()
	defer h.trackersMu.Unlock()
	t, ok := h.trackers[id]
	if !ok {
		t = interaction.NewDestroyTracker()
		h.trackers[id] = t
	}
	return t
}

// OnSessionStart spawns sess's GameObject and announces it to every
// other connected session.
func (h *Handler) OnSessionStart(sess *Session, data entity.PlayerData) {
	sess.SetData(data)
	h.store.BindObject(sess.ObjectID, vec.ChunkPos{})

	spawn := protocol.SpawnGameObject{
		ID:       uint64(sess.ObjectID),
		Kind:     protocol.ObjectKindPlayer,
		Username: data.Username,
	}
	h.server.Broadcast(context.Background(), spawn, sess.ObjectID)

	if h.OnSpawn != nil {
		h.OnSpawn(sess)
	}
}

// OnSessionEnd unbinds sess's GameObject and announces its departure.
func (h *Handler) OnSessionEnd(sess *Session) {
	if h.OnDespawn != nil {
		h.OnDespawn(sess)
	}
	h.store.UnbindObject(sess.ObjectID)
	h.server.Broadcast(context.Background(), protocol.DespawnGameObject{ID: uint64(sess.ObjectID)}, 0)

	h.trackersMu.Lock()
	delete(h.trackers, sess.ObjectID)
	h.trackersMu.Unlock()
}

// Dispatch routes one packet from sess.
func (h *Handler) Dispatch(sess *Session, pkt protocol.Packet) {
	switch p := pkt.(type) {
	case protocol.PlayerMove:
		h.handleMove(sess, p)
	case protocol.PlayerRotate:
		h.handleRotate(sess, p)
	case protocol.PlaceBlock:
		h.handlePlace(sess, p)
	case protocol.DestroyBlock:
		h.handleDestroy(sess, p)
	case protocol.BlockUpdate:
		h.handleBlockUpdate(sess, p)
	case protocol.AcknowledgeChunk:
		// Bookkeeping only: the chunk send scheduler (not yet wired)
		// will use this to bound each session's in-flight window.
	case protocol.ChatSent:
		h.server.Broadcast(context.Background(), p, 0)
	case protocol.Ping:
		sess.SendReliable(context.Background(), protocol.Pong{Code: p.Code})
	case protocol.Disconnect:
		// runSession's pump loop ends the session; nothing else to do.
	default:
		h.logger.Warn("session %d: unhandled packet tag %d", sess.ObjectID, pkt.Tag())
	}
}

func (h *Handler) handleMove(sess *Session, p protocol.PlayerMove) {
	t := sess.Transform()
	t.Pos = p.Pos
	sess.SetTransform(t)
	h.server.Broadcast(context.Background(), protocol.GameObjectMoved{ID: uint64(sess.ObjectID), Pos: p.Pos}, sess.ObjectID)
}

func (h *Handler) handleRotate(sess *Session, p protocol.PlayerRotate) {
	t := sess.Transform()
	t.Rot = p.Rot
	sess.SetTransform(t)
	h.server.Broadcast(context.Background(), protocol.GameObjectRotated{ID: uint64(sess.ObjectID), Rot: p.Rot}, sess.ObjectID)
}

// raycastHit runs sess's current raycast — from its last reported
// position along its last reported look direction, out to
// ReachDistance. A nil catalog (no block definitions resolvable) always
// misses, since blockHit can never be evaluated.
func (h *Handler) raycastHit(sess *Session) (interaction.Hit, bool) {
	if h.cat == nil {
		return interaction.Hit{}, false
	}
	t := sess.Transform()
	return interaction.Raycast(t.Pos, t.Rot.Forward(), ReachDistance, h.store, h.cat)
}

// targetedBlock reports whether sess's raycast lands on the solid block
// at pos — the check a destroy request must pass.
func (h *Handler) targetedBlock(sess *Session, pos vec.BlockPos) bool {
	hit, ok := h.raycastHit(sess)
	return ok && hit.Pos == pos
}

// targetedPlacementCell reports whether pos is the empty cell directly
// in front of sess's raycast hit — the face-adjacent cell a place
// request targets, since protocol.PlaceBlock carries a destination cell
// rather than the face of an existing block.
func (h *Handler) targetedPlacementCell(sess *Session, pos vec.BlockPos) bool {
	hit, ok := h.raycastHit(sess)
	return ok && hit.Pos.Neighbor(hit.Face) == pos
}

// handlePlace validates the requested cell against the session's own
// raycast, then a provider-chain check, before placing the item in the
// session's first inventory slot. protocol.PlaceBlock carries no item
// id of its own — see DESIGN.md's C6 Open Questions for why slot 0 is
// the bridge until a richer hotbar-selection packet exists.
func (h *Handler) handlePlace(sess *Session, p protocol.PlaceBlock) {
	pos := vec.BlockPos{X: p.X, Y: p.Y, Z: p.Z}
	if !h.targetedPlacementCell(sess, pos) {
		return
	}
	data := sess.Data()
	if data.Inventory[0].Count == 0 {
		return
	}
	id := catalog.BlockID(data.Inventory[0].ItemID)
	allow, resultID := interaction.RunPlaceProviders(h.PlaceProviders, id, pos, h.store)
	if !allow {
		return
	}
	h.applyBlockUpdate(pos, resultID, h.now())
}

// handleDestroy re-validates the client's destroy request: the target
// must be within the session's own raycast reach, and the session's
// DestroyTracker must independently confirm DestroyDwell of continuous
// targeting — the client's own dwell timer is advisory only, per
// protocol.DestroyBlock's doc comment. A client that sends DestroyBlock
// once per tick while the button is held drives the tracker the same
// way a continuous client-side aim update would; one that sends it
// only once never accumulates enough dwell to fire.
func (h *Handler) handleDestroy(sess *Session, p protocol.DestroyBlock) {
	pos := vec.BlockPos{X: p.X, Y: p.Y, Z: p.Z}
	if !h.targetedBlock(sess, pos) {
		return
	}

	tracker := h.trackerFor(sess.ObjectID)
	fired, target := tracker.Update(true, &pos, h.now())
	if !fired {
		return
	}

	chunk, ok := h.store.Get(target.Chunk())
	if !ok {
		return
	}
	id := chunk.Block(target.LocalPos())

	allow, resultID := interaction.RunDestroyProviders(h.DestroyProviders, id, target, h.store)
	if !allow {
		return
	}
	h.applyBlockUpdate(target, resultID, h.now())
}

// handleBlockUpdate accepts a client-asserted update (e.g. a
// reconnect replaying its last unacked writes) only if it isn't
// superseded by a later write already applied to the same position.
func (h *Handler) handleBlockUpdate(sess *Session, p protocol.BlockUpdate) {
	h.applyBlockUpdate(vec.BlockPos{X: p.X, Y: p.Y, Z: p.Z}, catalog.BlockID(p.ID), h.now())
}

func (h *Handler) applyBlockUpdate(pos vec.BlockPos, id catalog.BlockID, at time.Time) {
	if !h.guard.Accept(pos, uint32(id), at) {
		return
	}
	if err := h.store.SetBlock(pos, id); err != nil {
		h.logger.Warn("set block %v: %v", pos, err)
		return
	}
	h.server.Broadcast(context.Background(), protocol.BlockUpdate{X: pos.X, Y: pos.Y, Z: pos.Z, ID: uint32(id)}, 0)
}
