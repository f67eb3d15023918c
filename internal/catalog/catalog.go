// Package catalog implements the block-state catalog (C1): a read-only,
// frozen-after-load mapping from block id to its visual/physical
// properties. The catalog never mutates a resident block's definition;
// reloads swap in an entirely new frozen snapshot and emit a change
// signal so mesh caches can invalidate.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/brinkworld/voxelcore/internal/eventbus"
	"github.com/brinkworld/voxelcore/internal/logging"
	"github.com/brinkworld/voxelcore/internal/vec"
)

// BlockID is the wire/storage identifier for a block. 0 is reserved for air.
type BlockID uint32

// AirBlockID is the reserved empty-voxel id.
const AirBlockID BlockID = 0

// ChangedEvent is the eventbus topic published on initial load and again
// whenever the backing asset file changes.
const ChangedEvent = "catalog.changed"

// AtlasRect is a texture atlas sub-rectangle, copied verbatim from the
// (externally supplied) atlas index at load time — the core never holds
// a reference to the atlas image itself.
type AtlasRect struct {
	UMin float32 `json:"u_min"`
	UMax float32 `json:"u_max"`
	VMin float32 `json:"v_min"`
	VMax float32 `json:"v_max"`
}

// FaceDef describes one of a block's up-to-6 drawable faces.
type FaceDef struct {
	Corners   [4]vec.Vec3   `json:"corners"`
	Normal    vec.Vec3      `json:"normal"`
	Atlas     AtlasRect     `json:"atlas"`
	Direction vec.Direction `json:"direction"`
	Edge      bool          `json:"edge"`
	// Wind marks a foliage face that should carry a per-vertex wind
	// strength in the emitted mesh (grass, leaves).
	Wind bool `json:"wind"`
}

// Emission is a block's light-emission profile. Strength 0 means
// non-emissive; strength is clamped to [0,16] when the catalog is loaded.
type Emission struct {
	R        uint8 `json:"r"`
	G        uint8 `json:"g"`
	B        uint8 `json:"b"`
	Strength uint8 `json:"strength"`
}

// AABB is an axis-aligned bounding box local to a block's unit cube,
// used by the raycast and by placement-collision checks.
type AABB struct {
	Min vec.Vec3 `json:"min"`
	Max vec.Vec3 `json:"max"`
}

// Definition is one immutable catalog entry.
type Definition struct {
	ID            BlockID
	Identifier    string
	Translucent   bool
	Full          bool
	DrawBetweens  bool
	Faces         []FaceDef
	Emission      Emission
	BoundingBoxes []AABB
}

type jsonDefinition struct {
	ID            uint32    `json:"id"`
	Identifier    string    `json:"identifier"`
	Translucent   bool      `json:"translucent"`
	Full          bool      `json:"full"`
	DrawBetweens  bool      `json:"draw_betweens"`
	Faces         []FaceDef `json:"faces"`
	Emission      Emission  `json:"emission"`
	BoundingBoxes []AABB    `json:"bounding_boxes"`
}

// snapshot is the frozen state swapped in atomically on load/reload.
type snapshot struct {
	byID   map[BlockID]*Definition
	byName map[string]BlockID
}

// Catalog is the process-wide block-state catalog. The zero value is not
// usable; construct with Load.
type Catalog struct {
	current atomic.Pointer[snapshot]
	path    string
	watcher *fsnotify.Watcher
}

// Load reads a declarative block-states JSON asset and freezes the
// catalog. The asset is a JSON array of entries; air (id 0) is implicit
// and need not be listed.
func Load(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	snap, err := readSnapshot(path)
	if err != nil {
		return nil, err
	}
	c.current.Store(snap)
	eventbus.Publish(context.Background(), &eventbus.Envelope{
		ID:        uuid.NewString(),
		Source:    "catalog",
		EventType: ChangedEvent,
	})
	return c, nil
}

func readSnapshot(path string) (*snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var entries []jsonDefinition
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", path, err)
	}

	snap := &snapshot{
		byID:   make(map[BlockID]*Definition, len(entries)+1),
		byName: make(map[string]BlockID, len(entries)+1),
	}
	snap.byID[AirBlockID] = &Definition{ID: AirBlockID, Identifier: "core:air"}
	snap.byName["core:air"] = AirBlockID

	for _, e := range entries {
		id := BlockID(e.ID)
		if id == AirBlockID {
			return nil, fmt.Errorf("catalog: entry %q reuses reserved air id 0", e.Identifier)
		}
		def := &Definition{
			ID:            id,
			Identifier:    e.Identifier,
			Translucent:   e.Translucent,
			Full:          e.Full,
			DrawBetweens:  e.DrawBetweens,
			Faces:         e.Faces,
			Emission:      e.Emission,
			BoundingBoxes: e.BoundingBoxes,
		}
		if def.Emission.Strength > 16 {
			def.Emission.Strength = 16
		}
		snap.byID[id] = def
		snap.byName[e.Identifier] = id
	}
	return snap, nil
}

// Get returns the definition for id, or (nil, false) on a catalog miss —
// callers must treat a miss as non-fatal (spec error kind 4: render the
// fallback texture, log once).
func (c *Catalog) Get(id BlockID) (*Definition, bool) {
	snap := c.current.Load()
	def, ok := snap.byID[id]
	return def, ok
}

// LookupByIdentifier resolves a namespaced string key to its block id.
func (c *Catalog) LookupByIdentifier(identifier string) (BlockID, bool) {
	snap := c.current.Load()
	id, ok := snap.byName[identifier]
	return id, ok
}

// Watch starts an fsnotify watch on the backing asset file. On change it
// reloads and atomically swaps the snapshot, then republishes
// ChangedEvent so consumers (mesh cache, renderer) invalidate. Watch
// blocks until ctx is cancelled.
func (c *Catalog) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: create watcher: %w", err)
	}
	c.watcher = w
	if err := w.Add(c.path); err != nil {
		w.Close()
		return fmt.Errorf("catalog: watch %s: %w", c.path, err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				snap, err := readSnapshot(c.path)
				if err != nil {
					logging.Warnf("catalog: reload %s failed: %v", c.path, err)
					continue
				}
				c.current.Store(snap)
				eventbus.Publish(ctx, &eventbus.Envelope{
					ID:        uuid.NewString(),
					Source:    "catalog",
					EventType: ChangedEvent,
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logging.Warnf("catalog: watcher error: %v", err)
			}
		}
	}()
	return nil
}

// Close stops the watcher, if any.
func (c *Catalog) Close() error {
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}
