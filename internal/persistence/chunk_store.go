// Package persistence gives the voxel world durable storage: a
// BadgerDB-backed chunk store keyed by chunk coordinate, and a
// pluggable player repository (badger, or any of the backends
// internal/storage already implements) for saved position, rotation
// and inventory. Grounded on internal/storage/world_storage.go's
// BadgerDB-backed WorldStorage, generalized from a sparse per-block
// delta map to the dense per-chunk block array world.ChunkData keeps,
// and on internal/storage/position_repo.go's PositionRepo interface,
// generalized from a 2D position+layer to a full Transform.
package persistence

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"

	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

// ChunkStore persists world.ChunkData to a BadgerDB database rooted at
// <dataPath>/world. Every chunk lives under its own key rather than its
// own file — Badger's LSM tree is the on-disk equivalent of the
// "<hex coord>.chunk" layout without one file per chunk.
type ChunkStore struct {
	db *badger.DB
}

// NewChunkStore opens (creating if absent) the chunk database under
// dataPath.
func NewChunkStore(dataPath string) (*ChunkStore, error) {
	opts := badger.DefaultOptions(filepath.Join(dataPath, "world"))
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("persistence: open chunk store: %w", err)
	}
	return &ChunkStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *ChunkStore) Close() error { return s.db.Close() }

// chunkKey encodes pos as a fixed-width big-endian byte key so lexical
// (hence Badger iteration) order matches coordinate order for
// non-negative coordinates; a negative coordinate, stored as its uint32
// bit pattern, sorts after every non-negative one on that axis.
func chunkKey(pos vec.ChunkPos) []byte {
	key := make([]byte, 6+12)
	copy(key, "chunk:")
	binary.BigEndian.PutUint32(key[6:10], uint32(pos.X))
	binary.BigEndian.PutUint32(key[10:14], uint32(pos.Y))
	binary.BigEndian.PutUint32(key[14:18], uint32(pos.Z))
	return key
}

// chunkRecord is a chunk's on-disk representation: just enough to
// reconstruct a world.ChunkData without rerunning worldgen or lighting.
type chunkRecord struct {
	Blocks []catalog.BlockID `json:"blocks,omitempty"`
	Stage  world.GenStage    `json:"stage"`
	Flags  world.ChunkFlags  `json:"flags"`
}

// Save persists chunk if it has unflushed changes; a clean chunk is a
// no-op, mirroring WorldStorage.SaveChunk's early-out on an unchanged
// chunk. On success the chunk's dirty bit is cleared.
func (s *ChunkStore) Save(chunk *world.ChunkData) error {
	if !chunk.IsDirty() {
		return nil
	}

	rec := chunkRecord{
		Blocks: chunk.Blocks(),
		Stage:  chunk.Stage,
		Flags:  chunk.Flags,
	}
	data, err := json.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("persistence: encode chunk %+v: %w", chunk.Position, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(chunk.Position), data)
	})
	if err != nil {
		return fmt.Errorf("persistence: save chunk %+v: %w", chunk.Position, err)
	}

	chunk.ClearDirty()
	return nil
}

// Load returns the chunk previously saved at pos. The second return is
// false (with a nil error) if nothing has ever been saved there — the
// caller should run worldgen for a first visit, not treat it as a
// failure.
func (s *ChunkStore) Load(pos vec.ChunkPos) (*world.ChunkData, bool, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(pos))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("persistence: load chunk %+v: %w", pos, err)
	}

	var rec chunkRecord
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return nil, false, fmt.Errorf("persistence: decode chunk %+v: %w", pos, err)
	}

	chunk := world.NewChunkData(pos)
	chunk.RestoreBlocks(rec.Blocks, rec.Stage, rec.Flags)
	chunk.ClearDirty()
	return chunk, true, nil
}

// chunkPosFromKey decodes a key produced by chunkKey back into a
// vec.ChunkPos; used by ForEach, which only has the raw key bytes to
// work from.
func chunkPosFromKey(key []byte) vec.ChunkPos {
	return vec.ChunkPos{
		X: int32(binary.BigEndian.Uint32(key[6:10])),
		Y: int32(binary.BigEndian.Uint32(key[10:14])),
		Z: int32(binary.BigEndian.Uint32(key[14:18])),
	}
}

// ForEach walks every persisted chunk in key order (see chunkKey), decoding
// each and calling fn. Used by cmd/worldtool for offline inspection —
// the live server never needs to enumerate the whole store at once.
func (s *ChunkStore) ForEach(fn func(pos vec.ChunkPos, chunk *world.ChunkData) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("chunk:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			pos := chunkPosFromKey(item.Key())

			var rec chunkRecord
			err := item.Value(func(val []byte) error {
				return json.NewDecoder(bytes.NewReader(val)).Decode(&rec)
			})
			if err != nil {
				return fmt.Errorf("persistence: decode chunk %+v: %w", pos, err)
			}

			chunk := world.NewChunkData(pos)
			chunk.RestoreBlocks(rec.Blocks, rec.Stage, rec.Flags)
			chunk.ClearDirty()
			if err := fn(pos, chunk); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadOrGenerate returns the persisted chunk at pos, or calls generate
// to build a fresh one (saving it immediately, as worldgen output is
// never regenerated for free once written) if nothing was ever saved
// there. The chunk is saved at whatever stage generate leaves it
// (worldgen's Pipeline.Generate stops at StageDecorated); the caller's
// light/mesh pipeline still needs to run before the chunk is StageReady.
func (s *ChunkStore) LoadOrGenerate(pos vec.ChunkPos, generate func(vec.ChunkPos) *world.ChunkData) (*world.ChunkData, error) {
	chunk, ok, err := s.Load(pos)
	if err != nil {
		return nil, err
	}
	if ok {
		return chunk, nil
	}

	chunk = generate(pos)
	chunk.Dirty = true
	if err := s.Save(chunk); err != nil {
		return nil, err
	}
	return chunk, nil
}
