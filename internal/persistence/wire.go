package persistence

import (
	"context"

	"github.com/brinkworld/voxelcore/internal/entity"
	"github.com/brinkworld/voxelcore/internal/network"
	"github.com/brinkworld/voxelcore/internal/world"
)

// WireHandler installs repo's load/save around h's session lifecycle:
// a session's saved position, rotation and inventory are restored on
// OnSpawn (re-binding it into the chunk it last occupied), and written
// back on OnDespawn. A session's GameObjectID doubles as its durable
// account id (network.authenticate mints it straight from the
// authenticated JWT's subject), so it is also repo's lookup key.
func WireHandler(h *network.Handler, store *world.Store, repo PlayerRepo) {
	h.OnSpawn = func(sess *network.Session) {
		userID := uint64(sess.ObjectID)
		rec, ok, err := repo.Load(context.Background(), userID)
		if err != nil || !ok {
			return
		}

		sess.SetTransform(entity.Transform{Pos: rec.Pos, Rot: rec.Rot})

		data := sess.Data()
		data.Inventory = rec.Inventory
		sess.SetData(data)

		store.BindObject(sess.ObjectID, rec.Pos.Floor().Chunk())
	}

	h.OnDespawn = func(sess *network.Session) {
		t := sess.Transform()
		data := sess.Data()
		rec := PlayerRecord{Pos: t.Pos, Rot: t.Rot, Inventory: data.Inventory}
		_ = repo.Save(context.Background(), uint64(sess.ObjectID), rec)
	}
}
