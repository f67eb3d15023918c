package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brinkworld/voxelcore/internal/entity"
	"github.com/brinkworld/voxelcore/internal/persistence"
	"github.com/brinkworld/voxelcore/internal/vec"
)

// Mirrors internal/cache/cache_external_test.go's approach: attempt the
// real connection and skip rather than fail when no Redis is reachable,
// since this repo has no in-memory fake to substitute.
func newTestRedisPlayerRepo(t *testing.T) *persistence.RedisPlayerRepo {
	t.Helper()
	repo, err := persistence.NewRedisPlayerRepo("localhost:6379", "", 0)
	if err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	return repo
}

func TestRedisPlayerRepoSaveAndLoadRoundTrips(t *testing.T) {
	repo := newTestRedisPlayerRepo(t)
	defer repo.Close()
	ctx := context.Background()

	rec := persistence.PlayerRecord{
		Pos: vec.Vec3{X: 4, Y: 5, Z: 6},
		Rot: vec.Quat{W: 1},
	}
	rec.Inventory[3] = entity.ItemStack{ItemID: 9, Count: 2}

	require.NoError(t, repo.Save(ctx, 501, rec))
	defer repo.Delete(ctx, 501)

	loaded, ok, err := repo.Load(ctx, 501)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec, loaded)
}

func TestRedisPlayerRepoLoadMissingReportsNotFound(t *testing.T) {
	repo := newTestRedisPlayerRepo(t)
	defer repo.Close()
	ctx := context.Background()

	_, ok, err := repo.Load(ctx, 999999)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisPlayerRepoDeleteRemovesRecord(t *testing.T) {
	repo := newTestRedisPlayerRepo(t)
	defer repo.Close()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, 502, persistence.PlayerRecord{Pos: vec.Vec3{X: 1}}))
	require.NoError(t, repo.Delete(ctx, 502))

	_, ok, err := repo.Load(ctx, 502)
	require.NoError(t, err)
	require.False(t, ok)
}
