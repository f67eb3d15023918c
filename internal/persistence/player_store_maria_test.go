package persistence_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brinkworld/voxelcore/internal/entity"
	"github.com/brinkworld/voxelcore/internal/persistence"
	"github.com/brinkworld/voxelcore/internal/vec"
)

// MariaDB has no in-process fake here (unlike badger/memory), so these
// tests need a reachable server named by VOXELCORE_TEST_MARIA_DSN and
// skip otherwise — there's no default DSN worth guessing at.
func newTestMariaPlayerRepo(t *testing.T) *persistence.MariaPlayerRepo {
	t.Helper()
	dsn := os.Getenv("VOXELCORE_TEST_MARIA_DSN")
	if dsn == "" {
		t.Skip("VOXELCORE_TEST_MARIA_DSN not set, skipping MariaDB-backed test")
	}
	repo, err := persistence.NewMariaPlayerRepo(dsn)
	if err != nil {
		t.Skipf("MariaDB not available, skipping test: %v", err)
	}
	return repo
}

func TestMariaPlayerRepoSaveAndLoadRoundTrips(t *testing.T) {
	repo := newTestMariaPlayerRepo(t)
	defer repo.Close()
	ctx := context.Background()

	rec := persistence.PlayerRecord{
		Pos: vec.Vec3{X: 7, Y: 8, Z: 9},
		Rot: vec.Quat{W: 1},
	}
	rec.Inventory[1] = entity.ItemStack{ItemID: 3, Count: 1}

	require.NoError(t, repo.Save(ctx, 601, rec))
	defer repo.Delete(ctx, 601)

	loaded, ok, err := repo.Load(ctx, 601)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec, loaded)
}

func TestMariaPlayerRepoLoadMissingReportsNotFound(t *testing.T) {
	repo := newTestMariaPlayerRepo(t)
	defer repo.Close()
	ctx := context.Background()

	_, ok, err := repo.Load(ctx, 999999)
	require.NoError(t, err)
	require.False(t, ok)
}
