package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brinkworld/voxelcore/internal/config"
	"github.com/brinkworld/voxelcore/internal/entity"
	"github.com/brinkworld/voxelcore/internal/vec"
)

func testRecord() PlayerRecord {
	rec := PlayerRecord{
		Pos: vec.Vec3{X: 1, Y: 2, Z: 3},
		Rot: vec.Quat{X: 0, Y: 0.7071, Z: 0, W: 0.7071},
	}
	rec.Inventory[0] = entity.ItemStack{ItemID: 5, Count: 10}
	return rec
}

func testPlayerRepos(t *testing.T) []PlayerRepo {
	t.Helper()
	badger, err := NewBadgerPlayerRepo(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { badger.Close() })
	return []PlayerRepo{badger, NewMemoryPlayerRepo()}
}

func TestPlayerRepoSaveAndLoadRoundTrips(t *testing.T) {
	ctx := context.Background()
	for _, repo := range testPlayerRepos(t) {
		rec := testRecord()
		require.NoError(t, repo.Save(ctx, 42, rec))

		loaded, ok, err := repo.Load(ctx, 42)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, rec, loaded)
	}
}

func TestPlayerRepoLoadMissingReportsNotFound(t *testing.T) {
	ctx := context.Background()
	for _, repo := range testPlayerRepos(t) {
		rec, ok, err := repo.Load(ctx, 999)
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, PlayerRecord{}, rec)
	}
}

func TestPlayerRepoDeleteRemovesRecord(t *testing.T) {
	ctx := context.Background()
	for _, repo := range testPlayerRepos(t) {
		require.NoError(t, repo.Save(ctx, 7, testRecord()))
		require.NoError(t, repo.Delete(ctx, 7))

		_, ok, err := repo.Load(ctx, 7)
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestNewPlayerRepoRejectsUnknownBackend(t *testing.T) {
	_, err := NewPlayerRepo(config.PersistenceConfig{Backend: "postgres", DataPath: t.TempDir()})
	require.Error(t, err)
}

func TestNewPlayerRepoDefaultsToBadger(t *testing.T) {
	repo, err := NewPlayerRepo(config.PersistenceConfig{DataPath: t.TempDir()})
	require.NoError(t, err)
	defer repo.Close()
	_, ok := repo.(*BadgerPlayerRepo)
	require.True(t, ok)
}

func TestNewPlayerRepoMemoryBackend(t *testing.T) {
	repo, err := NewPlayerRepo(config.PersistenceConfig{Backend: "memory"})
	require.NoError(t, err)
	defer repo.Close()
	_, ok := repo.(*MemoryPlayerRepo)
	require.True(t, ok)
}
