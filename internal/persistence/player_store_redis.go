package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisPlayerRepo is a PlayerRepo backed by Redis, generalized from
// internal/storage/redis_position_repo.go's RedisPositionRepository.
// Unlike that repo's position cache (TTL'd, write-behind batched — a
// hot, lossy view of where a player last was), a player's save is the
// only durable copy of their inventory between sessions, so this repo
// writes synchronously on Save and carries no TTL.
type RedisPlayerRepo struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisPlayerRepo connects to addr/db and verifies the connection
// with a Ping.
func NewRedisPlayerRepo(addr, password string, db int) (*RedisPlayerRepo, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("persistence: connect to redis at %s: %w", addr, err)
	}
	return &RedisPlayerRepo{client: client, keyPrefix: "voxelcore:player:"}, nil
}

func (r *RedisPlayerRepo) key(userID uint64) string {
	return fmt.Sprintf("%s%d", r.keyPrefix, userID)
}

func (r *RedisPlayerRepo) Save(ctx context.Context, userID uint64, rec PlayerRecord) error {
	data, err := json.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("persistence: encode player %d: %w", userID, err)
	}
	if err := r.client.Set(ctx, r.key(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("persistence: save player %d: %w", userID, err)
	}
	return nil
}

func (r *RedisPlayerRepo) Load(ctx context.Context, userID uint64) (PlayerRecord, bool, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if err == redis.Nil {
		return PlayerRecord{}, false, nil
	}
	if err != nil {
		return PlayerRecord{}, false, fmt.Errorf("persistence: load player %d: %w", userID, err)
	}
	var rec PlayerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return PlayerRecord{}, false, fmt.Errorf("persistence: decode player %d: %w", userID, err)
	}
	return rec, true, nil
}

func (r *RedisPlayerRepo) Delete(ctx context.Context, userID uint64) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("persistence: delete player %d: %w", userID, err)
	}
	return nil
}

func (r *RedisPlayerRepo) Close() error { return r.client.Close() }
