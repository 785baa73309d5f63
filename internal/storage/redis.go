package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/artvinci/artvinci-go/pkg/redis"
)

type snapshotClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SnapshotKey(parts ...string) string
}

// RedisStore keeps the client snapshots in Redis, for kiosk or shared-device
// deployments where local files are unwanted.
type RedisStore struct {
	client snapshotClient
}

// NewRedisStore wraps an established Redis client.
func NewRedisStore(client *redisclient.Client) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.client.SnapshotKey(key))
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.client.SnapshotKey(key), value, 0)
}

func (r *RedisStore) Del(ctx context.Context, keys ...string) error {
	namespaced := make([]string, 0, len(keys))
	for _, key := range keys {
		namespaced = append(namespaced, r.client.SnapshotKey(key))
	}
	return r.client.Del(ctx, namespaced...)
}
