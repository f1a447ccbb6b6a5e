package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"duomatch/pkg/platform/sentinel"
)

// Redis key prefix for registry snapshot blobs.
const redisKeyPrefix = "duomatch:"

// RedisAdapter stores snapshot blobs as plain Redis strings. Snapshots are
// small (a dating pool, not a firehose), so whole-blob SET/GET beats anything
// cleverer.
type RedisAdapter struct {
	client *redis.Client
}

// NewRedisAdapter wraps an externally managed client; the caller owns its
// lifecycle.
func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (a *RedisAdapter) Load(ctx context.Context, key string) ([]byte, error) {
	raw, err := a.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, errors.Join(sentinel.ErrUnavailable, err))
	}
	return raw, nil
}

func (a *RedisAdapter) Save(ctx context.Context, key string, value []byte) error {
	if err := a.client.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}
