package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/co-intel-labs/labs-1.0/internal/repositories"
)

// BlobRedis stores blobs as plain string values under a key prefix, without expiry.
type BlobRedis struct {
	client *redis.Client
	prefix string
}

func NewBlobRedis(client *redis.Client, prefix string) *BlobRedis {
	return &BlobRedis{client: client, prefix: prefix}
}

func (r *BlobRedis) key(key string) string {
	return fmt.Sprintf("%s%s", r.prefix, key)
}

func (r *BlobRedis) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repositories.ErrBlobNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (r *BlobRedis) Save(ctx context.Context, key string, payload []byte) error {
	if err := r.client.Set(ctx, r.key(key), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *BlobRedis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *BlobRedis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *BlobRedis) Close() error {
	return r.client.Close()
}

var _ repositories.BlobStore = (*BlobRedis)(nil)
