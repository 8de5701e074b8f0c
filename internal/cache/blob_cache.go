package cache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/co-intel-labs/labs-1.0/internal/repositories"
)

// CachedBlobStore puts a redis read-through cache in front of a slower blob driver
// such as postgres or s3. Cache failures never fail the underlying operation.
type CachedBlobStore struct {
	backend repositories.BlobStore
	cache   *CacheHelper
	config  CacheConfig
}

func NewCachedBlobStore(backend repositories.BlobStore, helper *CacheHelper, config CacheConfig) *CachedBlobStore {
	return &CachedBlobStore{
		backend: backend,
		cache:   helper,
		config:  config,
	}
}

func (s *CachedBlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.cache.GetBytes(ctx, key)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		slog.InfoContext(ctx, "Cache get error, proceeding to backend", "error", err, "key", key)
	}

	data, err = s.backend.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	SafeSet(ctx, s.cache, key, data, s.config.TTL)
	return data, nil
}

func (s *CachedBlobStore) Save(ctx context.Context, key string, payload []byte) error {
	if err := s.backend.Save(ctx, key, payload); err != nil {
		// the backend may hold a different value now, so drop the cached one
		SafeDelete(ctx, s.cache, key)
		return err
	}

	SafeSet(ctx, s.cache, key, payload, s.config.TTL)
	return nil
}

func (s *CachedBlobStore) Delete(ctx context.Context, key string) error {
	SafeDelete(ctx, s.cache, key)
	return s.backend.Delete(ctx, key)
}

func (s *CachedBlobStore) Ping(ctx context.Context) error {
	if err := s.backend.Ping(ctx); err != nil {
		return err
	}
	if s.cache.Available() {
		return s.cache.HealthCheck(ctx)
	}
	return nil
}

func (s *CachedBlobStore) Close() error {
	return s.backend.Close()
}

var _ repositories.BlobStore = (*CachedBlobStore)(nil)
