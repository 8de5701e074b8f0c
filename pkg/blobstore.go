package pkg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/co-intel-labs/labs-1.0/internal/cache"
	"github.com/co-intel-labs/labs-1.0/internal/config"
	"github.com/co-intel-labs/labs-1.0/internal/repositories"
	"github.com/co-intel-labs/labs-1.0/internal/repositories/memory"
	"github.com/co-intel-labs/labs-1.0/internal/repositories/postgres"
	redisblob "github.com/co-intel-labs/labs-1.0/internal/repositories/redis"
	s3blob "github.com/co-intel-labs/labs-1.0/internal/repositories/s3"
	"github.com/co-intel-labs/labs-1.0/internal/repositories/sqlite"
)

// Storage is the configured blob store. Close releases the driver and the
// optional cache connection.
type Storage struct {
	repositories.BlobStore
	cacheClient *redis.Client
}

func (s *Storage) Close() error {
	err := s.BlobStore.Close()
	if s.cacheClient != nil {
		err = errors.Join(err, s.cacheClient.Close())
	}
	return err
}

// NewBlobStore opens the driver selected by cfg.Storage.Driver. The remote
// drivers (postgres, s3) get a redis read-through cache when CACHE_REDIS_URL is set.
func NewBlobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Storage, error) {
	var (
		backend   repositories.BlobStore
		cacheable bool
	)

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		backend = memory.NewBlobMemory()
	case config.DriverSQLite:
		store, err := sqlite.NewBlobSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		backend = store
	case config.DriverRedis:
		client, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		backend = redisblob.NewBlobRedis(client, cfg.Storage.KeyPrefix)
	case config.DriverPostgres:
		db, err := InitDatabase(cfg)
		if err != nil {
			return nil, err
		}
		store, err := postgres.NewBlobPostgreSQL(ctx, db)
		if err != nil {
			return nil, err
		}
		backend, cacheable = store, true
	case config.DriverS3:
		store, err := s3blob.NewBlobS3(ctx, s3blob.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			Prefix:    cfg.S3.Prefix,
			PathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		backend, cacheable = store, true
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	logger.Info("Blob store opened", "driver", cfg.Storage.Driver)

	if !cacheable || cfg.CacheRedisURL == "" {
		return &Storage{BlobStore: backend}, nil
	}

	client, err := NewRedisClient(ctx, cfg.CacheRedisURL)
	if err != nil {
		// The cache is optional; run against the backend alone.
		logger.Warn("Blob cache disabled", "error", err)
		return &Storage{BlobStore: backend}, nil
	}

	logger.Info("Blob cache enabled", "ttl", cache.BlobCacheConfig.TTL.String())
	return &Storage{
		BlobStore:   newCachedBlobStore(backend, client, cfg.Storage.KeyPrefix),
		cacheClient: client,
	}, nil
}

// newCachedBlobStore fronts backend with the redis cache. Cache keys are the
// storage key prefix, then the blob cache prefix, then the collection name.
func newCachedBlobStore(backend repositories.BlobStore, client *redis.Client, keyPrefix string) *cache.CachedBlobStore {
	helper := cache.NewCacheHelper(client, keyPrefix+cache.BlobCacheConfig.Prefix)
	return cache.NewCachedBlobStore(backend, helper, cache.BlobCacheConfig)
}
