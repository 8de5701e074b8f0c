package pkg

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-intel-labs/labs-1.0/internal/config"
	"github.com/co-intel-labs/labs-1.0/internal/repositories/memory"
)

func TestNewBlobStore(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr bool
	}{
		{name: "memory", cfg: &config.Config{Storage: config.StorageConfig{Driver: config.DriverMemory}}},
		{name: "sqlite", cfg: &config.Config{Storage: config.StorageConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "labs.db")}}},
		{name: "unknown", cfg: &config.Config{Storage: config.StorageConfig{Driver: "tape"}}, wantErr: true},
		{name: "redis unreachable", cfg: &config.Config{Storage: config.StorageConfig{Driver: config.DriverRedis}, RedisURL: "redis://127.0.0.1:1/0"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, err := NewBlobStore(ctx, tt.cfg, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer storage.Close()

			require.NoError(t, storage.Save(ctx, "labs", []byte(`[]`)))
			got, err := storage.Load(ctx, "labs")
			require.NoError(t, err)
			assert.JSONEq(t, `[]`, string(got))
			assert.NoError(t, storage.Ping(ctx))
		})
	}
}

func TestNewCachedBlobStore_KeyLayout(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	backend := memory.NewBlobMemory()
	storage := newCachedBlobStore(backend, client, "labs:")

	require.NoError(t, storage.Save(ctx, "allocations", []byte(`[]`)))
	assert.True(t, mr.Exists("labs:blob:allocations"))
	assert.False(t, mr.Exists("labs:allocations"))

	got, err := backend.Load(ctx, "allocations")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(got))
}

func TestNewEventPublisher_InProcess(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher, err := NewEventPublisher(&config.Config{Kafka: config.KafkaConfig{Topic: "lab-events"}}, logger)
	require.NoError(t, err)
	assert.NoError(t, publisher.Close())
}
