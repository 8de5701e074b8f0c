package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-intel-labs/labs-1.0/internal/events"
	"github.com/co-intel-labs/labs-1.0/internal/repositories/memory"
	"github.com/co-intel-labs/labs-1.0/internal/store"
	"github.com/co-intel-labs/labs-1.0/internal/utils"
	"github.com/co-intel-labs/labs-1.0/internal/validator"
)

func TestServiceManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	blob := memory.NewBlobMemory()
	recordStore := store.New(blob, utils.NewFixedClock(testNow), testLogger(), nil, store.DefaultSeed())
	sm := NewServiceManager(recordStore, events.NewMockEventPublisher(nil), nil, testLogger(), validator.New(), ServiceManagerConfig{})

	assert.Error(t, sm.HealthCheck(ctx))
	assert.Panics(t, func() { sm.Allocation() })

	require.NoError(t, sm.Initialize(ctx))
	require.NoError(t, sm.Initialize(ctx))
	assert.NoError(t, sm.HealthCheck(ctx))

	assert.NotNil(t, sm.Allocation())
	assert.NotNil(t, sm.Lab())
	assert.NotNil(t, sm.User())
	assert.NotNil(t, sm.Course())
	assert.NotNil(t, sm.Auth())
	assert.NotNil(t, sm.Dashboard())
	assert.NotNil(t, sm.Report())
	assert.Equal(t, DefaultSweepInterval, sm.Sweeper().Interval())

	// Initialize warms every collection, seeding the blob store.
	_, err := blob.Load(ctx, store.KeyLabs)
	assert.NoError(t, err)

	require.NoError(t, sm.Shutdown(ctx))
	assert.Error(t, sm.HealthCheck(ctx))
}
