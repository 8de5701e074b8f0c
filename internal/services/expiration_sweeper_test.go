package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/store"
)

func TestExpirationSweeper_Run(t *testing.T) {
	env := newTestEnv(t, store.DefaultSeed())
	sweeper := NewExpirationSweeper(env.allocations, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	statusOf := func(id string) models.AllocationStatus {
		a, _ := env.store.Allocations.Get(context.Background(), id)
		return a.Status
	}

	// The initial sweep expires allocation 1.
	assert.Eventually(t, func() bool { return statusOf("1") == models.AllocationOverdue }, time.Second, 5*time.Millisecond)

	// Later ticks pick up allocations that expire while running.
	env.clock.Advance(30 * time.Hour)
	assert.Eventually(t, func() bool { return statusOf("3") == models.AllocationOverdue }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestNewExpirationSweeper_DefaultInterval(t *testing.T) {
	sweeper := NewExpirationSweeper(nil, 0, testLogger())
	assert.Equal(t, DefaultSweepInterval, sweeper.Interval())
}
