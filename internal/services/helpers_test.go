package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/co-intel-labs/labs-1.0/internal/events"
	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/repositories/memory"
	"github.com/co-intel-labs/labs-1.0/internal/store"
	"github.com/co-intel-labs/labs-1.0/internal/utils"
	"github.com/co-intel-labs/labs-1.0/internal/validator"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingBlob counts writes per key.
type countingBlob struct {
	*memory.BlobMemory
	mu    sync.Mutex
	saves map[string]int
}

func newCountingBlob() *countingBlob {
	return &countingBlob{BlobMemory: memory.NewBlobMemory(), saves: map[string]int{}}
}

func (b *countingBlob) Save(ctx context.Context, key string, payload []byte) error {
	b.mu.Lock()
	b.saves[key]++
	b.mu.Unlock()
	return b.BlobMemory.Save(ctx, key, payload)
}

func (b *countingBlob) saveCount(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves[key]
}

type testEnv struct {
	clock     *utils.FixedClock
	blob      *countingBlob
	store     *store.RecordStore
	publisher *events.MockEventPublisher
	validator *validator.Validator

	allocations AllocationService
	labs        LabService
	users       UserService
	courses     CourseService
	auth        AuthService
	dashboard   DashboardService
	reports     ReportService
}

func newTestEnv(t *testing.T, seed store.Seed) *testEnv {
	t.Helper()

	env := &testEnv{
		clock:     utils.NewFixedClock(testNow),
		blob:      newCountingBlob(),
		publisher: events.NewMockEventPublisher(nil),
		validator: validator.New(),
	}
	env.wire(seed)
	return env
}

// wire builds the store and services over the env's blob and clock.
func (e *testEnv) wire(seed store.Seed) {
	logger := testLogger()
	e.store = store.New(e.blob, e.clock, logger, nil, seed)

	policy := NewExpirationPolicy(e.clock)
	e.allocations = NewAllocationService(e.store, policy, e.publisher, nil, logger, e.validator)
	e.labs = NewLabService(e.store, logger, e.validator)
	e.users = NewUserService(e.store, nil, e.publisher, logger, e.validator)
	e.courses = NewCourseService(e.store, logger, e.validator)
	e.auth = NewAuthService(e.store, nil, nil, logger)
	e.dashboard = NewDashboardService(e.store, e.allocations, logger)
	e.reports = NewReportService(e.allocations, logger)
}

// reopen simulates a restart over the same durable blobs.
func (e *testEnv) reopen(seed store.Seed) {
	e.wire(seed)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// minimalSeed holds one lab with the given window and one active student.
func minimalSeed(expirationHours *int) store.Seed {
	return store.Seed{
		Labs: func() []models.Lab {
			return []models.Lab{{
				ID:              "lab-1",
				Title:           "Kubernetes Basics",
				CreatorID:       "creator-1",
				Category:        models.CategoryDevOps,
				Level:           models.LevelBeginner,
				Type:            models.LabTypeCourse,
				Duration:        60,
				CreatedAt:       testNow.Add(-24 * time.Hour),
				IsActive:        true,
				ExpirationHours: cloneIntPtr(expirationHours),
			}}
		},
		Users: func() []models.User {
			return []models.User{{
				ID:            "student-1",
				Name:          "Dana Student",
				Email:         "dana@example.com",
				Role:          models.RoleStudent,
				Status:        models.UserStatusActive,
				EmailVerified: true,
				CreatedAt:     testNow.Add(-48 * time.Hour),
			}}
		},
	}
}

func cloneIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// assertCompletedInvariant checks that completed_at is set exactly for completed allocations.
func assertCompletedInvariant(t *testing.T, allocations []models.Allocation) {
	t.Helper()
	for _, a := range allocations {
		if (a.Status == models.AllocationCompleted) != (a.CompletedAt != nil) {
			t.Errorf("allocation %s: status %s with completed_at %v", a.ID, a.Status, a.CompletedAt)
		}
	}
}
