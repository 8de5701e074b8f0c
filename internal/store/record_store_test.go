package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-intel-labs/labs-1.0/internal/metrics"
	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/repositories"
	"github.com/co-intel-labs/labs-1.0/internal/repositories/memory"
	"github.com/co-intel-labs/labs-1.0/internal/utils"
)

// recordingBlob counts writes per key and can be told to fail.
type recordingBlob struct {
	*memory.BlobMemory
	mu      sync.Mutex
	saves   map[string]int
	saveErr error
	loadErr error
}

func newRecordingBlob() *recordingBlob {
	return &recordingBlob{BlobMemory: memory.NewBlobMemory(), saves: map[string]int{}}
}

func (b *recordingBlob) Save(ctx context.Context, key string, payload []byte) error {
	b.mu.Lock()
	b.saves[key]++
	err := b.saveErr
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return b.BlobMemory.Save(ctx, key, payload)
}

func (b *recordingBlob) Load(ctx context.Context, key string) ([]byte, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return b.BlobMemory.Load(ctx, key)
}

func (b *recordingBlob) saveCount(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves[key]
}

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(blob repositories.BlobStore, seed Seed) *RecordStore {
	return New(blob, utils.NewFixedClock(testNow), testLogger(), nil, seed)
}

func labSeed(labs ...models.Lab) Seed {
	return Seed{Labs: func() []models.Lab {
		out := make([]models.Lab, len(labs))
		for i, l := range labs {
			out[i] = l.Clone()
		}
		return out
	}}
}

func TestCollection_SeedsDefaultsWhenNoDurableCopy(t *testing.T) {
	ctx := context.Background()
	blob := newRecordingBlob()
	s := newTestStore(blob, DefaultSeed())

	users := s.Users.LoadAll(ctx)
	require.Len(t, users, 6)
	assert.Equal(t, "admin@usaii.org", users[0].Email)
	assert.Equal(t, 1, blob.saveCount(KeyUsers))

	allocations := s.Allocations.LoadAll(ctx)
	require.Len(t, allocations, 4)
	assert.Equal(t, testNow.Add(-45*time.Hour), allocations[0].AllocatedAt)

	// second read is served from memory
	s.Users.LoadAll(ctx)
	assert.Equal(t, 1, blob.saveCount(KeyUsers))
}

func TestCollection_SaveAllLoadAllRoundTrip(t *testing.T) {
	ctx := context.Background()
	blob := newRecordingBlob()
	s := newTestStore(blob, EmptySeed())

	completed := testNow.Add(-time.Hour)
	score := 88.5
	records := []models.Allocation{
		{ID: "a", LabID: "1", UserID: "3", AllocatedAt: testNow.Add(-2 * time.Hour), DueDate: testNow, Status: models.AllocationAssigned},
		{ID: "b", LabID: "2", UserID: "4", AllocatedAt: testNow.Add(-3 * time.Hour), DueDate: testNow, Status: models.AllocationCompleted, CompletedAt: &completed, Score: &score},
	}
	s.Allocations.SaveAll(ctx, records)

	reopened := newTestStore(blob, EmptySeed())
	assert.Equal(t, records, reopened.Allocations.LoadAll(ctx))
}

func TestCollection_MergeRules(t *testing.T) {
	ctx := context.Background()
	edited := testNow.Add(-time.Minute)

	tests := []struct {
		name       string
		durable    []models.Lab
		wantTitles []string
		wantWrite  bool
	}{
		{
			name:       "unedited durable copy yields to bundled default",
			durable:    []models.Lab{{ID: "1", Title: "stale"}, {ID: "2", Title: "Two"}},
			wantTitles: []string{"One", "Two"},
			wantWrite:  true,
		},
		{
			name:       "edited durable copy wins",
			durable:    []models.Lab{{ID: "1", Title: "Edited", UpdatedAt: &edited}, {ID: "2", Title: "Two"}},
			wantTitles: []string{"Edited", "Two"},
			wantWrite:  false,
		},
		{
			name:       "durable-only records are appended in durable order",
			durable:    []models.Lab{{ID: "9", Title: "Nine"}, {ID: "1", Title: "One"}, {ID: "7", Title: "Seven"}},
			wantTitles: []string{"One", "Two", "Nine", "Seven"},
			wantWrite:  true,
		},
		{
			name:       "identical copy is not rewritten",
			durable:    []models.Lab{{ID: "1", Title: "One"}, {ID: "2", Title: "Two"}},
			wantTitles: []string{"One", "Two"},
			wantWrite:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := newRecordingBlob()
			payload, err := json.Marshal(tt.durable)
			require.NoError(t, err)
			require.NoError(t, blob.BlobMemory.Save(ctx, KeyLabs, payload))

			s := newTestStore(blob, labSeed(models.Lab{ID: "1", Title: "One"}, models.Lab{ID: "2", Title: "Two"}))
			labs := s.Labs.LoadAll(ctx)

			titles := make([]string, len(labs))
			for i, l := range labs {
				titles[i] = l.Title
			}
			assert.Equal(t, tt.wantTitles, titles)
			assert.Equal(t, tt.wantWrite, blob.saveCount(KeyLabs) == 1)
		})
	}
}

func TestCollection_PreferDurableForUsers(t *testing.T) {
	ctx := context.Background()
	blob := newRecordingBlob()
	payload, err := json.Marshal([]models.User{{ID: "5", Name: "Alex Wilson", Email: "alex@usaii.org", Status: models.UserStatusActive, EmailVerified: true}})
	require.NoError(t, err)
	require.NoError(t, blob.BlobMemory.Save(ctx, KeyUsers, payload))

	s := newTestStore(blob, DefaultSeed())
	alex, ok := s.Users.Get(ctx, "5")
	require.True(t, ok)
	assert.Equal(t, models.UserStatusActive, alex.Status)
	assert.Len(t, s.Users.LoadAll(ctx), 6)
}

func TestCollection_CorruptDurableCopyServesDefaults(t *testing.T) {
	ctx := context.Background()
	blob := newRecordingBlob()
	require.NoError(t, blob.BlobMemory.Save(ctx, KeyCourses, []byte("{not json")))

	reg := prometheus.NewRegistry()
	s := New(blob, utils.NewFixedClock(testNow), testLogger(), metrics.New(reg), DefaultSeed())

	assert.Len(t, s.Courses.LoadAll(ctx), 3)
	assert.Equal(t, 0, blob.saveCount(KeyCourses))

	raw, err := blob.BlobMemory.Load(ctx, KeyCourses)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(raw))
}

func TestCollection_PatchAndMutate(t *testing.T) {
	ctx := context.Background()
	blob := newRecordingBlob()
	s := newTestStore(blob, labSeed(models.Lab{ID: "1", Title: "One"}, models.Lab{ID: "2", Title: "Two"}))
	s.Labs.LoadAll(ctx)
	require.Equal(t, 1, blob.saveCount(KeyLabs))

	t.Run("missing id is an absence signal", func(t *testing.T) {
		_, found, err := s.Labs.Patch(ctx, "404", func(l *models.Lab) (bool, error) { return true, nil })
		assert.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, 1, blob.saveCount(KeyLabs))
	})

	t.Run("unchanged patch does not write", func(t *testing.T) {
		_, found, err := s.Labs.Patch(ctx, "1", func(l *models.Lab) (bool, error) { return false, nil })
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 1, blob.saveCount(KeyLabs))
	})

	t.Run("mutator error leaves record untouched", func(t *testing.T) {
		_, _, err := s.Labs.Patch(ctx, "1", func(l *models.Lab) (bool, error) {
			l.Title = "half-applied"
			return true, errors.New("rejected")
		})
		assert.Error(t, err)
		lab, _ := s.Labs.Get(ctx, "1")
		assert.Equal(t, "One", lab.Title)
	})

	t.Run("patch stamps and persists", func(t *testing.T) {
		lab, found, err := s.Labs.Patch(ctx, "2", func(l *models.Lab) (bool, error) {
			l.Title = "Second"
			return true, nil
		})
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Second", lab.Title)
		require.NotNil(t, lab.UpdatedAt)
		assert.Equal(t, testNow, *lab.UpdatedAt)
		assert.Equal(t, 2, blob.saveCount(KeyLabs))
	})

	t.Run("mutate batches into one write", func(t *testing.T) {
		changed := s.Labs.Mutate(ctx, func(l *models.Lab) bool {
			l.IsActive = true
			return true
		})
		assert.Len(t, changed, 2)
		assert.Equal(t, 3, blob.saveCount(KeyLabs))

		changed = s.Labs.Mutate(ctx, func(l *models.Lab) bool { return false })
		assert.Empty(t, changed)
		assert.Equal(t, 3, blob.saveCount(KeyLabs))
	})
}

func TestCollection_ReadersGetDetachedCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(newRecordingBlob(), labSeed(models.Lab{ID: "1", Title: "One", Tags: []string{"a"}}))

	labs := s.Labs.LoadAll(ctx)
	labs[0].Title = "changed"
	labs[0].Tags[0] = "changed"

	lab, ok := s.Labs.Get(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, "One", lab.Title)
	assert.Equal(t, []string{"a"}, lab.Tags)
}

func TestCollection_PersistFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	blob := newRecordingBlob()
	blob.saveErr = errors.New("quota exceeded")

	reg := prometheus.NewRegistry()
	s := New(blob, utils.NewFixedClock(testNow), testLogger(), metrics.New(reg), EmptySeed())

	stored := s.Courses.Upsert(ctx, models.Course{ID: "c1", Name: "Go"})
	assert.Equal(t, "c1", stored.ID)

	// in-memory state stays authoritative
	got, ok := s.Courses.Get(ctx, "c1")
	require.True(t, ok)
	assert.Equal(t, "Go", got.Name)

	families, err := reg.Gather()
	require.NoError(t, err)
	var failures float64
	for _, f := range families {
		if f.GetName() == "lab_store_persist_failures_total" {
			for _, m := range f.GetMetric() {
				failures += m.GetCounter().GetValue()
			}
		}
	}
	assert.GreaterOrEqual(t, failures, 2.0)
}

func TestCollection_InsertRejectsConflicts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(newRecordingBlob(), DefaultSeed())
	errTaken := errors.New("taken")

	_, err := s.Users.Insert(ctx, models.User{ID: "x", Email: "admin@usaii.org"}, func(existing models.User) error {
		if existing.Email == "admin@usaii.org" {
			return errTaken
		}
		return nil
	})
	assert.ErrorIs(t, err, errTaken)
	assert.Len(t, s.Users.LoadAll(ctx), 6)
}

func TestRecordStore_Session(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(newRecordingBlob(), EmptySeed())

	assert.Nil(t, s.LoadSession(ctx))

	s.SaveSession(ctx, models.User{ID: "3", Email: "student@usaii.org", Role: models.RoleStudent})
	session := s.LoadSession(ctx)
	require.NotNil(t, session)
	assert.Equal(t, "3", session.ID)

	s.ClearSession(ctx)
	assert.Nil(t, s.LoadSession(ctx))
}
