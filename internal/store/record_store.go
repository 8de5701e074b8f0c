package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/co-intel-labs/labs-1.0/internal/metrics"
	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/repositories"
	"github.com/co-intel-labs/labs-1.0/internal/utils"
)

// Blob keys, one per collection plus the session.
const (
	KeyLabs        = "labs"
	KeyUsers       = "users"
	KeyAllocations = "allocations"
	KeyCourses     = "courses"
	KeySession     = "session"
)

// RecordStore owns every collection. Collections lock independently; no
// operation holds two collection locks at once.
type RecordStore struct {
	Labs        *Collection[models.Lab]
	Users       *Collection[models.User]
	Allocations *Collection[models.Allocation]
	Courses     *Collection[models.Course]

	blob    repositories.BlobStore
	clock   utils.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(blob repositories.BlobStore, clock utils.Clock, logger *slog.Logger, m *metrics.Metrics, seed Seed) *RecordStore {
	if clock == nil {
		clock = utils.SystemClock()
	}

	var allocationDefaults func() []models.Allocation
	if seed.Allocations != nil {
		allocationDefaults = func() []models.Allocation { return seed.Allocations(clock.Now()) }
	}

	return &RecordStore{
		Labs:        NewCollection(KeyLabs, blob, seed.Labs, PreferDefaults, clock, logger, m),
		Users:       NewCollection(KeyUsers, blob, seed.Users, PreferDurable, clock, logger, m),
		Allocations: NewCollection(KeyAllocations, blob, allocationDefaults, PreferDurable, clock, logger, m),
		Courses:     NewCollection(KeyCourses, blob, seed.Courses, PreferDefaults, clock, logger, m),
		blob:        blob,
		clock:       clock,
		logger:      logger,
		metrics:     m,
	}
}

func (s *RecordStore) Clock() utils.Clock { return s.clock }

// Warm loads every collection so that seeding happens at startup rather than on first request.
func (s *RecordStore) Warm(ctx context.Context) {
	s.Labs.LoadAll(ctx)
	s.Users.LoadAll(ctx)
	s.Allocations.LoadAll(ctx)
	s.Courses.LoadAll(ctx)
}

// SaveSession records the currently authenticated user.
func (s *RecordStore) SaveSession(ctx context.Context, user models.User) {
	payload, err := json.Marshal(user)
	if err == nil {
		err = s.blob.Save(ctx, KeySession, payload)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist session", "error", err, "user_id", user.ID)
		s.metrics.PersistFailure(KeySession)
	}
}

// LoadSession returns the stored session user or nil when none is stored or it cannot be read.
func (s *RecordStore) LoadSession(ctx context.Context) *models.User {
	payload, err := s.blob.Load(ctx, KeySession)
	if err != nil {
		if !errors.Is(err, repositories.ErrBlobNotFound) {
			s.logger.ErrorContext(ctx, "Failed to read session", "error", err)
			s.metrics.LoadFailure(KeySession)
		}
		return nil
	}

	var user models.User
	if err := json.Unmarshal(payload, &user); err != nil {
		s.logger.ErrorContext(ctx, "Failed to decode session", "error", err)
		s.metrics.LoadFailure(KeySession)
		return nil
	}
	return &user
}

func (s *RecordStore) ClearSession(ctx context.Context) {
	if err := s.blob.Delete(ctx, KeySession); err != nil {
		s.logger.ErrorContext(ctx, "Failed to clear session", "error", err)
		s.metrics.PersistFailure(KeySession)
	}
}

func (s *RecordStore) Ping(ctx context.Context) error {
	return s.blob.Ping(ctx)
}
