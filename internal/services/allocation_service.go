package services

import (
	"context"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/co-intel-labs/labs-1.0/internal/events"
	"github.com/co-intel-labs/labs-1.0/internal/metrics"
	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/store"
	"github.com/co-intel-labs/labs-1.0/internal/utils"
	"github.com/co-intel-labs/labs-1.0/internal/validator"
)

// Progress reported for a lab that is in progress. There is no per-step tracking
// yet, so the value is a fixed placeholder.
const inProgressPlaceholder = 65

type allocationService struct {
	store     *store.RecordStore
	policy    *ExpirationPolicy
	clock     utils.Clock
	publisher events.EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAllocationService(
	recordStore *store.RecordStore,
	policy *ExpirationPolicy,
	publisher events.EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	validator *validator.Validator,
) AllocationService {
	return &allocationService{
		store:     recordStore,
		policy:    policy,
		clock:     policy.clock,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE OPERATIONS =====

func (s *allocationService) Create(ctx context.Context, req *CreateAllocationRequest) (*models.Allocation, error) {
	s.logger.Info("Creating allocation", "lab_id", req.LabID, "user_id", req.UserID, "allocated_by", req.AllocatedBy)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if errs := s.validator.GetBusinessValidator().ValidateDueDate(req.DueDate); len(errs) > 0 {
		return nil, errs
	}

	if err := s.checkReferences(ctx, &req.LabID, &req.UserID); err != nil {
		return nil, err
	}

	allocation := models.Allocation{
		ID:          uuid.New().String(),
		LabID:       req.LabID,
		UserID:      req.UserID,
		AllocatedBy: req.AllocatedBy,
		AllocatedAt: s.clock.Now(),
		DueDate:     req.DueDate,
		Status:      models.AllocationAssigned,
	}
	stored := s.store.Allocations.Upsert(ctx, allocation)

	s.metrics.AllocationCreated()
	events.SafePublish(ctx, s.publisher, events.NewEvent(events.AllocationCreated, allocationEventData(stored)))
	s.logger.Info("Allocation created", "allocation_id", stored.ID)

	return &stored, nil
}

func (s *allocationService) Get(ctx context.Context, id string) (*models.Allocation, error) {
	s.Sweep(ctx)

	allocation, ok := s.store.Allocations.Get(ctx, id)
	if !ok {
		return nil, nil
	}
	return &allocation, nil
}

// Lookup reads one allocation without sweeping, for checks ahead of a write.
func (s *allocationService) Lookup(ctx context.Context, id string) *models.Allocation {
	allocation, ok := s.store.Allocations.Get(ctx, id)
	if !ok {
		return nil
	}
	return &allocation
}

func (s *allocationService) List(ctx context.Context, filter AllocationFilter) ([]models.Allocation, error) {
	s.Sweep(ctx)

	all := s.store.Allocations.LoadAll(ctx)

	var labs map[string]*models.Lab
	var users map[string]*models.User
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	if search != "" {
		labs = indexLabs(s.store.Labs.LoadAll(ctx))
		users = indexUsers(s.store.Users.LoadAll(ctx))
	}

	result := make([]models.Allocation, 0, len(all))
	for _, a := range all {
		if filter.UserID != "" && a.UserID != filter.UserID {
			continue
		}
		if filter.LabID != "" && a.LabID != filter.LabID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if search != "" && !allocationMatches(a, labs[a.LabID], users[a.UserID], search) {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func (s *allocationService) ListByUser(ctx context.Context, userID string) ([]models.Allocation, error) {
	return s.List(ctx, AllocationFilter{UserID: userID})
}

func (s *allocationService) Details(ctx context.Context, allocations []models.Allocation) []AllocationDetails {
	labs := indexLabs(s.store.Labs.LoadAll(ctx))
	users := indexUsers(s.store.Users.LoadAll(ctx))

	details := make([]AllocationDetails, 0, len(allocations))
	for _, a := range allocations {
		d := AllocationDetails{Allocation: a}
		lab := labs[a.LabID]
		if lab != nil {
			d.LabTitle = lab.Title
		}
		if user := users[a.UserID]; user != nil {
			d.UserName = user.Name
			d.UserEmail = user.Email
		}
		d.ExpiresAt = s.policy.ExpiresAt(a, lab)
		details = append(details, d)
	}
	return details
}

// ===== LIFECYCLE =====

// Update applies an administrative edit. completed_at follows the resulting
// status: stamped when it becomes completed, cleared otherwise.
func (s *allocationService) Update(ctx context.Context, id string, patch *AllocationPatch) (*models.Allocation, error) {
	s.logger.Info("Updating allocation", "allocation_id", id)

	if errs := s.validator.Validate(patch); len(errs) > 0 {
		return nil, errs
	}
	if err := s.checkReferences(ctx, patch.LabID, patch.UserID); err != nil {
		return nil, err
	}

	var previous models.AllocationStatus
	updated, found, err := s.store.Allocations.Patch(ctx, id, func(a *models.Allocation) (bool, error) {
		previous = a.Status
		before := a.Clone()
		s.applyPatch(a, patch)
		return !reflect.DeepEqual(before, *a), nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	if previous != models.AllocationCompleted && updated.Status == models.AllocationCompleted {
		events.SafePublish(ctx, s.publisher, events.NewEvent(events.AllocationCompleted, allocationEventData(updated)))
	}
	return &updated, nil
}

func (s *allocationService) UpdateStatus(ctx context.Context, id string, status models.AllocationStatus) (*models.Allocation, error) {
	return s.Update(ctx, id, &AllocationPatch{Status: &status})
}

// Start moves an assigned allocation to in-progress. Starting twice is a no-op.
// Write paths never sweep: the status seen is the one last persisted.
func (s *allocationService) Start(ctx context.Context, id string) (*models.Allocation, error) {
	s.logger.Info("Starting allocation", "allocation_id", id)

	updated, found, err := s.store.Allocations.Patch(ctx, id, func(a *models.Allocation) (bool, error) {
		if a.Status == models.AllocationInProgress {
			return false, nil
		}
		if errs := s.validator.GetBusinessValidator().ValidateStatusTransition(a.Status, models.AllocationInProgress); len(errs) > 0 {
			return false, &TransitionError{From: string(a.Status), To: string(models.AllocationInProgress)}
		}
		a.Status = models.AllocationInProgress
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &updated, nil
}

func (s *allocationService) Complete(ctx context.Context, id string, score *float64) (*models.Allocation, error) {
	s.logger.Info("Completing allocation", "allocation_id", id)

	if score != nil && (*score < 0 || *score > 100) {
		return nil, validator.ValidationErrors{{Field: "score", Message: "must be between 0 and 100", Value: *score, Rule: "range"}}
	}

	updated, found, err := s.store.Allocations.Patch(ctx, id, func(a *models.Allocation) (bool, error) {
		if errs := s.validator.GetBusinessValidator().ValidateStatusTransition(a.Status, models.AllocationCompleted); len(errs) > 0 {
			return false, &TransitionError{From: string(a.Status), To: string(models.AllocationCompleted)}
		}
		now := s.clock.Now()
		a.Status = models.AllocationCompleted
		a.CompletedAt = &now
		if score != nil {
			value := *score
			a.Score = &value
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	events.SafePublish(ctx, s.publisher, events.NewEvent(events.AllocationCompleted, allocationEventData(updated)))
	return &updated, nil
}

// Sweep marks every non-terminal allocation whose window has elapsed as overdue
// and persists all transitions in one write. It returns the number of transitions.
func (s *allocationService) Sweep(ctx context.Context) int {
	started := time.Now()
	defer func() { s.metrics.ObserveSweep(time.Since(started)) }()

	labs := indexLabs(s.store.Labs.LoadAll(ctx))
	now := s.clock.Now()

	expired := s.store.Allocations.Mutate(ctx, func(a *models.Allocation) bool {
		if a.Status.IsTerminal() {
			return false
		}
		if !IsExpiredAt(*a, labs[a.LabID], now) {
			return false
		}
		a.Status = models.AllocationOverdue
		return true
	})

	for _, a := range expired {
		s.logger.Info("Allocation expired",
			"allocation_id", a.ID,
			"lab_id", a.LabID,
			"user_id", a.UserID,
			"allocated_at", a.AllocatedAt,
			"window_hours", labs[a.LabID].ExpirationWindowHours())
		events.SafePublish(ctx, s.publisher, events.NewEvent(events.AllocationOverdue, allocationEventData(a)))
	}
	s.metrics.OverdueTransitions(len(expired))

	return len(expired)
}

func (s *allocationService) LabStatusForUser(ctx context.Context, labID, userID string) (*LabStatus, error) {
	allocations, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, a := range allocations {
		if a.LabID != labID {
			continue
		}
		lab, ok := s.store.Labs.Get(ctx, labID)
		var labPtr *models.Lab
		if ok {
			labPtr = &lab
		}
		return &LabStatus{
			AllocationID: a.ID,
			Status:       a.Status,
			DueDate:      a.DueDate,
			ExpiresAt:    s.policy.ExpiresAt(a, labPtr),
			Progress:     progressFor(a.Status),
		}, nil
	}
	return nil, nil
}

// ===== HELPERS =====

func (s *allocationService) checkReferences(ctx context.Context, labID, userID *string) error {
	if labID != nil {
		if _, ok := s.store.Labs.Get(ctx, *labID); !ok {
			return NewInvalidReferenceError("lab", *labID)
		}
	}
	if userID != nil {
		if _, ok := s.store.Users.Get(ctx, *userID); !ok {
			return NewInvalidReferenceError("user", *userID)
		}
	}
	return nil
}

func (s *allocationService) applyPatch(a *models.Allocation, patch *AllocationPatch) {
	if patch.LabID != nil {
		a.LabID = *patch.LabID
	}
	if patch.UserID != nil {
		a.UserID = *patch.UserID
	}
	if patch.AllocatedBy != nil {
		a.AllocatedBy = *patch.AllocatedBy
	}
	if patch.AllocatedAt != nil {
		a.AllocatedAt = *patch.AllocatedAt
	}
	if patch.DueDate != nil {
		a.DueDate = *patch.DueDate
	}
	if patch.Status != nil {
		a.Status = *patch.Status
	}
	if patch.Score != nil {
		score := *patch.Score
		a.Score = &score
	}

	if a.Status != models.AllocationCompleted {
		a.CompletedAt = nil
		return
	}
	if patch.CompletedAt != nil {
		completedAt := *patch.CompletedAt
		a.CompletedAt = &completedAt
	} else if a.CompletedAt == nil {
		now := s.clock.Now()
		a.CompletedAt = &now
	}
}

func progressFor(status models.AllocationStatus) int {
	switch status {
	case models.AllocationCompleted:
		return 100
	case models.AllocationInProgress:
		return inProgressPlaceholder
	default:
		return 0
	}
}

func allocationMatches(a models.Allocation, lab *models.Lab, user *models.User, search string) bool {
	if lab != nil && strings.Contains(strings.ToLower(lab.Title), search) {
		return true
	}
	if user != nil {
		if strings.Contains(strings.ToLower(user.Name), search) || strings.Contains(strings.ToLower(user.Email), search) {
			return true
		}
	}
	return false
}

func allocationEventData(a models.Allocation) events.AllocationEventData {
	return events.AllocationEventData{
		AllocationID: a.ID,
		LabID:        a.LabID,
		UserID:       a.UserID,
		Status:       string(a.Status),
		AllocatedAt:  a.AllocatedAt,
		DueDate:      a.DueDate,
		CompletedAt:  a.CompletedAt,
		Score:        a.Score,
	}
}

func indexLabs(labs []models.Lab) map[string]*models.Lab {
	out := make(map[string]*models.Lab, len(labs))
	for i := range labs {
		out[labs[i].ID] = &labs[i]
	}
	return out
}

func indexUsers(users []models.User) map[string]*models.User {
	out := make(map[string]*models.User, len(users))
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out
}
