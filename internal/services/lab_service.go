package services

import (
	"context"
	"log/slog"
	"reflect"
	"strings"

	"github.com/google/uuid"

	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/store"
	"github.com/co-intel-labs/labs-1.0/internal/validator"
)

type labService struct {
	store     *store.RecordStore
	logger    *slog.Logger
	validator *validator.Validator
}

func NewLabService(recordStore *store.RecordStore, logger *slog.Logger, validator *validator.Validator) LabService {
	return &labService{
		store:     recordStore,
		logger:    logger,
		validator: validator,
	}
}

func (s *labService) List(ctx context.Context, filter LabFilter) ([]models.Lab, error) {
	labs := s.store.Labs.LoadAll(ctx)
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	result := make([]models.Lab, 0, len(labs))
	for _, lab := range labs {
		if filter.Category != "" && lab.Category != filter.Category {
			continue
		}
		if filter.Level != "" && lab.Level != filter.Level {
			continue
		}
		if filter.Type != "" && lab.Type != filter.Type {
			continue
		}
		if filter.CreatorID != "" && lab.CreatorID != filter.CreatorID {
			continue
		}
		if filter.ActiveOnly && !lab.IsActive {
			continue
		}
		if search != "" && !labMatches(lab, search) {
			continue
		}
		result = append(result, lab)
	}
	return result, nil
}

func (s *labService) ListByCreator(ctx context.Context, creatorID string) ([]models.Lab, error) {
	return s.List(ctx, LabFilter{CreatorID: creatorID})
}

func (s *labService) Get(ctx context.Context, id string) (*models.Lab, error) {
	lab, ok := s.store.Labs.Get(ctx, id)
	if !ok {
		return nil, nil
	}
	return &lab, nil
}

func (s *labService) Create(ctx context.Context, req *CreateLabRequest, creatorID string) (*models.Lab, error) {
	s.logger.Info("Creating lab", "creator_id", creatorID, "title", req.Title, "type", req.Type)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.checkCourse(ctx, req.CourseID); err != nil {
		return nil, err
	}

	expiration := models.DefaultExpirationHours
	if req.ExpirationHours != nil {
		expiration = *req.ExpirationHours
	}

	lab := models.Lab{
		ID:                  uuid.New().String(),
		Title:               strings.TrimSpace(req.Title),
		Description:         req.Description,
		CourseID:            nonEmpty(req.CourseID),
		CreatorID:           creatorID,
		Category:            req.Category,
		Level:               req.Level,
		Type:                req.Type,
		Duration:            req.Duration,
		Instructions:        req.Instructions,
		Resources:           compactStrings(req.Resources),
		Tags:                compactStrings(req.Tags),
		CreatedAt:           s.store.Clock().Now(),
		IsActive:            true,
		EnvironmentURL:      nonEmpty(req.EnvironmentURL),
		ExpirationHours:     &expiration,
		Prerequisites:       compactStrings(req.Prerequisites),
		ProjectDeliverables: compactStrings(req.ProjectDeliverables),
		EstimatedEffort:     nonEmpty(req.EstimatedEffort),
	}
	if req.CertificationCriteria != nil {
		lab.CertificationCriteria = toCriteria(req.CertificationCriteria)
	}
	lab.NormalizeTypeFields()

	stored := s.store.Labs.Upsert(ctx, lab)
	s.logger.Info("Lab created", "lab_id", stored.ID)
	return &stored, nil
}

func (s *labService) Update(ctx context.Context, id string, req *UpdateLabRequest) (*models.Lab, error) {
	s.logger.Info("Updating lab", "lab_id", id)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.checkCourse(ctx, req.CourseID); err != nil {
		return nil, err
	}

	updated, found, err := s.store.Labs.Patch(ctx, id, func(lab *models.Lab) (bool, error) {
		before := lab.Clone()
		applyLabUpdate(lab, req)
		lab.NormalizeTypeFields()
		return !reflect.DeepEqual(before, *lab), nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &updated, nil
}

// SetActive toggles catalog visibility. Labs are never hard-deleted.
func (s *labService) SetActive(ctx context.Context, id string, active bool) (*models.Lab, error) {
	s.logger.Info("Setting lab visibility", "lab_id", id, "active", active)
	return s.Update(ctx, id, &UpdateLabRequest{IsActive: &active})
}

func (s *labService) checkCourse(ctx context.Context, courseID *string) error {
	if courseID == nil || *courseID == "" {
		return nil
	}
	if _, ok := s.store.Courses.Get(ctx, *courseID); !ok {
		return NewInvalidReferenceError("course", *courseID)
	}
	return nil
}

func applyLabUpdate(lab *models.Lab, req *UpdateLabRequest) {
	if req.Title != nil {
		lab.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		lab.Description = *req.Description
	}
	if req.CourseID != nil {
		lab.CourseID = nonEmpty(req.CourseID)
	}
	if req.Category != nil {
		lab.Category = *req.Category
	}
	if req.Level != nil {
		lab.Level = *req.Level
	}
	if req.Type != nil {
		lab.Type = *req.Type
	}
	if req.Duration != nil {
		lab.Duration = *req.Duration
	}
	if req.Instructions != nil {
		lab.Instructions = *req.Instructions
	}
	if req.Resources != nil {
		lab.Resources = compactStrings(req.Resources)
	}
	if req.Tags != nil {
		lab.Tags = compactStrings(req.Tags)
	}
	if req.EnvironmentURL != nil {
		lab.EnvironmentURL = nonEmpty(req.EnvironmentURL)
	}
	if req.ExpirationHours != nil {
		hours := *req.ExpirationHours
		lab.ExpirationHours = &hours
	}
	if req.Prerequisites != nil {
		lab.Prerequisites = compactStrings(req.Prerequisites)
	}
	if req.CertificationCriteria != nil {
		lab.CertificationCriteria = toCriteria(req.CertificationCriteria)
	}
	if req.ProjectDeliverables != nil {
		lab.ProjectDeliverables = compactStrings(req.ProjectDeliverables)
	}
	if req.EstimatedEffort != nil {
		lab.EstimatedEffort = nonEmpty(req.EstimatedEffort)
	}
	if req.IsActive != nil {
		lab.IsActive = *req.IsActive
	}
}

func toCriteria(req *CertificationCriteriaRequest) *models.CertificationCriteria {
	criteria := &models.CertificationCriteria{
		PassingScore: req.PassingScore,
		MaxAttempts:  req.MaxAttempts,
	}
	if req.TimeLimit != nil {
		limit := *req.TimeLimit
		criteria.TimeLimit = &limit
	}
	return criteria
}

func labMatches(lab models.Lab, search string) bool {
	if strings.Contains(strings.ToLower(lab.Title), search) ||
		strings.Contains(strings.ToLower(lab.Description), search) {
		return true
	}
	for _, tag := range lab.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

// compactStrings drops blank entries, keeping order. Nil in, nil out.
func compactStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func nonEmpty(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	v := *value
	return &v
}
