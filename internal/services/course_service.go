package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/store"
	"github.com/co-intel-labs/labs-1.0/internal/validator"
)

type courseService struct {
	store     *store.RecordStore
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCourseService(recordStore *store.RecordStore, logger *slog.Logger, validator *validator.Validator) CourseService {
	return &courseService{
		store:     recordStore,
		logger:    logger,
		validator: validator,
	}
}

func (s *courseService) List(ctx context.Context) ([]models.Course, error) {
	return s.store.Courses.LoadAll(ctx), nil
}

func (s *courseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, ok := s.store.Courses.Get(ctx, id)
	if !ok {
		return nil, nil
	}
	return &course, nil
}

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest) (*models.Course, error) {
	s.logger.Info("Creating course", "name", req.Name, "category", req.Category)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	course := models.Course{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Category:    req.Category,
		Description: req.Description,
		Level:       req.Level,
		Duration:    req.Duration,
		Tags:        compactStrings(req.Tags),
	}

	stored := s.store.Courses.Upsert(ctx, course)
	s.logger.Info("Course created", "course_id", stored.ID)
	return &stored, nil
}
