package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/co-intel-labs/labs-1.0/internal/events"
	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/repositories"
	"github.com/co-intel-labs/labs-1.0/internal/store"
	"github.com/co-intel-labs/labs-1.0/internal/validator"
)

type userService struct {
	store     *store.RecordStore
	directory repositories.UserDirectory
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

// NewUserService builds the user service. directory may be nil, in which case
// ImportFromDirectory reports ErrDirectoryNotConfigured.
func NewUserService(
	recordStore *store.RecordStore,
	directory repositories.UserDirectory,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) UserService {
	return &userService{
		store:     recordStore,
		directory: directory,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

func (s *userService) List(ctx context.Context, filter UserFilter) ([]models.User, error) {
	users := s.store.Users.LoadAll(ctx)
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	result := make([]models.User, 0, len(users))
	for _, u := range users {
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		result = append(result, u)
	}
	return result, nil
}

func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	user, ok := s.store.Users.Get(ctx, id)
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (s *userService) Create(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	s.logger.Info("Creating user", "email", req.Email, "role", req.Role)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	user := models.User{
		ID:            uuid.New().String(),
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.TrimSpace(req.Email),
		Role:          req.Role,
		Avatar:        nonEmpty(req.Avatar),
		Status:        models.UserStatusNew,
		EmailVerified: false,
		CreatedAt:     s.store.Clock().Now(),
	}

	stored, err := s.store.Users.Insert(ctx, user, rejectEmail(user.Email))
	if err != nil {
		return nil, err
	}

	s.logger.Info("User created", "user_id", stored.ID)
	s.requestVerification(ctx, stored)
	return &stored, nil
}

// UpdateStatus changes the account status. verified and active imply a verified email.
func (s *userService) UpdateStatus(ctx context.Context, id string, status models.UserStatus) (*models.User, error) {
	s.logger.Info("Updating user status", "user_id", id, "status", status)

	if errs := s.validator.Validate(&UpdateUserStatusRequest{Status: status}); len(errs) > 0 {
		return nil, errs
	}

	updated, found, err := s.store.Users.Patch(ctx, id, func(u *models.User) (bool, error) {
		if u.Status == status && (u.EmailVerified || !status.ImpliesVerifiedEmail()) {
			return false, nil
		}
		u.Status = status
		if status.ImpliesVerifiedEmail() {
			u.EmailVerified = true
		}
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

// SendVerification requests a verification email for the user. It reports
// false when the user does not exist.
func (s *userService) SendVerification(ctx context.Context, id string) (bool, error) {
	user, ok := s.store.Users.Get(ctx, id)
	if !ok {
		return false, nil
	}

	s.requestVerification(ctx, user)
	return true, nil
}

func (s *userService) requestVerification(ctx context.Context, user models.User) {
	s.logger.Info("Sending verification email", "user_id", user.ID, "email", user.Email)
	events.SafePublish(ctx, s.publisher, events.NewEvent(events.UserVerificationRequested, events.UserEventData{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}))
}

// ImportFromDirectory inserts directory accounts whose email is not yet known
// and returns how many were added.
func (s *userService) ImportFromDirectory(ctx context.Context) (int, error) {
	if s.directory == nil {
		return 0, ErrDirectoryNotConfigured
	}

	incoming, err := s.directory.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list directory users: %w", err)
	}

	imported := 0
	for _, u := range incoming {
		if strings.TrimSpace(u.Email) == "" {
			continue
		}
		if u.ID == "" {
			u.ID = uuid.New().String()
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = s.store.Clock().Now()
		}
		if u.Status.ImpliesVerifiedEmail() {
			u.EmailVerified = true
		}

		if _, err := s.store.Users.Insert(ctx, u, rejectDirectoryUser(u)); err != nil {
			continue
		}
		imported++
	}

	s.logger.Info("Imported directory users", "received", len(incoming), "imported", imported)
	return imported, nil
}

func rejectEmail(email string) func(models.User) error {
	return func(existing models.User) error {
		if strings.EqualFold(existing.Email, email) {
			return ErrEmailTaken
		}
		return nil
	}
}

func rejectDirectoryUser(u models.User) func(models.User) error {
	byEmail := rejectEmail(u.Email)
	return func(existing models.User) error {
		if existing.ID == u.ID {
			return fmt.Errorf("user id %q already exists", u.ID)
		}
		return byEmail(existing)
	}
}
