package services

import (
	"context"
	"log/slog"

	"github.com/co-intel-labs/labs-1.0/internal/metrics"
	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/store"
)

// CredentialVerifier checks a password for a known user.
type CredentialVerifier interface {
	Verify(ctx context.Context, user models.User, password string) bool
}

// AllowAllVerifier accepts any password. Password checking is not part of this service.
type AllowAllVerifier struct{}

func (AllowAllVerifier) Verify(context.Context, models.User, string) bool { return true }

type authService struct {
	store    *store.RecordStore
	verifier CredentialVerifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewAuthService(recordStore *store.RecordStore, verifier CredentialVerifier, m *metrics.Metrics, logger *slog.Logger) AuthService {
	if verifier == nil {
		verifier = AllowAllVerifier{}
	}
	return &authService{
		store:    recordStore,
		verifier: verifier,
		metrics:  m,
		logger:   logger,
	}
}

// Authenticate admits a user whose email matches exactly and whose status is
// verified or active. Every denial returns ErrAuthFailure.
func (s *authService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, ok := s.store.Users.Find(ctx, func(u models.User) bool { return u.Email == email })
	if !ok || !user.Status.CanSignIn() || !s.verifier.Verify(ctx, user, password) {
		s.metrics.AuthAttempt("denied")
		s.logger.Info("Authentication denied", "email", email)
		return nil, ErrAuthFailure
	}

	if user.Status == models.UserStatusActive {
		now := s.store.Clock().Now()
		updated, found, err := s.store.Users.Patch(ctx, user.ID, func(u *models.User) (bool, error) {
			u.LastLogin = &now
			return true, nil
		})
		if err != nil {
			return nil, err
		}
		if found {
			user = updated
		}
	}

	s.store.SaveSession(ctx, user)
	s.metrics.AuthAttempt("admitted")
	s.logger.Info("User authenticated", "user_id", user.ID, "role", user.Role)

	session := user.Clone()
	return &session, nil
}

func (s *authService) Logout(ctx context.Context) {
	s.store.ClearSession(ctx)
}

func (s *authService) CurrentSession(ctx context.Context) *models.User {
	return s.store.LoadSession(ctx)
}
