package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/store"
)

type denyVerifier struct{}

func (denyVerifier) Verify(context.Context, models.User, string) bool { return false }

func TestAuthService_Admission(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, store.DefaultSeed())

	tests := []struct {
		name   string
		email  string
		admit  bool
		userID string
	}{
		{name: "active admin", email: "admin@usaii.org", admit: true, userID: "1"},
		{name: "active student", email: "student@usaii.org", admit: true, userID: "3"},
		{name: "verified student", email: "emma@usaii.org", admit: true, userID: "4"},
		{name: "new account", email: "alex@usaii.org", admit: false},
		{name: "disabled account", email: "lisa@usaii.org", admit: false},
		{name: "unknown email", email: "ghost@usaii.org", admit: false},
		{name: "email match is case-sensitive", email: "Admin@usaii.org", admit: false},
		{name: "empty email", email: "", admit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := env.auth.Authenticate(ctx, tt.email, "anything")
			if !tt.admit {
				assert.ErrorIs(t, err, ErrAuthFailure)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.userID, user.ID)
		})
	}
}

func TestAuthService_LastLoginAndSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, store.DefaultSeed())

	user, err := env.auth.Authenticate(ctx, "student@usaii.org", "")
	require.NoError(t, err)
	require.NotNil(t, user.LastLogin)
	assert.Equal(t, testNow, *user.LastLogin)

	stored, ok := env.store.Users.Get(ctx, "3")
	require.True(t, ok)
	assert.Equal(t, testNow, *stored.LastLogin)

	// Verified users are admitted without touching last_login.
	verified, err := env.auth.Authenticate(ctx, "emma@usaii.org", "")
	require.NoError(t, err)
	assert.Nil(t, verified.LastLogin)

	session := env.auth.CurrentSession(ctx)
	require.NotNil(t, session)
	assert.Equal(t, "4", session.ID)

	// The returned user is detached from the store.
	verified.Name = "Changed"
	again, _ := env.store.Users.Get(ctx, "4")
	assert.Equal(t, "Emma Johnson", again.Name)

	env.auth.Logout(ctx)
	assert.Nil(t, env.auth.CurrentSession(ctx))
}

func TestAuthService_VerifierCanDeny(t *testing.T) {
	env := newTestEnv(t, store.DefaultSeed())
	auth := NewAuthService(env.store, denyVerifier{}, nil, testLogger())

	_, err := auth.Authenticate(context.Background(), "admin@usaii.org", "wrong")
	assert.ErrorIs(t, err, ErrAuthFailure)
}
