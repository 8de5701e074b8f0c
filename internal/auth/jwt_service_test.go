package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-intel-labs/labs-1.0/internal/models"
)

var testUser = models.User{ID: "3", Email: "student@usaii.org", Role: models.RoleStudent}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	token, expiresAt, err := svc.GenerateToken(testUser)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "3", claims.UserID)
	assert.Equal(t, "student@usaii.org", claims.Email)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	valid, _, err := svc.GenerateToken(testUser)
	require.NoError(t, err)

	expired, _, err := NewJWTService("secret", -time.Minute).GenerateToken(testUser)
	require.NoError(t, err)

	otherSecret, _, err := NewJWTService("other", time.Hour).GenerateToken(testUser)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "1", Role: models.RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badRole, _, err := svc.GenerateToken(models.User{ID: "9", Role: "root"})
	require.NoError(t, err)

	tests := map[string]string{
		"tampered":     valid[:len(valid)-2] + "xx",
		"expired":      expired,
		"wrong secret": otherSecret,
		"alg none":     unsigned,
		"unknown role": badRole,
		"garbage":      "not-a-token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.Error(t, err)
		})
	}
}
