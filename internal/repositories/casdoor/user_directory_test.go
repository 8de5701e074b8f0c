package casdoor

import (
	"testing"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-intel-labs/labs-1.0/internal/models"
)

func TestConvertCasdoorRoles(t *testing.T) {
	role := func(name string) *casdoorsdk.Role { return &casdoorsdk.Role{Name: name} }

	tests := []struct {
		name string
		user *casdoorsdk.User
		want models.UserRole
	}{
		{name: "no roles", user: &casdoorsdk.User{}, want: models.RoleStudent},
		{name: "instructor", user: &casdoorsdk.User{Roles: []*casdoorsdk.Role{role("Instructor")}}, want: models.RoleCreator},
		{name: "teacher and student", user: &casdoorsdk.User{Roles: []*casdoorsdk.Role{role("student"), role("teacher")}}, want: models.RoleCreator},
		{name: "administrator role", user: &casdoorsdk.User{Roles: []*casdoorsdk.Role{role("teacher"), role("administrator")}}, want: models.RoleAdmin},
		{name: "organisation admin flag", user: &casdoorsdk.User{IsAdmin: true}, want: models.RoleAdmin},
		{name: "unknown role", user: &casdoorsdk.User{Roles: []*casdoorsdk.Role{role("proctor")}}, want: models.RoleStudent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertCasdoorRoles(tt.user))
		})
	}
}

func TestConvertCasdoorUser(t *testing.T) {
	user := convertCasdoorUser(&casdoorsdk.User{
		Id:             "c1",
		Name:           "kai",
		DisplayName:    "Kai Tanaka",
		Email:          "kai@usaii.org",
		Avatar:         "https://example.com/kai.png",
		EmailVerified:  true,
		CreatedTime:    "2024-02-01T10:00:00Z",
		LastSigninTime: "2024-02-03T08:00:00Z",
	})
	require.NotNil(t, user)
	assert.Equal(t, "c1", user.ID)
	assert.Equal(t, "Kai Tanaka", user.Name)
	assert.Equal(t, models.UserStatusVerified, user.Status)
	assert.Equal(t, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), user.CreatedAt)
	require.NotNil(t, user.Avatar)
	require.NotNil(t, user.LastLogin)

	disabled := convertCasdoorUser(&casdoorsdk.User{Name: "old", IsForbidden: true, EmailVerified: true})
	assert.Equal(t, "old", disabled.ID)
	assert.Equal(t, "old", disabled.Name)
	assert.Equal(t, models.UserStatusDisabled, disabled.Status)
	assert.Nil(t, disabled.Avatar)

	assert.Nil(t, convertCasdoorUser(nil))
}
