package casdoor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

const defaultPageSize = 100

// UserDirectory lists the accounts of one Casdoor organisation.
type UserDirectory struct {
	client   *casdoorsdk.Client
	pageSize int
}

func NewUserDirectory(config CasdoorConfig) *UserDirectory {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	return &UserDirectory{
		client:   client,
		pageSize: defaultPageSize,
	}
}

// ListUsers pages through the organisation and converts every account.
func (d *UserDirectory) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		casdoorUsers, count, err := d.client.GetPaginationUsers(page, d.pageSize, map[string]string{})
		if err != nil {
			return nil, fmt.Errorf("failed to get users from Casdoor: %w", err)
		}

		for _, casdoorUser := range casdoorUsers {
			if user := convertCasdoorUser(casdoorUser); user != nil {
				users = append(users, *user)
			}
		}

		if len(casdoorUsers) < d.pageSize || page*d.pageSize >= count {
			break
		}
	}

	return users, nil
}

// ===== CONVERSION METHODS =====

func convertCasdoorUser(casdoorUser *casdoorsdk.User) *models.User {
	if casdoorUser == nil {
		return nil
	}

	id := casdoorUser.Id
	if id == "" {
		id = casdoorUser.Name
	}
	name := casdoorUser.DisplayName
	if name == "" {
		name = casdoorUser.Name
	}

	var createdAt time.Time
	if casdoorUser.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, casdoorUser.CreatedTime)
	}

	user := &models.User{
		ID:            id,
		Name:          name,
		Email:         casdoorUser.Email,
		Role:          convertCasdoorRoles(casdoorUser),
		Status:        convertCasdoorStatus(casdoorUser),
		EmailVerified: casdoorUser.EmailVerified,
		CreatedAt:     createdAt,
	}
	if casdoorUser.Avatar != "" {
		avatar := casdoorUser.Avatar
		user.Avatar = &avatar
	}
	if casdoorUser.LastSigninTime != "" {
		if parsed, err := time.Parse(time.RFC3339, casdoorUser.LastSigninTime); err == nil {
			user.LastLogin = &parsed
		}
	}
	return user
}

// convertCasdoorRoles picks the most privileged mapped role. Admin wins; no roles means student.
func convertCasdoorRoles(casdoorUser *casdoorsdk.User) models.UserRole {
	var roles []models.UserRole
	for _, casdoorRole := range casdoorUser.Roles {
		if casdoorRole == nil {
			continue
		}
		mapped := mapSingleCasdoorRole(casdoorRole.Name)
		if !slices.Contains(roles, mapped) {
			roles = append(roles, mapped)
		}
	}

	if slices.Contains(roles, models.RoleAdmin) || casdoorUser.IsAdmin {
		return models.RoleAdmin
	}
	if slices.Contains(roles, models.RoleCreator) {
		return models.RoleCreator
	}
	return models.RoleStudent
}

func mapSingleCasdoorRole(casdoorRole string) models.UserRole {
	switch strings.ToLower(casdoorRole) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "teacher", "instructor", "creator":
		return models.RoleCreator
	default:
		return models.RoleStudent
	}
}

// convertCasdoorStatus maps a forbidden account to disabled, a verified email
// to verified and anything else to new.
func convertCasdoorStatus(casdoorUser *casdoorsdk.User) models.UserStatus {
	switch {
	case casdoorUser.IsForbidden || casdoorUser.IsDeleted:
		return models.UserStatusDisabled
	case casdoorUser.EmailVerified:
		return models.UserStatusVerified
	default:
		return models.UserStatusNew
	}
}

var _ repositories.UserDirectory = (*UserDirectory)(nil)
