package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/co-intel-labs/labs-1.0/internal/auth"
	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/services"
)

// AuthMiddleware admits requests carrying a bearer token issued by the login endpoint
type AuthMiddleware struct {
	tokens *auth.JWTService
	users  services.UserService
}

func NewAuthMiddleware(tokens *auth.JWTService, users services.UserService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// AuthMiddleware returns a Gin middleware function for bearer authentication.
// The token identifies the user; role and status are read from the record store on
// every request so a disabled account loses access before its token expires.
func (am *AuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			am.unauthorized(c, "authorization header missing")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			am.unauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := am.tokens.ValidateToken(tokenParts[1])
		if err != nil {
			am.unauthorized(c, "invalid token")
			return
		}

		user, err := am.users.Get(c.Request.Context(), claims.UserID)
		if err != nil || user == nil {
			am.unauthorized(c, "unknown user")
			return
		}
		if !user.Status.CanSignIn() {
			am.unauthorized(c, fmt.Sprintf("account is %s", user.Status))
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_role", user.Role)
		c.Set("user_email", user.Email)

		c.Next()
	}
}

func (am *AuthMiddleware) unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": message,
	})
	c.Abort()
}

// RequireCapabilityMiddleware checks the caller's role grants the capability
func (am *AuthMiddleware) RequireCapabilityMiddleware(capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": err.Error(),
			})
			c.Abort()
			return
		}

		if !role.Can(capability) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": fmt.Sprintf("insufficient permissions, required capability: %s", capability),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAnyCapabilityMiddleware admits callers holding at least one of the capabilities
func (am *AuthMiddleware) RequireAnyCapabilityMiddleware(capabilities ...models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err == nil {
			for _, capability := range capabilities {
				if role.Can(capability) {
					c.Next()
					return
				}
			}
		}
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": fmt.Sprintf("insufficient permissions, required one of: %v", capabilities),
		})
		c.Abort()
	}
}

// GetUserFromContext extracts user from Gin context
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	user, exists := c.Get("user")
	if !exists {
		return nil, fmt.Errorf("user not found in context")
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil, fmt.Errorf("invalid user type in context")
	}

	return userModel, nil
}

// GetUserIDFromContext extracts user ID from Gin context
func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", fmt.Errorf("user ID not found in context")
	}

	id, ok := userID.(string)
	if !ok {
		return "", fmt.Errorf("invalid user ID type in context")
	}

	return id, nil
}

// GetUserRoleFromContext extracts user role from Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get("user_role")
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}

	return role, nil
}
