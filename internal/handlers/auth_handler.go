package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/co-intel-labs/labs-1.0/internal/auth"
	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/services"
)

type AuthHandler struct {
	BaseHandler
	service services.AuthService
	tokens  *auth.JWTService
}

func NewAuthHandler(service services.AuthService, tokens *auth.JWTService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		tokens:      tokens,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *models.User  `json:"user"`
	Views     []models.View `json:"views"`
}

type SessionResponse struct {
	User  *models.User  `json:"user"`
	Views []models.View `json:"views"`
}

// Login exchanges credentials for a bearer token
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Login attempt", "email", req.Email)

	user, err := h.service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(*user)
	if err != nil {
		h.LogError(c, err, "Failed to issue token", "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
		Views:     models.AvailableViews(user.Role),
	})
}

// Logout clears the persisted session
// @Summary Sign out
// @Tags auth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.LogRequest(c, "Logout")
	h.service.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated user and the navigation views their role unlocks
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionResponse{
		User:  user,
		Views: models.AvailableViews(user.Role),
	})
}

// Views lists the navigation views available to the caller
func (h *AuthHandler) Views(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"views": models.AvailableViews(user.Role)})
}
