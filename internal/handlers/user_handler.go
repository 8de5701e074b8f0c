package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/services"
)

type UserHandler struct {
	BaseHandler
	service services.UserService
}

func NewUserHandler(service services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListUsers returns users matching the query filters
// @Summary List users
// @Tags users
// @Produce json
// @Param status query string false "Status"
// @Param role query string false "Role"
// @Param search query string false "Matches name or email"
// @Success 200 {array} models.User
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	filter := services.UserFilter{
		Status: models.UserStatus(c.Query("status")),
		Role:   models.UserRole(c.Query("role")),
		Search: c.Query("search"),
	}
	h.LogRequest(c, "Listing users", "status", filter.Status, "role", filter.Role)

	users, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// CreateUser registers a new account in the "new" status
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param request body services.CreateUserRequest true "User"
// @Success 201 {object} models.User
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating user", "email", req.Email, "role", req.Role)

	user, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// UpdateUserStatus moves a user through the account lifecycle
// @Summary Update user status
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body services.UpdateUserStatusRequest true "Status"
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /users/{id}/status [patch]
func (h *UserHandler) UpdateUserStatus(c *gin.Context) {
	id := c.Param("id")

	var req services.UpdateUserStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating user status", "target_user", id, "status", req.Status)

	user, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if user == nil {
		h.notFound(c, "User")
		return
	}

	c.JSON(http.StatusOK, user)
}

// SendVerification requests a verification email for the user
// @Summary Send verification email
// @Tags users
// @Param id path string true "User ID"
// @Success 202
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /users/{id}/verification [post]
func (h *UserHandler) SendVerification(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Sending verification", "target_user", id)

	sent, err := h.service.SendVerification(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if !sent {
		h.notFound(c, "User")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// ImportUsers pulls accounts from the configured identity directory
// @Summary Import users from directory
// @Tags users
// @Produce json
// @Success 200 {object} map[string]int
// @Failure 503 {object} ErrorResponse "Directory not configured"
// @Router /users/import [post]
func (h *UserHandler) ImportUsers(c *gin.Context) {
	h.LogRequest(c, "Importing users from directory")

	imported, err := h.service.ImportFromDirectory(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported": imported})
}
