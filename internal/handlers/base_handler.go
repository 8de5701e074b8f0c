package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/services"
	"github.com/co-intel-labs/labs-1.0/internal/validator"
)

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type BaseHandler struct {
	logger *slog.Logger
}

func NewBaseHandler(logger *slog.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming request with its request ID and caller.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{
		"request_id", c.GetString("request_id"),
		"method", c.Request.Method,
		"path", c.FullPath(),
		"user_id", c.GetString("user_id"),
	}, keysAndValues...)
	h.logger.Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{
		"request_id", c.GetString("request_id"),
		"path", c.FullPath(),
		"error", err,
	}, keysAndValues...)
	h.logger.Error(msg, args...)
}

// bindJSON decodes the request body, answering 400 on malformed input.
func (h *BaseHandler) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return false
	}
	return true
}

func (h *BaseHandler) notFound(c *gin.Context, entity string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Message: entity + " not found"})
}

// currentUser returns the authenticated caller. Routes behind AuthMiddleware always
// have one; a missing user answers 401.
func (h *BaseHandler) currentUser(c *gin.Context) (*models.User, bool) {
	user, err := GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return nil, false
	}
	return user, true
}

// ===== ERROR HANDLING =====

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var refErr *services.InvalidReferenceError
	if errors.As(err, &refErr) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Invalid reference",
			Details: map[string]interface{}{
				"entity": refErr.Entity,
				"id":     refErr.ID,
			},
		})
		return
	}

	var transitionErr *services.TransitionError
	if errors.As(err, &transitionErr) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Invalid status transition",
			Details: map[string]interface{}{
				"from": transitionErr.From,
				"to":   transitionErr.To,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrAuthFailure):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid credentials"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Forbidden"})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Email already registered"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Invalid status transition"})
	case errors.Is(err, services.ErrDirectoryNotConfigured):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Message: "User directory not configured"})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
