package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/co-intel-labs/labs-1.0/internal/services"
)

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetDashboardStats returns the role-specific dashboard for the caller
// @Summary Get dashboard statistics
// @Description Admins get catalogue-wide totals, creators get figures for their own labs, students get their allocation counts
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.DashboardStats
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboardStats(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	h.LogRequest(c, "Getting dashboard stats", "role", user.Role)

	stats, err := h.service.GetStats(c.Request.Context(), user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
