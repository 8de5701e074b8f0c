package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AllocationHandler struct {
	BaseHandler
	allocations services.AllocationService
	reports     services.ReportService
}

func NewAllocationHandler(allocations services.AllocationService, reports services.ReportService, logger *slog.Logger) *AllocationHandler {
	return &AllocationHandler{
		BaseHandler: NewBaseHandler(logger),
		allocations: allocations,
		reports:     reports,
	}
}

type CreateAllocationBody struct {
	LabID   string    `json:"lab_id"`
	UserID  string    `json:"user_id"`
	DueDate time.Time `json:"due_date"`
}

type CompleteAllocationBody struct {
	Score *float64 `json:"score"`
}

type SweepResponse struct {
	Transitioned int `json:"transitioned"`
}

// filterFromQuery reads list filters. Callers without the view-all capability are
// pinned to their own allocations whatever user_id they ask for.
func filterFromQuery(c *gin.Context, user *models.User) services.AllocationFilter {
	filter := services.AllocationFilter{
		UserID: c.Query("user_id"),
		LabID:  c.Query("lab_id"),
		Status: models.AllocationStatus(c.Query("status")),
		Search: c.Query("search"),
	}
	if !user.Role.Can(models.CapViewAllAllocations) {
		filter.UserID = user.ID
	}
	return filter
}

// ===== QUERIES =====

// ListAllocations returns allocations joined with lab and user details
// @Summary List allocations
// @Tags allocations
// @Produce json
// @Param user_id query string false "User"
// @Param lab_id query string false "Lab"
// @Param status query string false "Status"
// @Param search query string false "Matches lab title, user name or email"
// @Success 200 {array} services.AllocationDetails
// @Router /allocations [get]
func (h *AllocationHandler) ListAllocations(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	filter := filterFromQuery(c, user)
	h.LogRequest(c, "Listing allocations", "user_filter", filter.UserID, "status", filter.Status)

	allocations, err := h.allocations.List(c.Request.Context(), filter)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.allocations.Details(c.Request.Context(), allocations))
}

// ExportAllocations streams the filtered allocation report as an XLSX workbook
// @Summary Export allocations
// @Tags allocations
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /allocations/export [get]
func (h *AllocationHandler) ExportAllocations(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	filter := filterFromQuery(c, user)
	h.LogRequest(c, "Exporting allocations")

	data, err := h.reports.ExportAllocations(c.Request.Context(), filter)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("allocations-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// GetAllocation returns a single allocation. Learners can only read their own.
// @Summary Get allocation
// @Tags allocations
// @Produce json
// @Param id path string true "Allocation ID"
// @Success 200 {object} services.AllocationDetails
// @Failure 404 {object} ErrorResponse "Allocation not found"
// @Router /allocations/{id} [get]
func (h *AllocationHandler) GetAllocation(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id := c.Param("id")
	h.LogRequest(c, "Getting allocation", "allocation_id", id)

	allocation, ok := h.loadVisible(c, user, id)
	if !ok {
		return
	}

	details := h.allocations.Details(c.Request.Context(), []models.Allocation{*allocation})
	c.JSON(http.StatusOK, details[0])
}

// ===== ADMINISTRATION =====

// CreateAllocation assigns a lab to a user on behalf of the caller
// @Summary Create allocation
// @Tags allocations
// @Accept json
// @Produce json
// @Param request body CreateAllocationBody true "Allocation"
// @Success 201 {object} models.Allocation
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 422 {object} ErrorResponse "Unknown lab or user"
// @Router /allocations [post]
func (h *AllocationHandler) CreateAllocation(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var body CreateAllocationBody
	if !h.bindJSON(c, &body) {
		return
	}

	h.LogRequest(c, "Creating allocation", "lab_id", body.LabID, "user", body.UserID)

	allocation, err := h.allocations.Create(c.Request.Context(), &services.CreateAllocationRequest{
		LabID:       body.LabID,
		UserID:      body.UserID,
		AllocatedBy: user.ID,
		DueDate:     body.DueDate,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, allocation)
}

// UpdateAllocation applies an administrative edit
// @Summary Update allocation
// @Tags allocations
// @Accept json
// @Produce json
// @Param id path string true "Allocation ID"
// @Param request body services.AllocationPatch true "Changes"
// @Success 200 {object} models.Allocation
// @Failure 404 {object} ErrorResponse "Allocation not found"
// @Router /allocations/{id} [patch]
func (h *AllocationHandler) UpdateAllocation(c *gin.Context) {
	id := c.Param("id")

	var patch services.AllocationPatch
	if !h.bindJSON(c, &patch) {
		return
	}

	h.LogRequest(c, "Updating allocation", "allocation_id", id)

	allocation, err := h.allocations.Update(c.Request.Context(), id, &patch)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if allocation == nil {
		h.notFound(c, "Allocation")
		return
	}

	c.JSON(http.StatusOK, allocation)
}

// Sweep runs the expiration sweep on demand
// @Summary Run expiration sweep
// @Tags allocations
// @Produce json
// @Success 200 {object} SweepResponse
// @Router /allocations/sweep [post]
func (h *AllocationHandler) Sweep(c *gin.Context) {
	h.LogRequest(c, "Running expiration sweep")
	n := h.allocations.Sweep(c.Request.Context())
	c.JSON(http.StatusOK, SweepResponse{Transitioned: n})
}

// ===== LEARNER ACTIONS =====

// StartAllocation moves the caller's allocation to in-progress
// @Summary Start allocation
// @Tags allocations
// @Produce json
// @Param id path string true "Allocation ID"
// @Success 200 {object} models.Allocation
// @Failure 409 {object} ErrorResponse "Invalid status transition"
// @Router /allocations/{id}/start [post]
func (h *AllocationHandler) StartAllocation(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id := c.Param("id")
	h.LogRequest(c, "Starting allocation", "allocation_id", id)

	if _, ok := h.loadOwned(c, user, id); !ok {
		return
	}

	allocation, err := h.allocations.Start(c.Request.Context(), id)
	h.respondAllocation(c, allocation, err)
}

// CompleteAllocation marks the caller's allocation completed with an optional score
// @Summary Complete allocation
// @Tags allocations
// @Accept json
// @Produce json
// @Param id path string true "Allocation ID"
// @Param request body CompleteAllocationBody false "Score"
// @Success 200 {object} models.Allocation
// @Failure 409 {object} ErrorResponse "Invalid status transition"
// @Router /allocations/{id}/complete [post]
func (h *AllocationHandler) CompleteAllocation(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var body CompleteAllocationBody
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &body) {
		return
	}

	h.LogRequest(c, "Completing allocation", "allocation_id", id)

	if _, ok := h.loadOwned(c, user, id); !ok {
		return
	}

	allocation, err := h.allocations.Complete(c.Request.Context(), id, body.Score)
	h.respondAllocation(c, allocation, err)
}

// ===== HELPERS =====

func (h *AllocationHandler) respondAllocation(c *gin.Context, allocation *models.Allocation, err error) {
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if allocation == nil {
		h.notFound(c, "Allocation")
		return
	}
	c.JSON(http.StatusOK, allocation)
}

// loadVisible fetches an allocation the caller may read. Allocations of other users
// are reported as missing to callers without the view-all capability.
func (h *AllocationHandler) loadVisible(c *gin.Context, user *models.User, id string) (*models.Allocation, bool) {
	allocation, err := h.allocations.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return nil, false
	}
	if allocation == nil || (allocation.UserID != user.ID && !user.Role.Can(models.CapViewAllAllocations)) {
		h.notFound(c, "Allocation")
		return nil, false
	}
	return allocation, true
}

// loadOwned fetches an allocation assigned to the caller without sweeping,
// since it guards a write.
func (h *AllocationHandler) loadOwned(c *gin.Context, user *models.User, id string) (*models.Allocation, bool) {
	allocation := h.allocations.Lookup(c.Request.Context(), id)
	if allocation == nil || allocation.UserID != user.ID {
		h.notFound(c, "Allocation")
		return nil, false
	}
	return allocation, true
}
