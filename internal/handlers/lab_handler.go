package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/services"
)

type LabHandler struct {
	BaseHandler
	labs        services.LabService
	allocations services.AllocationService
}

func NewLabHandler(labs services.LabService, allocations services.AllocationService, logger *slog.Logger) *LabHandler {
	return &LabHandler{
		BaseHandler: NewBaseHandler(logger),
		labs:        labs,
		allocations: allocations,
	}
}

// ===== CATALOG =====

// ListLabs returns the lab catalog. Callers who cannot edit labs only see active ones.
// @Summary List labs
// @Tags labs
// @Produce json
// @Param category query string false "Category"
// @Param level query string false "Level"
// @Param type query string false "Lab type"
// @Param creator_id query string false "Creator"
// @Param search query string false "Matches title, description or tag"
// @Param active query bool false "Only active labs"
// @Success 200 {array} models.Lab
// @Router /labs [get]
func (h *LabHandler) ListLabs(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	filter := services.LabFilter{
		Category:  models.LabCategory(c.Query("category")),
		Level:     models.LabLevel(c.Query("level")),
		Type:      models.LabType(c.Query("type")),
		CreatorID: c.Query("creator_id"),
		Search:    c.Query("search"),
	}
	if active, err := strconv.ParseBool(c.Query("active")); err == nil {
		filter.ActiveOnly = active
	}
	if !user.Role.Can(models.CapEditLab) {
		filter.ActiveOnly = true
	}

	h.LogRequest(c, "Listing labs", "search", filter.Search, "active_only", filter.ActiveOnly)

	labs, err := h.labs.List(c.Request.Context(), filter)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, labs)
}

// GetLab returns a single lab
// @Summary Get lab
// @Tags labs
// @Produce json
// @Param id path string true "Lab ID"
// @Success 200 {object} models.Lab
// @Failure 404 {object} ErrorResponse "Lab not found"
// @Router /labs/{id} [get]
func (h *LabHandler) GetLab(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id := c.Param("id")
	h.LogRequest(c, "Getting lab", "lab_id", id)

	lab, err := h.labs.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if lab == nil || (!lab.IsActive && !user.Role.Can(models.CapEditLab)) {
		h.notFound(c, "Lab")
		return
	}

	c.JSON(http.StatusOK, lab)
}

// CreateLab creates a lab owned by the caller
// @Summary Create lab
// @Tags labs
// @Accept json
// @Produce json
// @Param request body services.CreateLabRequest true "Lab"
// @Success 201 {object} models.Lab
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 422 {object} ErrorResponse "Unknown course"
// @Router /labs [post]
func (h *LabHandler) CreateLab(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req services.CreateLabRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating lab", "title", req.Title, "type", req.Type)

	lab, err := h.labs.Create(c.Request.Context(), &req, user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lab)
}

// UpdateLab applies a partial edit. Creators may only edit their own labs.
// @Summary Update lab
// @Tags labs
// @Accept json
// @Produce json
// @Param id path string true "Lab ID"
// @Param request body services.UpdateLabRequest true "Changes"
// @Success 200 {object} models.Lab
// @Failure 403 {object} ErrorResponse "Not the lab's creator"
// @Failure 404 {object} ErrorResponse "Lab not found"
// @Router /labs/{id} [patch]
func (h *LabHandler) UpdateLab(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var req services.UpdateLabRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating lab", "lab_id", id)

	existing, err := h.labs.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if existing == nil {
		h.notFound(c, "Lab")
		return
	}
	if !user.Role.Can(models.CapEditAnyLab) && existing.CreatorID != user.ID {
		h.handleServiceError(c, services.ErrForbidden)
		return
	}

	lab, err := h.labs.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if lab == nil {
		h.notFound(c, "Lab")
		return
	}

	c.JSON(http.StatusOK, lab)
}

// GetLabStatus returns the caller's allocation state for a lab
// @Summary Learner lab status
// @Tags labs
// @Produce json
// @Param id path string true "Lab ID"
// @Success 200 {object} services.LabStatus
// @Failure 404 {object} ErrorResponse "No allocation for this lab"
// @Router /labs/{id}/status [get]
func (h *LabHandler) GetLabStatus(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	id := c.Param("id")
	h.LogRequest(c, "Getting lab status", "lab_id", id)

	status, err := h.allocations.LabStatusForUser(c.Request.Context(), id, user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if status == nil {
		h.notFound(c, "Allocation")
		return
	}

	c.JSON(http.StatusOK, status)
}
