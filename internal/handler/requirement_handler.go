package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sakchai-dev/timetable-api/internal/models"
	"github.com/sakchai-dev/timetable-api/internal/service"
	appErrors "github.com/sakchai-dev/timetable-api/pkg/errors"
	"github.com/sakchai-dev/timetable-api/pkg/response"
)

// RequirementHandler handles course requirement endpoints.
type RequirementHandler struct {
	service *service.RequirementService
}

// NewRequirementHandler constructs a requirement handler.
func NewRequirementHandler(svc *service.RequirementService) *RequirementHandler {
	return &RequirementHandler{service: svc}
}

// List godoc
// @Summary List course requirements
// @Tags Requirements
// @Produce json
// @Param classroomId query string false "Filter by classroom"
// @Param subjectId query string false "Filter by subject"
// @Param teacherId query string false "Filter by teacher"
// @Param academicYear query int false "Academic year"
// @Param term query int false "Term"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requirements [get]
func (h *RequirementHandler) List(c *gin.Context) {
	filter := models.RequirementFilter{
		ClassroomID: c.Query("classroomId"),
		SubjectID:   c.Query("subjectId"),
		TeacherID:   c.Query("teacherId"),
		SortBy:      c.Query("sort"),
		SortOrder:   c.Query("order"),
	}
	if year, err := strconv.Atoi(c.Query("academicYear")); err == nil {
		filter.AcademicYear = year
	}
	if term, err := strconv.Atoi(c.Query("term")); err == nil {
		filter.Term = term
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	rows, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Get godoc
// @Summary Get requirement by id
// @Tags Requirements
// @Produce json
// @Param id path string true "Requirement ID"
// @Success 200 {object} response.Envelope
// @Router /requirements/{id} [get]
func (h *RequirementHandler) Get(c *gin.Context) {
	requirement, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requirement, nil)
}

// Create godoc
// @Summary Create course requirement
// @Tags Requirements
// @Accept json
// @Produce json
// @Param payload body service.CreateRequirementRequest true "Requirement payload"
// @Success 201 {object} response.Envelope
// @Router /requirements [post]
func (h *RequirementHandler) Create(c *gin.Context) {
	var req service.CreateRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	requirement, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, requirement)
}

// Update godoc
// @Summary Update course requirement
// @Tags Requirements
// @Accept json
// @Produce json
// @Param id path string true "Requirement ID"
// @Param payload body service.UpdateRequirementRequest true "Requirement payload"
// @Success 200 {object} response.Envelope
// @Router /requirements/{id} [put]
func (h *RequirementHandler) Update(c *gin.Context) {
	var req service.UpdateRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	requirement, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requirement, nil)
}

// Delete godoc
// @Summary Delete course requirement
// @Tags Requirements
// @Produce json
// @Param id path string true "Requirement ID"
// @Success 204
// @Router /requirements/{id} [delete]
func (h *RequirementHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
