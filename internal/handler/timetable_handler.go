package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sakchai-dev/timetable-api/internal/middleware"
	"github.com/sakchai-dev/timetable-api/internal/service"
	"github.com/sakchai-dev/timetable-api/pkg/response"
)

// TimetableHandler serves rendered weekly grids.
type TimetableHandler struct {
	service *service.TimetableService
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

func timetableTermQuery(c *gin.Context) (int, int) {
	year, _ := strconv.Atoi(c.Query("academicYear"))
	term, _ := strconv.Atoi(c.Query("term"))
	return year, term
}

// ClassroomGrid godoc
// @Summary Weekly timetable grid for a classroom
// @Tags Timetables
// @Produce json
// @Param id path string true "Classroom ID"
// @Param academicYear query int false "Academic year (defaults to active term)"
// @Param term query int false "Term (defaults to active term)"
// @Success 200 {object} response.Envelope
// @Router /timetables/classrooms/{id} [get]
func (h *TimetableHandler) ClassroomGrid(c *gin.Context) {
	year, term := timetableTermQuery(c)
	grid, err := h.service.ClassroomGrid(c.Request.Context(), c.Param("id"), year, term)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, grid.Cached)
	response.JSON(c, http.StatusOK, grid, nil, middleware.ExtractMeta(c))
}

// TeacherGrid godoc
// @Summary Weekly teaching schedule for a teacher
// @Tags Timetables
// @Produce json
// @Param id path string true "Teacher ID"
// @Param academicYear query int false "Academic year (defaults to active term)"
// @Param term query int false "Term (defaults to active term)"
// @Success 200 {object} response.Envelope
// @Router /timetables/teachers/{id} [get]
func (h *TimetableHandler) TeacherGrid(c *gin.Context) {
	year, term := timetableTermQuery(c)
	grid, err := h.service.TeacherGrid(c.Request.Context(), c.Param("id"), year, term)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, grid.Cached)
	response.JSON(c, http.StatusOK, grid, nil, middleware.ExtractMeta(c))
}
