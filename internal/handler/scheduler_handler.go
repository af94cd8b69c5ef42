package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sakchai-dev/timetable-api/internal/dto"
	"github.com/sakchai-dev/timetable-api/internal/service"
	appErrors "github.com/sakchai-dev/timetable-api/pkg/errors"
	"github.com/sakchai-dev/timetable-api/pkg/response"
)

// SchedulerHandler exposes the automatic placement engine.
type SchedulerHandler struct {
	service *service.SchedulerService
}

// NewSchedulerHandler constructs a scheduler handler.
func NewSchedulerHandler(svc *service.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{service: svc}
}

// Run godoc
// @Summary Run automatic timetable placement for a classroom
// @Description Reset mode deletes unlocked rows first and requires confirm=true; without it the response previews the rows that would be deleted.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.AutoScheduleRequest true "Run payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /scheduler/run [post]
func (h *SchedulerHandler) Run(c *gin.Context) {
	var req dto.AutoScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
