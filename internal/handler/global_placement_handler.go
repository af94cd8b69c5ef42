package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sakchai-dev/timetable-api/internal/dto"
	"github.com/sakchai-dev/timetable-api/internal/service"
	appErrors "github.com/sakchai-dev/timetable-api/pkg/errors"
	"github.com/sakchai-dev/timetable-api/pkg/response"
)

// GlobalPlacementHandler exposes whole-school slot writes.
type GlobalPlacementHandler struct {
	service *service.GlobalPlacementService
}

// NewGlobalPlacementHandler constructs a global placement handler.
func NewGlobalPlacementHandler(svc *service.GlobalPlacementService) *GlobalPlacementHandler {
	return &GlobalPlacementHandler{service: svc}
}

// Place godoc
// @Summary Write one activity into the same slot of every classroom
// @Description Destructive when deleteOld is set; without confirm=true the response previews the classrooms affected.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.GlobalPlacementRequest true "Global placement payload"
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /scheduler/global [post]
func (h *GlobalPlacementHandler) Place(c *gin.Context) {
	var req dto.GlobalPlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := h.service.Place(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
