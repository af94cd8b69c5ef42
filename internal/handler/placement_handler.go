package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sakchai-dev/timetable-api/internal/dto"
	"github.com/sakchai-dev/timetable-api/internal/models"
	"github.com/sakchai-dev/timetable-api/internal/service"
	appErrors "github.com/sakchai-dev/timetable-api/pkg/errors"
	"github.com/sakchai-dev/timetable-api/pkg/response"
)

// PlacementHandler exposes manual timetable edits.
type PlacementHandler struct {
	service *service.PlacementService
}

// NewPlacementHandler constructs a placement handler.
func NewPlacementHandler(svc *service.PlacementService) *PlacementHandler {
	return &PlacementHandler{service: svc}
}

// Place godoc
// @Summary Place one subject into one timetable cell
// @Description Fails with TEACHER_CONFLICT when the teacher is busy elsewhere at that time, and with SLOT_OCCUPIED when the cell is taken and allowShared is false. Occupied-cell conflicts carry the current entries so the client can offer a shared placement.
// @Tags Placement
// @Accept json
// @Produce json
// @Param payload body dto.ManualPlacementRequest true "Placement payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments [post]
func (h *PlacementHandler) Place(c *gin.Context) {
	var req dto.ManualPlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.service.Place(c.Request.Context(), req)
	if err != nil {
		var conflict *models.PlacementConflictError
		if errors.As(err, &conflict) {
			c.Header("Cache-Control", "no-store")
			c.JSON(http.StatusConflict, response.Envelope{
				Error: appErrors.New(conflict.Type, http.StatusConflict, conflict.Message),
				Meta:  map[string]interface{}{"entries": conflict.Entries},
			})
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Remove godoc
// @Summary Remove one timetable entry
// @Tags Placement
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *PlacementHandler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Clear godoc
// @Summary Clear a classroom's unlocked assignments
// @Description Destructive; without confirm=true the response previews how many rows would be deleted.
// @Tags Placement
// @Accept json
// @Produce json
// @Param payload body dto.ClearScheduleRequest true "Clear payload"
// @Success 200 {object} response.Envelope
// @Router /assignments/clear [post]
func (h *PlacementHandler) Clear(c *gin.Context) {
	var req dto.ClearScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := h.service.ClearUnlocked(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
