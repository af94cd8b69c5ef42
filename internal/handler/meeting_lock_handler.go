package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sakchai-dev/timetable-api/internal/dto"
	"github.com/sakchai-dev/timetable-api/internal/service"
	appErrors "github.com/sakchai-dev/timetable-api/pkg/errors"
	"github.com/sakchai-dev/timetable-api/pkg/response"
)

// MeetingLockHandler exposes meeting slot locks.
type MeetingLockHandler struct {
	service *service.MeetingLockService
}

// NewMeetingLockHandler constructs a meeting lock handler.
func NewMeetingLockHandler(svc *service.MeetingLockService) *MeetingLockHandler {
	return &MeetingLockHandler{service: svc}
}

// Lock godoc
// @Summary Block a slot for a scope of teachers with a locked meeting entry
// @Description Replaces whatever those teachers had in the slot; without confirm=true the response previews the teacher count.
// @Tags Meetings
// @Accept json
// @Produce json
// @Param payload body dto.MeetingLockRequest true "Meeting lock payload"
// @Success 200 {object} response.Envelope
// @Router /meetings/lock [post]
func (h *MeetingLockHandler) Lock(c *gin.Context) {
	var req dto.MeetingLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := h.service.Lock(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Free godoc
// @Summary Remove the scope's rows from one slot
// @Tags Meetings
// @Accept json
// @Produce json
// @Param payload body dto.MeetingFreeRequest true "Meeting free payload"
// @Success 200 {object} response.Envelope
// @Router /meetings/free [post]
func (h *MeetingLockHandler) Free(c *gin.Context) {
	var req dto.MeetingFreeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := h.service.Free(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
