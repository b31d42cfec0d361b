package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "dayplan/internal/errors"
	"dayplan/internal/service"
)

type ItemHandler struct {
	scheduleService *service.ScheduleService
}

type elapsedRequest struct {
	Seconds *int `json:"seconds"`
}

func NewItemHandler(scheduleService *service.ScheduleService) *ItemHandler {
	return &ItemHandler{scheduleService: scheduleService}
}

func (h *ItemHandler) Start(c *gin.Context) {
	h.transition(c, h.scheduleService.Start)
}

func (h *ItemHandler) Pause(c *gin.Context) {
	h.transition(c, h.scheduleService.Pause)
}

func (h *ItemHandler) Resume(c *gin.Context) {
	h.transition(c, h.scheduleService.Resume)
}

func (h *ItemHandler) Complete(c *gin.Context) {
	h.transition(c, h.scheduleService.Complete)
}

func (h *ItemHandler) ReportElapsed(c *gin.Context) {
	var req elapsedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}
	if req.Seconds == nil {
		writeError(c, apperrors.BadRequest("invalid_seconds", "seconds is required"))
		return
	}

	view, apiErr := h.scheduleService.ReportElapsed(c.Request.Context(), c.Param("id"), *req.Seconds)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ItemHandler) Summary(c *gin.Context) {
	summary, apiErr := h.scheduleService.Summarize(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *ItemHandler) transition(
	c *gin.Context,
	apply func(ctx context.Context, itemID string) (*service.TimerView, *apperrors.APIError),
) {
	view, apiErr := apply(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, view)
}
