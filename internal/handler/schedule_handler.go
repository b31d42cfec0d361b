package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "dayplan/internal/errors"
	"dayplan/internal/model"
	"dayplan/internal/service"
)

type ScheduleHandler struct {
	scheduleService *service.ScheduleService
}

type workItemRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	EstimatedMinutes *int   `json:"estimatedMinutes"`
	Order            int    `json:"order"`
}

type breakdownRequest struct {
	Text      string `json:"text"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type scheduleRequest struct {
	UserInput string            `json:"userInput"`
	Items     []workItemRequest `json:"items"`
	StartTime string            `json:"startTime"`
	EndTime   string            `json:"endTime"`
}

type confirmRequest struct {
	Items []workItemRequest `json:"items"`
}

func NewScheduleHandler(scheduleService *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

func (h *ScheduleHandler) Breakdown(c *gin.Context) {
	var req breakdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	schedule, apiErr := h.scheduleService.Breakdown(c.Request.Context(), service.BreakdownInput{
		Text:      req.Text,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"schedule": schedule})
}

func (h *ScheduleHandler) Create(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}
	if len(req.Items) == 0 {
		writeError(c, apperrors.BadRequest("invalid_items", "at least one item is required"))
		return
	}

	schedule, apiErr := h.scheduleService.Schedule(c.Request.Context(), service.ScheduleInput{
		UserInput: req.UserInput,
		Items:     toWorkItems(req.Items),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"schedule": schedule})
}

func (h *ScheduleHandler) List(c *gin.Context) {
	confirmedOnly := false
	if raw := c.Query("confirmed"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, apperrors.BadRequest("invalid_query", "confirmed must be a boolean"))
			return
		}
		confirmedOnly = parsed
	}

	schedules, apiErr := h.scheduleService.List(c.Request.Context(), confirmedOnly)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, apiErr := h.scheduleService.Get(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": schedule})
}

func (h *ScheduleHandler) Delete(c *gin.Context) {
	if apiErr := h.scheduleService.Delete(c.Request.Context(), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ScheduleHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}
	if len(req.Items) == 0 {
		writeError(c, apperrors.BadRequest("invalid_items", "at least one item is required"))
		return
	}

	schedule, apiErr := h.scheduleService.Confirm(c.Request.Context(), c.Param("id"), toWorkItems(req.Items))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": schedule})
}

func (h *ScheduleHandler) Progress(c *gin.Context) {
	progress, apiErr := h.scheduleService.Progress(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

func (h *ScheduleHandler) Tips(c *gin.Context) {
	tips, apiErr := h.scheduleService.Tips(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tips": tips})
}

// toWorkItems fills in the default duration for items sent without one.
func toWorkItems(reqs []workItemRequest) []model.WorkItem {
	items := make([]model.WorkItem, 0, len(reqs))
	for _, req := range reqs {
		minutes := model.DefaultEstimatedMinutes
		if req.EstimatedMinutes != nil {
			minutes = *req.EstimatedMinutes
		}
		items = append(items, model.WorkItem{
			Title:            req.Title,
			Description:      req.Description,
			EstimatedMinutes: minutes,
			Order:            req.Order,
		})
	}
	return items
}
