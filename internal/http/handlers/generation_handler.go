// README: Generation boundary: start, poll, cancel.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wander/internal/modules/generation"
	"wander/internal/types"
)

type GenerationHandler struct {
	registry *generation.Registry
	quota    QuotaConsumer
}

func NewGenerationHandler(registry *generation.Registry, q QuotaConsumer) *GenerationHandler {
	return &GenerationHandler{registry: registry, quota: q}
}

type startGenerationReq struct {
	Destinations []string `json:"destinations"`
	DaysPerCity  []int    `json:"days_per_city"`
	TotalDays    int      `json:"total_days"`
	StartDate    string   `json:"start_date"`
	DatePhrase   string   `json:"date_phrase"`
	Travelers    string   `json:"travelers"`
	Preferences  []string `json:"preferences"`
	UserID       string   `json:"user_id"`
}

// Start launches a generation job directly, bypassing the conversation.
func (h *GenerationHandler) Start(c *gin.Context) {
	var req startGenerationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	if h.quota != nil && req.UserID != "" {
		if err := h.quota.Consume(c.Request.Context(), req.UserID); err != nil {
			writeGenerationError(c, err)
			return
		}
	}

	jobID, err := h.registry.Start(generation.Params{
		Destinations: req.Destinations,
		DaysPerCity:  req.DaysPerCity,
		TotalDays:    req.TotalDays,
		StartDate:    req.StartDate,
		DatePhrase:   req.DatePhrase,
		Travelers:    req.Travelers,
		Preferences:  req.Preferences,
		UserID:       types.ID(req.UserID),
	})
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

// Poll returns the job's latest snapshot. Callers poll until the stage is
// terminal.
func (h *GenerationHandler) Poll(c *gin.Context) {
	jobID := types.ID(c.Param("id"))
	snap, err := h.registry.Poll(jobID)
	if err != nil {
		writeGenerationError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Cancel aborts a running job.
func (h *GenerationHandler) Cancel(c *gin.Context) {
	jobID := types.ID(c.Param("id"))
	if err := h.registry.Cancel(jobID); err != nil {
		writeGenerationError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "status": "canceling"})
}
