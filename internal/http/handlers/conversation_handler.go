// README: Conversation boundary: one message in, context + response out.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wander/internal/modules/conversation"
	"wander/internal/modules/generation"
	"wander/internal/types"
)

type ConversationHandler struct {
	conv     *conversation.Service
	registry *generation.Registry
	quota    QuotaConsumer
}

// NewConversationHandler wires the conversation service to the generation
// registry. quota may be nil when no database is configured.
func NewConversationHandler(conv *conversation.Service, registry *generation.Registry, q QuotaConsumer) *ConversationHandler {
	return &ConversationHandler{conv: conv, registry: registry, quota: q}
}

type messageReq struct {
	SessionID string `json:"session_id"`
	Context   string `json:"context"`
	Text      string `json:"text"`
	UserID    string `json:"user_id"`
}

type messageResp struct {
	SessionID  types.ID              `json:"session_id"`
	Context    string                `json:"context"`
	Response   conversation.Response `json:"response"`
	JobID      types.ID              `json:"job_id,omitempty"`
	Generation *generation.Snapshot  `json:"generation,omitempty"`
}

// Message runs one conversation turn. When the turn produces a start signal
// the generation job is launched immediately and its id returned; while a
// session is generating, each turn carries the job's latest snapshot.
func (h *ConversationHandler) Message(c *gin.Context) {
	var req messageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Text == "" {
		writeError(c, http.StatusBadRequest, "text is required")
		return
	}

	convCtx, resp, err := h.conv.ProcessMessage(c.Request.Context(), types.ID(req.SessionID), req.Context, req.Text)
	if err != nil {
		if errors.Is(err, conversation.ErrBadContext) {
			writeError(c, http.StatusBadRequest, "malformed context")
			return
		}
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}

	out := messageResp{SessionID: convCtx.SessionID, Response: resp}

	if resp.Kind == conversation.ResponseStartGeneration {
		jobID, err := h.startGeneration(c, convCtx, resp.Data, req.UserID)
		if err != nil {
			return // response already written
		}
		out.JobID = jobID
	} else if convCtx.State == conversation.StateGenerating && convCtx.JobID != "" {
		out.JobID = convCtx.JobID
		if snap, err := h.registry.Poll(convCtx.JobID); err == nil {
			out.Generation = &snap
			switch snap.Stage {
			case generation.StageComplete:
				_ = h.conv.HandleGenerationComplete(c.Request.Context(), convCtx)
			case generation.StageError:
				_ = h.conv.HandleGenerationFailed(c.Request.Context(), convCtx)
			}
		}
	}

	encoded, err := convCtx.Encode()
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	out.Context = encoded
	c.JSON(http.StatusOK, out)
}

// startGeneration checks quota, launches the job, and binds it to the
// session. On any failure the session is rolled back to confirmation so the
// user can retry.
func (h *ConversationHandler) startGeneration(c *gin.Context, convCtx *conversation.Context, data conversation.CollectedData, userID string) (types.ID, error) {
	ctx := c.Request.Context()

	if h.quota != nil && userID != "" {
		if err := h.quota.Consume(ctx, userID); err != nil {
			_ = h.conv.HandleGenerationFailed(ctx, convCtx)
			writeGenerationError(c, err)
			return "", err
		}
	}

	jobID, err := h.registry.Start(generation.Params{
		Destinations: data.Destinations,
		DaysPerCity:  data.DaysPerCity,
		TotalDays:    data.DurationDays,
		StartDate:    data.StartDate,
		DatePhrase:   data.DatePhrase,
		Travelers:    data.Travelers,
		Preferences:  data.Preferences,
		UserID:       types.ID(userID),
	})
	if err != nil {
		_ = h.conv.HandleGenerationFailed(ctx, convCtx)
		writeError(c, http.StatusBadRequest, err.Error())
		return "", err
	}

	_ = h.conv.AttachJob(ctx, convCtx, jobID)
	return jobID, nil
}
