package ingest

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"receptionist-platform/internal/conversations"
	"receptionist-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers receives out-of-band events from the voice-agent session: discrete
// transcript messages and the terminal-status report.
//
// Unlike the call webhook, failures here are surfaced to the caller. A lost
// message should be visible to the upstream session so it can retry; there
// are no retries on this side.

type Handlers struct {
	Conversations *conversations.Service
}

// MessageEvent is one utterance emitted by the voice-agent session.
// transcript_summary and customer_name optionally refresh the conversation's
// denormalized fields; they never touch status.
type MessageEvent struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Speaker        string `json:"speaker" binding:"required,oneof=ai customer"`
	MessageText    string `json:"message_text" binding:"required"`

	TranscriptSummary string `json:"transcript_summary,omitempty"`
	CustomerName      string `json:"customer_name,omitempty"`
}

// StatusReport is the terminal outcome of a call.
type StatusReport struct {
	ConversationID  string `json:"conversation_id" binding:"required"`
	Status          string `json:"status" binding:"required,oneof=completed escalated no_action"`
	DurationSeconds int    `json:"duration_seconds" binding:"min=0"`
}

func (h Handlers) AppendMessage(c *gin.Context) {
	log := logger.FromGin(c)

	var ev MessageEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid message event"})
		return
	}

	msg, err := h.Conversations.AppendMessage(c.Request.Context(), conversations.AppendMessageInput{
		ConversationID:    ev.ConversationID,
		Speaker:           conversations.Speaker(ev.Speaker),
		MessageText:       ev.MessageText,
		TranscriptSummary: ev.TranscriptSummary,
		CustomerName:      ev.CustomerName,
	})
	if err != nil {
		status, body := mapError(err)
		log.Warn("message ingest rejected", "conversation_id", ev.ConversationID, "err", err)
		c.AbortWithStatusJSON(status, body)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

func (h Handlers) ReportStatus(c *gin.Context) {
	log := logger.FromGin(c)

	var rep StatusReport
	if err := c.ShouldBindJSON(&rep); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid status report"})
		return
	}

	err := h.Conversations.Finalize(c.Request.Context(), conversations.FinalizeInput{
		ConversationID:  rep.ConversationID,
		Status:          conversations.Status(rep.Status),
		DurationSeconds: rep.DurationSeconds,
	})
	if err != nil {
		status, body := mapError(err)
		log.Warn("status report rejected", "conversation_id", rep.ConversationID, "err", err)
		c.AbortWithStatusJSON(status, body)
		return
	}

	log.Info("conversation finalized",
		"conversation_id", rep.ConversationID,
		"status", rep.Status,
		"duration_seconds", rep.DurationSeconds)
	c.JSON(http.StatusOK, gin.H{"status": rep.Status})
}

func mapError(err error) (int, gin.H) {
	switch {
	case errors.Is(err, conversations.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": "conversation not found"}
	case errors.Is(err, conversations.ErrAlreadyFinal):
		return http.StatusConflict, gin.H{"error": "conversation already finalized"}
	case errors.Is(err, conversations.ErrInvalidInput):
		return http.StatusBadRequest, gin.H{"error": "invalid event"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "store unavailable"}
	}
}

// RequireToken authorizes the voice-agent session with a static bearer token.
func RequireToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		got, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || token == "" ||
			subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		c.Next()
	}
}
