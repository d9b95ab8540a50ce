package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"receptionist-platform/internal/conversations"
	"receptionist-platform/internal/reporting"

	"github.com/gin-gonic/gin"
)

// Handlers expose the read contract consumed by the dashboard: recent
// conversations newest-first with a bounded page size, a conversation's
// messages in creation order, and aggregate stats.
//
// Read-only by design; all writes go through the webhook and ingest paths.

type Handlers struct {
	Conversations *conversations.Service
	Reporting     *reporting.Service
}

func (h Handlers) ListConversations(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	out, err := h.Conversations.Recent(c.Request.Context(), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": out})
}

func (h Handlers) ListMessages(c *gin.Context) {
	id := c.Param("id")

	out, err := h.Conversations.Messages(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, conversations.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

// CallsSummary aggregates a time window; defaults to the last 24 hours,
// matching the dashboard's "today" cards.
func (h Handlers) CallsSummary(c *gin.Context) {
	now := time.Now().UTC()
	from, to := now.Add(-24*time.Hour), now

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
		to = t
	}

	out, err := h.Reporting.CallsSummary(c.Request.Context(), reporting.SummaryRequest{
		Range: reporting.TimeRange{From: from, To: to},
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, out)
}
