package main

import (
	"database/sql"
	"net/http"
	"time"

	"receptionist-platform/internal/auth"
	"receptionist-platform/internal/config"
	"receptionist-platform/internal/conversations"
	"receptionist-platform/internal/httpapi"
	"receptionist-platform/internal/ingest"
	"receptionist-platform/internal/reporting"
	"receptionist-platform/internal/telephony"
	"receptionist-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type routeDeps struct {
	cfg           config.Config
	conversations *conversations.Service
	reporting     *reporting.Service
	authManager   *auth.Manager
	redis         *redis.Client
	db            *sql.DB
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), deps.db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Provider webhook (public).
	// NOTE: This endpoint should be protected by Twilio signature validation in production.
	{
		h := telephony.InboundCallHandler{
			Conversations: deps.conversations,
			Agent: telephony.AgentEndpoint{
				StreamURL: deps.cfg.Agent.StreamURL,
				AgentID:   deps.cfg.Agent.AgentID,
				APIKey:    deps.cfg.Agent.APIKey,
			},
			Dedup: telephony.NewRedisDeduper(deps.redis, deps.cfg.Agent.DedupTTL),
		}
		r.POST("/webhooks/twilio/voice", h.HandleInboundCall)
	}

	// Voice-agent transcript callbacks, authorized by a static bearer token.
	{
		h := ingest.Handlers{Conversations: deps.conversations}
		g := r.Group("/ingest")
		g.Use(ingest.RequireToken(deps.cfg.Ingest.Token))
		g.POST("/messages", h.AppendMessage)
		g.POST("/status", h.ReportStatus)
	}

	// Dashboard read API (JWT-protected).
	{
		h := httpapi.Handlers{
			Conversations: deps.conversations,
			Reporting:     deps.reporting,
		}
		v1 := r.Group("/v1")
		v1.Use(auth.RequireAccessToken(deps.authManager))
		v1.GET("/conversations", h.ListConversations)
		v1.GET("/conversations/:id/messages", h.ListMessages)
		v1.GET("/reports/summary", h.CallsSummary)
	}
}
