// Package api wires the HTTP surface of the marketplace dashboard backend.
//
// Route grouping philosophy:
//   - /healthz, /readyz, and /version are public probes.
//   - /api/v1/auth/login is public but rate limited.
//   - /api/v1/consume is public: the credential is the presented API key
//     itself, validated by the consumption pipeline, so no JWT is required.
//   - Everything else under /api/v1 requires a JWT; role gates narrow the
//     merchant, consumer, and admin surfaces.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/service-marketplace/service-marketplace/internal/audit"
	"github.com/service-marketplace/service-marketplace/internal/config"
	"github.com/service-marketplace/service-marketplace/internal/consumption"
	"github.com/service-marketplace/service-marketplace/internal/credentials"
	"github.com/service-marketplace/service-marketplace/internal/db/models"
	"github.com/service-marketplace/service-marketplace/internal/jobs"
	"github.com/service-marketplace/service-marketplace/internal/lifecycle"
	"github.com/service-marketplace/service-marketplace/internal/middleware"
	"github.com/service-marketplace/service-marketplace/internal/query"
	"github.com/service-marketplace/service-marketplace/internal/safego"
	"github.com/service-marketplace/service-marketplace/internal/store"
)

// BackgroundServices holds the background goroutines the router starts. The
// caller (cmd/server) calls Shutdown after the HTTP server has drained.
type BackgroundServices struct {
	keyExpirySweeper *jobs.KeyExpirySweeper
	rateLimiters     []*middleware.RateLimiter
}

// Shutdown stops all background goroutines.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.keyExpirySweeper != nil {
		bg.keyExpirySweeper.Stop()
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router over the given store.
func NewRouter(cfg *config.Config, st store.Store) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	rec := audit.NewRecorder(st)
	lc := lifecycle.NewManager(st, rec)
	creds := credentials.NewManager(st, rec)
	validator := consumption.NewValidator(st)
	queries := query.New(st)

	sweeper := jobs.NewKeyExpirySweeper(st, cfg.Jobs.KeyExpirySweepInterval)
	safego.Go(func() { sweeper.Start(context.Background()) })

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Security.CORS.AllowedOrigins, cfg.Security.CORS.AllowedMethods))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	router.GET("/healthz", healthCheckHandler())
	router.GET("/readyz", readinessHandler(st))
	router.GET("/version", versionHandler())

	authHandlers := NewAuthHandlers(st)
	merchantHandlers := NewMerchantHandlers(lc, st)
	consumerHandlers := NewConsumerHandlers(lc, st)
	serviceHandlers := NewServiceHandlers(lc, queries, st)
	accessHandlers := NewAccessRequestHandlers(lc, queries, st)
	apiKeyHandlers := NewAPIKeyHandlers(creds, queries, st)
	imageHandlers := NewImageHandlers(lc, st)
	consumeHandlers := NewConsumeHandlers(validator)
	usageHandlers := NewUsageHandlers(queries)
	auditHandlers := NewAuditHandlers(queries)

	var rateLimiters []*middleware.RateLimiter

	apiV1 := router.Group("/api/v1")
	if cfg.Security.RateLimiting.Enabled {
		rl := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: cfg.Security.RateLimiting.RequestsPerMinute,
			BurstSize:         cfg.Security.RateLimiting.Burst,
			CleanupInterval:   5 * time.Minute,
		})
		apiV1.Use(middleware.RateLimitMiddleware(rl))
		rateLimiters = append(rateLimiters, rl)
	}

	// Public endpoints: login issues the JWT, consume authenticates with the
	// presented API key inside the validation pipeline.
	apiV1.POST("/auth/login", authHandlers.Login)
	apiV1.POST("/consume", consumeHandlers.Simulate)

	authed := apiV1.Group("")
	authed.Use(middleware.RequireAuth())
	{
		// Catalog reads are open to any authenticated role.
		authed.GET("/services", serviceHandlers.List)
		authed.GET("/services/:id", serviceHandlers.Get)
		authed.GET("/services/:id/images", imageHandlers.ListForService)
		authed.GET("/usage/summary", usageHandlers.Summary)

		merchant := authed.Group("", middleware.RequireRole(models.RoleMerchant, models.RoleAdmin))
		{
			merchant.POST("/services", serviceHandlers.Create)
			merchant.PATCH("/services/:id", serviceHandlers.Update)
			merchant.GET("/services/:id/access-requests", accessHandlers.ListForService)
			merchant.GET("/services/:id/blocks", consumerHandlers.ListBlocksForService)
			merchant.POST("/services/:id/blocks/:consumer_id", consumerHandlers.BlockForService)
			merchant.DELETE("/services/:id/blocks/:consumer_id", consumerHandlers.UnblockForService)
			merchant.POST("/access-requests/:id/approve", accessHandlers.Approve)
			merchant.POST("/access-requests/:id/deny", accessHandlers.Deny)
		}

		consumer := authed.Group("", middleware.RequireRole(models.RoleConsumer, models.RoleAdmin))
		{
			consumer.POST("/access-requests", accessHandlers.Create)
			consumer.GET("/access-requests", accessHandlers.ListForConsumer)
			consumer.POST("/apikeys", apiKeyHandlers.Issue)
			consumer.GET("/apikeys", apiKeyHandlers.List)
			consumer.POST("/apikeys/:id/revoke", apiKeyHandlers.Revoke)
		}

		adminGroup := authed.Group("/admin", middleware.RequireRole(models.RoleAdmin))
		{
			adminGroup.GET("/merchants", merchantHandlers.List)
			adminGroup.POST("/merchants/invite", merchantHandlers.Invite)
			adminGroup.POST("/merchants/:id/approve", merchantHandlers.Approve)
			adminGroup.POST("/merchants/:id/reject", merchantHandlers.Reject)
			adminGroup.POST("/merchants/:id/suspend", merchantHandlers.Suspend)
			adminGroup.POST("/merchants/:id/unsuspend", merchantHandlers.Unsuspend)
			adminGroup.POST("/merchants/:id/disable", merchantHandlers.Disable)
			adminGroup.POST("/merchants/:id/flag", merchantHandlers.Flag)
			adminGroup.POST("/merchants/:id/unflag", merchantHandlers.Unflag)
			adminGroup.POST("/merchants/:id/block-subscriptions", merchantHandlers.BlockSubscriptions)
			adminGroup.POST("/merchants/:id/unblock-subscriptions", merchantHandlers.UnblockSubscriptions)

			adminGroup.POST("/consumers/:id/block", consumerHandlers.Block)
			adminGroup.POST("/consumers/:id/unblock", consumerHandlers.Unblock)
			adminGroup.POST("/consumers/:id/apikeys/revoke-all", apiKeyHandlers.RevokeAll)

			adminGroup.POST("/services/:id/approve", serviceHandlers.Approve)
			adminGroup.POST("/services/:id/reject", serviceHandlers.Reject)

			adminGroup.POST("/apikeys/:id/regenerate", apiKeyHandlers.ForceRegenerate)

			adminGroup.POST("/images/:id/deprecate", imageHandlers.Deprecate)
			adminGroup.POST("/images/:id/disable", imageHandlers.Disable)

			adminGroup.GET("/audit-logs", auditHandlers.List)
		}
	}

	bg := &BackgroundServices{
		keyExpirySweeper: sweeper,
		rateLimiters:     rateLimiters,
	}
	return router, bg
}

// healthCheckHandler returns the liveness status of the service.
func healthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler probes the store with a cheap lookup. For the memory
// driver this is a no-op; for Postgres it exercises a real round trip.
func readinessHandler(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := st.GetUser(c.Request.Context(), ".readiness-probe"); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready": false,
				"error": "store not ready",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"ready": true,
			"time":  time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version.
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware emits one structured log record per request.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", c.GetString(middleware.RequestIDKey)),
		)
	}
}
