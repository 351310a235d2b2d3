package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/glowlabs-ai/glow-backend/internal/handlers"
	"github.com/glowlabs-ai/glow-backend/internal/middleware"
)

type RouterConfig struct {
	SyncHandler        *handlers.SyncHandler
	SSEHandler         *handlers.SSEHandler
	IdentityMiddleware *middleware.IdentityMiddleware
	AllowOrigins       []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-User-ID"},
		AllowCredentials: true,
	}))

	router.Use(middleware.AttachTraceContext())

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.IdentityMiddleware.RequireUser())
	{
		api.POST("/sync/trigger", cfg.SyncHandler.TriggerSync)
		api.GET("/sync/status", cfg.SyncHandler.GetSyncStatus)
		api.GET("/sync/jobs", cfg.SyncHandler.ListSyncJobs)
		api.GET("/sync/jobs/:id", cfg.SyncHandler.GetSyncJob)
		api.POST("/sync/jobs/:id/retry", cfg.SyncHandler.RetrySyncJob)
		api.GET("/sync/stream", cfg.SSEHandler.SyncStream)
	}

	return router
}
