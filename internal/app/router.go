package app

import (
	"github.com/gin-gonic/gin"

	"github.com/glowlabs-ai/glow-backend/internal/server"
)

func wireRouter(cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		SyncHandler:        handlers.Sync,
		SSEHandler:         handlers.SSE,
		IdentityMiddleware: middleware.Identity,
		AllowOrigins:       cfg.AllowOrigins,
	})
}
