package app

import (
	"github.com/glowlabs-ai/glow-backend/internal/middleware"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
)

type Middleware struct {
	Identity *middleware.IdentityMiddleware
}

func wireMiddleware(log *logger.Logger) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Identity: middleware.NewIdentityMiddleware(log),
	}
}
