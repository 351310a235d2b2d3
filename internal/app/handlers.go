package app

import (
	"github.com/glowlabs-ai/glow-backend/internal/handlers"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
	"github.com/glowlabs-ai/glow-backend/internal/sse"
)

type Handlers struct {
	Sync *handlers.SyncHandler
	SSE  *handlers.SSEHandler
}

func wireHandlers(log *logger.Logger, services Services, hub *sse.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Sync: handlers.NewSyncHandler(services.Sync),
		SSE:  handlers.NewSSEHandler(log, hub),
	}
}
