package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
	"github.com/glowlabs-ai/glow-backend/internal/sse"
)

type SSEHandler struct {
	log *logger.Logger
	hub *sse.Hub
}

func NewSSEHandler(log *logger.Logger, hub *sse.Hub) *SSEHandler {
	return &SSEHandler{
		log: log.With("handler", "SSEHandler"),
		hub: hub,
	}
}

// GET /api/sync/stream
// Holds the connection open and streams this user's sync progress events.
func (h *SSEHandler) SyncStream(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	client := h.hub.NewClient(userID)
	h.hub.AddChannel(client, sse.UserChannel(userID))
	defer h.hub.CloseClient(client)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
