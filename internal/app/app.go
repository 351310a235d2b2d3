package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/glowlabs-ai/glow-backend/internal/domain"
	"github.com/glowlabs-ai/glow-backend/internal/platform/db"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
	"github.com/glowlabs-ai/glow-backend/internal/platform/observability"
	"github.com/glowlabs-ai/glow-backend/internal/platform/redisbus"
	"github.com/glowlabs-ai/glow-backend/internal/sse"
	"github.com/glowlabs-ai/glow-backend/internal/sync"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	SSEHub   *sse.Hub
	Bus      redisbus.Bus
	cancel   context.CancelFunc
	otelStop func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelStop := observability.Init(context.Background(), log, observability.Config{
		ServiceName: "glow-backend",
		Environment: logMode,
		Version:     os.Getenv("SERVICE_VERSION"),
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	hub := sse.NewHub(log)

	var bus redisbus.Bus
	if cfg.RedisAddr != "" {
		bus, err = redisbus.New(log)
		if err != nil {
			// single-instance fallback: progress still reaches local SSE clients
			log.Warn("Redis bus unavailable, progress stays in-process", "error", err)
			bus = nil
		}
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(log, cfg, reposet)
	handlerset := wireHandlers(log, serviceset, hub)
	middleware := wireMiddleware(log)
	router := wireRouter(cfg, handlerset, middleware)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		SSEHub:   hub,
		Bus:      bus,
		otelStop: otelStop,
	}, nil
}

// Start wires the progress pipeline: broker snapshots go onto the redis bus
// (or straight to the hub when there is no bus), and bus messages from any
// instance are forwarded to this instance's SSE clients.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	progressCh, cancelSub := a.Services.Broker.Subscribe()
	go func() {
		defer cancelSub()
		for {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-progressCh:
				if !ok {
					return
				}
				a.dispatchProgress(ctx, p)
			}
		}
	}()

	if a.Bus != nil {
		err := a.Bus.StartForwarder(ctx, func(m redisbus.Message) {
			a.SSEHub.Broadcast(sse.Message{
				Channel: m.Channel,
				Event:   sse.Event(m.Event),
				Data:    m.Data,
			})
		})
		if err != nil {
			return fmt.Errorf("start bus forwarder: %w", err)
		}
	}
	return nil
}

func (a *App) dispatchProgress(ctx context.Context, p sync.Progress) {
	msg := sse.Message{
		Channel: sse.UserChannel(p.UserID),
		Event:   progressEvent(p),
		Data:    p,
	}
	if a.Bus == nil {
		a.SSEHub.Broadcast(msg)
		return
	}
	err := a.Bus.Publish(ctx, redisbus.Message{
		Channel: msg.Channel,
		Event:   string(msg.Event),
		Data:    msg.Data,
	})
	if err != nil {
		a.Log.Warn("failed to publish progress to bus", "error", err)
		a.SSEHub.Broadcast(msg)
	}
}

// progressEvent classifies a snapshot: still running, all modules done, or
// done with at least one failure.
func progressEvent(p sync.Progress) sse.Event {
	settled := 0
	failed := 0
	for _, r := range p.Results {
		switch r.Status {
		case domain.ModuleResultCompleted:
			settled++
		case domain.ModuleResultFailed:
			settled++
			failed++
		}
	}
	if settled < p.TotalModules {
		return sse.EventSyncProgress
	}
	if failed > 0 {
		return sse.EventSyncFailed
	}
	return sse.EventSyncCompleted
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Warn("failed to close redis bus", "error", err)
		}
	}
	if a.otelStop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelStop(ctx); err != nil {
			a.Log.Warn("failed to flush otel traces", "error", err)
		}
		cancel()
		a.otelStop = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
