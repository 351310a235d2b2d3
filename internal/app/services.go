package app

import (
	"github.com/glowlabs-ai/glow-backend/internal/modules"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
	"github.com/glowlabs-ai/glow-backend/internal/sync"
)

type Services struct {
	Sync     sync.Service
	Broker   *sync.Broker
	Registry sync.Registry
}

func wireServices(log *logger.Logger, cfg Config, repos Repos) Services {
	log.Info("Wiring services...")

	builder := sync.NewBuilder(log, repos.Profiles, repos.Personas, repos.Photos, repos.Content)
	registry := modules.RegisterAll(modules.Deps{
		Log:     log,
		Photos:  repos.Photos,
		Content: repos.Content,
	})
	executor := sync.NewExecutor(log, registry)
	broker := sync.NewBroker()

	svc := sync.NewService(log, repos.SyncJobs, repos.Profiles, repos.Events, builder, executor, broker, sync.Options{
		Cooldown:         cfg.Cooldown,
		StaleLockTimeout: cfg.StaleLockTimeout,
	})

	return Services{
		Sync:     svc,
		Broker:   broker,
		Registry: registry,
	}
}
