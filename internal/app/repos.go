package app

import (
	"gorm.io/gorm"

	"github.com/glowlabs-ai/glow-backend/internal/data/repos/events"
	"github.com/glowlabs-ai/glow-backend/internal/data/repos/identity"
	"github.com/glowlabs-ai/glow-backend/internal/data/repos/syncjobs"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
)

type Repos struct {
	Profiles identity.ProfileRepo
	Personas identity.PersonaRepo
	Photos   identity.PhotoRepo
	Content  identity.ContentRepo
	SyncJobs syncjobs.SyncJobRepo
	Events   events.UserEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Profiles: identity.NewProfileRepo(db, log),
		Personas: identity.NewPersonaRepo(db, log),
		Photos:   identity.NewPhotoRepo(db, log),
		Content:  identity.NewContentRepo(db, log),
		SyncJobs: syncjobs.NewSyncJobRepo(db, log),
		Events:   events.NewUserEventRepo(db, log),
	}
}
