package identity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glowlabs-ai/glow-backend/internal/domain"
	"github.com/glowlabs-ai/glow-backend/internal/platform/dbctx"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
)

type PersonaRepo interface {
	Create(dbc dbctx.Context, personas []*domain.Persona) ([]*domain.Persona, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.Persona, error)
}

type personaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPersonaRepo(db *gorm.DB, baseLog *logger.Logger) PersonaRepo {
	return &personaRepo{
		db:  db,
		log: baseLog.With("repo", "PersonaRepo"),
	}
}

func (r *personaRepo) Create(dbc dbctx.Context, personas []*domain.Persona) ([]*domain.Persona, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(personas) == 0 {
		return []*domain.Persona{}, nil
	}
	for _, p := range personas {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&personas).Error; err != nil {
		return nil, err
	}
	return personas, nil
}

func (r *personaRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.Persona, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.Persona
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
