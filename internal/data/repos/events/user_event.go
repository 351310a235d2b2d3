package events

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/glowlabs-ai/glow-backend/internal/domain"
	"github.com/glowlabs-ai/glow-backend/internal/platform/dbctx"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
)

// UserEventRepo is write-only: the sync subsystem appends lifecycle events
// and never reads them back.
type UserEventRepo interface {
	Append(dbc dbctx.Context, userID uuid.UUID, eventType string, payload map[string]any) error
}

type userEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserEventRepo(db *gorm.DB, baseLog *logger.Logger) UserEventRepo {
	return &userEventRepo{
		db:  db,
		log: baseLog.With("repo", "UserEventRepo"),
	}
}

func (r *userEventRepo) Append(dbc dbctx.Context, userID uuid.UUID, eventType string, payload map[string]any) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || eventType == "" {
		return nil
	}
	data := datatypes.JSON([]byte("{}"))
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			data = datatypes.JSON(raw)
		}
	}
	event := &domain.UserEvent{
		ID:     uuid.New(),
		UserID: userID,
		Type:   eventType,
		Data:   data,
	}
	return transaction.WithContext(dbc.Ctx).Create(event).Error
}
