package identity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glowlabs-ai/glow-backend/internal/domain"
	"github.com/glowlabs-ai/glow-backend/internal/platform/dbctx"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
)

type ContentRepo interface {
	Create(dbc dbctx.Context, rows []*domain.GeneratedContent) ([]*domain.GeneratedContent, error)
	// ListRecentSummaries projects the newest k generations down to
	// id/type/timestamp, which is all the sync context carries.
	ListRecentSummaries(dbc dbctx.Context, userID uuid.UUID, k int) ([]domain.ContentSummary, error)
}

type contentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentRepo(db *gorm.DB, baseLog *logger.Logger) ContentRepo {
	return &contentRepo{
		db:  db,
		log: baseLog.With("repo", "ContentRepo"),
	}
}

func (r *contentRepo) Create(dbc dbctx.Context, rows []*domain.GeneratedContent) ([]*domain.GeneratedContent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*domain.GeneratedContent{}, nil
	}
	for _, c := range rows {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *contentRepo) ListRecentSummaries(dbc dbctx.Context, userID uuid.UUID, k int) ([]domain.ContentSummary, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []domain.ContentSummary
	if userID == uuid.Nil || k <= 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&domain.GeneratedContent{}).
		Select("id", "type", "created_at").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(k).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
