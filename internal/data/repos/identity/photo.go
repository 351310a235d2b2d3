package identity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glowlabs-ai/glow-backend/internal/domain"
	"github.com/glowlabs-ai/glow-backend/internal/platform/dbctx"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
)

type PhotoRepo interface {
	Create(dbc dbctx.Context, photos []*domain.Photo) ([]*domain.Photo, error)
	// ListByUserOrdered returns the user's photos in context order: primary
	// first, then newest first.
	ListByUserOrdered(dbc dbctx.Context, userID uuid.UUID) ([]*domain.Photo, error)
	// UpdateRanking persists new scores and moves the primary flag to
	// primaryID in one pass.
	UpdateRanking(dbc dbctx.Context, userID uuid.UUID, scores map[uuid.UUID]float64, primaryID uuid.UUID) error
}

type photoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPhotoRepo(db *gorm.DB, baseLog *logger.Logger) PhotoRepo {
	return &photoRepo{
		db:  db,
		log: baseLog.With("repo", "PhotoRepo"),
	}
}

func (r *photoRepo) Create(dbc dbctx.Context, photos []*domain.Photo) ([]*domain.Photo, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(photos) == 0 {
		return []*domain.Photo{}, nil
	}
	for _, p := range photos {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

func (r *photoRepo) UpdateRanking(dbc dbctx.Context, userID uuid.UUID, scores map[uuid.UUID]float64, primaryID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || len(scores) == 0 {
		return nil
	}
	for id, score := range scores {
		updates := map[string]interface{}{
			"score":      score,
			"is_primary": id == primaryID,
		}
		if err := transaction.WithContext(dbc.Ctx).
			Model(&domain.Photo{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(updates).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *photoRepo) ListByUserOrdered(dbc dbctx.Context, userID uuid.UUID) ([]*domain.Photo, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.Photo
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("is_primary DESC, created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
