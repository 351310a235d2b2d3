package identity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glowlabs-ai/glow-backend/internal/domain"
	"github.com/glowlabs-ai/glow-backend/internal/platform/dbctx"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
)

type ProfileRepo interface {
	Create(dbc dbctx.Context, profile *domain.IdentityProfile) (*domain.IdentityProfile, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*domain.IdentityProfile, error)
	// AcquireSyncLock flips sync_status idle -> in_progress with a single
	// conditional update. Returns false when another sync holds the lock.
	AcquireSyncLock(dbc dbctx.Context, userID uuid.UUID) (bool, error)
	// ReleaseSyncLock unconditionally resets sync_status to idle. A non-nil
	// syncedAt also records last_synced_at; a forced release of a stale lock
	// passes nil to leave the previous sync time untouched.
	ReleaseSyncLock(dbc dbctx.Context, userID uuid.UUID, syncedAt *time.Time) error
	UpdateFields(dbc dbctx.Context, userID uuid.UUID, updates map[string]interface{}) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{
		db:  db,
		log: baseLog.With("repo", "ProfileRepo"),
	}
}

func (r *profileRepo) Create(dbc dbctx.Context, profile *domain.IdentityProfile) (*domain.IdentityProfile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if profile == nil {
		return nil, nil
	}
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	if profile.SyncStatus == "" {
		profile.SyncStatus = domain.SyncStatusIdle
	}
	if err := transaction.WithContext(dbc.Ctx).Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *profileRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*domain.IdentityProfile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var profile domain.IdentityProfile
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&profile).Error
	if err != nil {
		return nil, err
	}
	if profile.ID == uuid.Nil {
		return nil, nil
	}
	return &profile, nil
}

func (r *profileRepo) AcquireSyncLock(dbc dbctx.Context, userID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return false, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&domain.IdentityProfile{}).
		Where("user_id = ? AND sync_status = ?", userID, domain.SyncStatusIdle).
		Updates(map[string]interface{}{
			"sync_status": domain.SyncStatusInProgress,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *profileRepo) ReleaseSyncLock(dbc dbctx.Context, userID uuid.UUID, syncedAt *time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil
	}
	updates := map[string]interface{}{
		"sync_status": domain.SyncStatusIdle,
		"updated_at":  time.Now(),
	}
	if syncedAt != nil {
		updates["last_synced_at"] = *syncedAt
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&domain.IdentityProfile{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
}

func (r *profileRepo) UpdateFields(dbc dbctx.Context, userID uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&domain.IdentityProfile{}).
		Where("user_id = ?", userID).
		Updates(updates).Error
}
