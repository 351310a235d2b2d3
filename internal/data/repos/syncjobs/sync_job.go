package syncjobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glowlabs-ai/glow-backend/internal/domain"
	"github.com/glowlabs-ai/glow-backend/internal/platform/dbctx"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
)

type SyncJobRepo interface {
	Create(dbc dbctx.Context, job *domain.SyncJob) (*domain.SyncJob, error)
	GetByID(dbc dbctx.Context, id, userID uuid.UUID) (*domain.SyncJob, error)
	// GetActiveForUser returns the newest in_progress job, nil when none.
	GetActiveForUser(dbc dbctx.Context, userID uuid.UUID) (*domain.SyncJob, error)
	// GetLatestCompleted returns the newest job with status completed; the
	// cooldown window is measured from its completed_at.
	GetLatestCompleted(dbc dbctx.Context, userID uuid.UUID) (*domain.SyncJob, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]*domain.SyncJob, int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// UpdateFieldsUnlessStatus applies updates only while the row's status is
	// not one of the disallowed set; reports whether a row changed. Late
	// writes from abandoned module tasks are dropped through this guard.
	UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error)
	// FailStale conditionally flips an in_progress job to failed.
	FailStale(dbc dbctx.Context, id uuid.UUID, reason string) (bool, error)
}

type syncJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSyncJobRepo(db *gorm.DB, baseLog *logger.Logger) SyncJobRepo {
	return &syncJobRepo{
		db:  db,
		log: baseLog.With("repo", "SyncJobRepo"),
	}
}

func (r *syncJobRepo) Create(dbc dbctx.Context, job *domain.SyncJob) (*domain.SyncJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if job == nil {
		return nil, nil
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if len(job.ModuleResults) == 0 {
		job.ModuleResults = domain.MarshalModuleResults(nil)
	}
	if err := transaction.WithContext(dbc.Ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *syncJobRepo) GetByID(dbc dbctx.Context, id, userID uuid.UUID) (*domain.SyncJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var job domain.SyncJob
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Limit(1).
		Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

func (r *syncJobRepo) GetActiveForUser(dbc dbctx.Context, userID uuid.UUID) (*domain.SyncJob, error) {
	return r.latestByStatus(dbc, userID, domain.SyncJobInProgress, "started_at DESC")
}

func (r *syncJobRepo) GetLatestCompleted(dbc dbctx.Context, userID uuid.UUID) (*domain.SyncJob, error) {
	return r.latestByStatus(dbc, userID, domain.SyncJobCompleted, "completed_at DESC")
}

func (r *syncJobRepo) latestByStatus(dbc dbctx.Context, userID uuid.UUID, status, order string) (*domain.SyncJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var job domain.SyncJob
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND status = ?", userID, status).
		Order(order).
		Limit(1).
		Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

func (r *syncJobRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]*domain.SyncJob, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.SyncJob
	if userID == uuid.Nil {
		return out, 0, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var total int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&domain.SyncJob{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *syncJobRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&domain.SyncJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *syncJobRepo) UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}

	q := transaction.WithContext(dbc.Ctx).
		Model(&domain.SyncJob{}).
		Where("id = ?", id)
	if len(disallowedStatuses) == 1 {
		q = q.Where("status <> ?", disallowedStatuses[0])
	} else if len(disallowedStatuses) > 1 {
		q = q.Where("status NOT IN ?", disallowedStatuses)
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *syncJobRepo) FailStale(dbc dbctx.Context, id uuid.UUID, reason string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	now := time.Now()
	res := transaction.WithContext(dbc.Ctx).
		Model(&domain.SyncJob{}).
		Where("id = ? AND status = ?", id, domain.SyncJobInProgress).
		Updates(map[string]interface{}{
			"status":       domain.SyncJobFailed,
			"error":        reason,
			"completed_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
