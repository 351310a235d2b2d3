package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SyncJobInProgress = "in_progress"
	SyncJobCompleted  = "completed"
	SyncJobFailed     = "failed"
)

const (
	TriggeredByManual   = "manual"
	TriggeredByAuto     = "auto"
	TriggeredByFeedback = "feedback"
)

const (
	ModuleResultPending   = "pending"
	ModuleResultRunning   = "running"
	ModuleResultCompleted = "completed"
	ModuleResultFailed    = "failed"
)

// ModuleResult records one module's outcome inside a sync job. Only
// completed/failed ever reach the job row; pending/running exist in memory
// and in transient progress snapshots.
type ModuleResult struct {
	Module         string     `json:"module"`
	Status         string     `json:"status"` // pending|running|completed|failed
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ItemsProcessed int        `json:"items_processed"`
	Error          string     `json:"error,omitempty"`
}

// SyncJob is the durable record of one full-sync attempt. Rows are never
// deleted; together they form an append-only sync history per user.
type SyncJob struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Status           string         `gorm:"column:status;not null;index" json:"status"` // in_progress|completed|failed
	TriggeredBy      string         `gorm:"column:triggered_by;not null" json:"triggered_by"`
	TotalModules     int            `gorm:"column:total_modules;not null" json:"total_modules"`
	CompletedModules int            `gorm:"column:completed_modules;not null;default:0" json:"completed_modules"`
	CurrentModule    *string        `gorm:"column:current_module" json:"current_module,omitempty"`
	ModuleResults    datatypes.JSON `gorm:"type:jsonb;column:module_results" json:"module_results"`
	StartedAt        time.Time      `gorm:"column:started_at;not null;index" json:"started_at"`
	CompletedAt      *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Error            *string        `gorm:"column:error" json:"error,omitempty"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SyncJob) TableName() string { return "sync_job" }

// Results decodes the persisted module result map. A missing or empty column
// decodes to an empty map.
func (j *SyncJob) Results() (map[string]*ModuleResult, error) {
	out := map[string]*ModuleResult{}
	if len(j.ModuleResults) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(j.ModuleResults, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SyncJob) FailedModules() []string {
	results, err := j.Results()
	if err != nil {
		return nil
	}
	var failed []string
	for name, r := range results {
		if r != nil && r.Status == ModuleResultFailed {
			failed = append(failed, name)
		}
	}
	return failed
}

// MarshalModuleResults encodes a result map for the jsonb column. Encoding a
// map of plain structs cannot fail, so errors collapse to an empty object.
func MarshalModuleResults(results map[string]*ModuleResult) datatypes.JSON {
	if results == nil {
		results = map[string]*ModuleResult{}
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(raw)
}
