package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SyncStatusIdle       = "idle"
	SyncStatusInProgress = "in_progress"
)

// IdentityProfile is the per-user "identity brain": the attribute, aesthetic
// and learning state that seeds every content-generation module. SyncStatus
// and LastSyncedAt double as the advisory per-user sync lock.
type IdentityProfile struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	CoreAttributes    datatypes.JSON `gorm:"type:jsonb;column:core_attributes" json:"core_attributes"`
	AestheticState    datatypes.JSON `gorm:"type:jsonb;column:aesthetic_state" json:"aesthetic_state"`
	LearningState     datatypes.JSON `gorm:"type:jsonb;column:learning_state" json:"learning_state"`
	IdentityEmbedding datatypes.JSON `gorm:"type:jsonb;column:identity_embedding" json:"identity_embedding,omitempty"`
	IdentityVersion   int            `gorm:"column:identity_version;not null;default:1" json:"identity_version"`
	SyncStatus        string         `gorm:"column:sync_status;not null;default:idle;index" json:"sync_status"` // idle|in_progress
	LastSyncedAt      *time.Time     `gorm:"column:last_synced_at" json:"last_synced_at,omitempty"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (IdentityProfile) TableName() string { return "identity_profile" }
