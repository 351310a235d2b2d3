package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GeneratedContent is one stored output of a generation module (a bio, a
// ranked photo report, a cover letter, ...). The sync context only reads the
// last few rows as summaries; the payload itself belongs to the modules.
type GeneratedContent struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      string         `gorm:"column:type;not null;index" json:"type"`
	Body      datatypes.JSON `gorm:"type:jsonb;column:body" json:"body,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (GeneratedContent) TableName() string { return "generated_content" }

// ContentSummary is the projection of GeneratedContent the sync context
// carries: enough to tell modules what was generated recently, nothing more.
type ContentSummary struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
