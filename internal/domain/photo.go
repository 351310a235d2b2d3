package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Photo struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	BucketKey string         `gorm:"column:bucket_key" json:"bucket_key"`
	URL       string         `gorm:"column:url" json:"url"`
	IsPrimary bool           `gorm:"column:is_primary;not null;default:false" json:"is_primary"`
	Score     float64        `gorm:"column:score;not null;default:0" json:"score"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Photo) TableName() string { return "photo" }
