package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PersonaType string

const (
	PersonaDating       PersonaType = "dating"
	PersonaSocial       PersonaType = "social"
	PersonaProfessional PersonaType = "professional"
	PersonaCreative     PersonaType = "creative"
)

// AllPersonaTypes is the fixed persona set; the generation context carries an
// entry for each, nil when the user has not built that persona yet.
var AllPersonaTypes = []PersonaType{
	PersonaDating,
	PersonaSocial,
	PersonaProfessional,
	PersonaCreative,
}

type Persona struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_persona_user_type,unique" json:"user_id"`
	Type      PersonaType    `gorm:"column:type;not null;index:idx_persona_user_type,unique" json:"type"`
	Content   datatypes.JSON `gorm:"type:jsonb;column:content" json:"content"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Persona) TableName() string { return "persona" }
