package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Spell struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DofusdbID   *string        `gorm:"column:dofusdb_id;uniqueIndex:idx_spell_dofusdb_id,where:deleted_at IS NULL" json:"dofusdb_id,omitempty"`
	Name        string         `gorm:"column:name;not null;index" json:"name"`
	Description string         `gorm:"column:description" json:"description,omitempty"`
	ImageURL    string         `gorm:"column:image_url" json:"image_url,omitempty"`
	ImagePath   string         `gorm:"column:image_path" json:"image_path,omitempty"`
	Effects     datatypes.JSON `gorm:"column:effects;type:jsonb" json:"effects,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;index" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Spell) TableName() string { return "spell" }

type SpellBreed struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SpellID   uuid.UUID `gorm:"type:uuid;column:spell_id;not null;index:idx_spell_breed,unique" json:"spell_id"`
	BreedID   uuid.UUID `gorm:"type:uuid;column:breed_id;not null;index:idx_spell_breed,unique" json:"breed_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (SpellBreed) TableName() string { return "spell_breed" }
