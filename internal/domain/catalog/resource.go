package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Resource struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DofusdbID   *string        `gorm:"column:dofusdb_id;uniqueIndex:idx_resource_dofusdb_id,where:deleted_at IS NULL" json:"dofusdb_id,omitempty"`
	Name        string         `gorm:"column:name;not null;index" json:"name"`
	Description string         `gorm:"column:description" json:"description,omitempty"`
	Level       int            `gorm:"column:level;not null;default:0" json:"level"`
	Price       int            `gorm:"column:price;not null;default:0" json:"price"`
	Rarity      int            `gorm:"column:rarity;not null;default:0" json:"rarity"`
	ImageURL    string         `gorm:"column:image_url" json:"image_url,omitempty"`
	ImagePath   string         `gorm:"column:image_path" json:"image_path,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;index" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Resource) TableName() string { return "resource" }
