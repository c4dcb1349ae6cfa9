package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Panoply is an item set. Items point back via Item.PanoplyID.
type Panoply struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DofusdbID *string        `gorm:"column:dofusdb_id;uniqueIndex:idx_panoply_dofusdb_id,where:deleted_at IS NULL" json:"dofusdb_id,omitempty"`
	Name      string         `gorm:"column:name;not null;index" json:"name"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Panoply) TableName() string { return "panoply" }
