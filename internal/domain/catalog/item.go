package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Item is an equipment-like entry mirrored from DofusDB.
// DofusdbID is the authoritative match key; Name is the fallback.
type Item struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DofusdbID   *string        `gorm:"column:dofusdb_id;uniqueIndex:idx_item_dofusdb_id,where:deleted_at IS NULL" json:"dofusdb_id,omitempty"`
	Name        string         `gorm:"column:name;not null;index" json:"name"`
	Description string         `gorm:"column:description" json:"description,omitempty"`
	Level       int            `gorm:"column:level;not null;default:0" json:"level"`
	Price       int            `gorm:"column:price;not null;default:0" json:"price"`
	Rarity      int            `gorm:"column:rarity;not null;default:0" json:"rarity"`
	ImageURL    string         `gorm:"column:image_url" json:"image_url,omitempty"`
	ImagePath   string         `gorm:"column:image_path" json:"image_path,omitempty"`
	Stats       datatypes.JSON `gorm:"column:stats;type:jsonb" json:"stats,omitempty"`
	PanoplyID   *uuid.UUID     `gorm:"type:uuid;column:panoply_id;index" json:"panoply_id,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;index" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Item) TableName() string { return "item" }

// ItemRecipeLine is one crafting ingredient of an item.
type ItemRecipeLine struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID     uuid.UUID `gorm:"type:uuid;column:item_id;not null;index:idx_item_recipe_line,unique" json:"item_id"`
	ResourceID uuid.UUID `gorm:"type:uuid;column:resource_id;not null;index:idx_item_recipe_line,unique" json:"resource_id"`
	Quantity   int       `gorm:"column:quantity;not null;default:1" json:"quantity"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (ItemRecipeLine) TableName() string { return "item_recipe_line" }
