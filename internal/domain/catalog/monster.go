package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Monster also carries boss/archmonster variants; they live on the same table
// and are distinguished by the two flags.
type Monster struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DofusdbID     *string        `gorm:"column:dofusdb_id;uniqueIndex:idx_monster_dofusdb_id,where:deleted_at IS NULL" json:"dofusdb_id,omitempty"`
	Name          string         `gorm:"column:name;not null;index" json:"name"`
	Level         int            `gorm:"column:level;not null;default:0" json:"level"`
	Size          int            `gorm:"column:size;not null;default:0" json:"size"`
	IsBoss        bool           `gorm:"column:is_boss;not null;default:false" json:"is_boss"`
	IsArchmonster bool           `gorm:"column:is_archmonster;not null;default:false" json:"is_archmonster"`
	ImageURL      string         `gorm:"column:image_url" json:"image_url,omitempty"`
	ImagePath     string         `gorm:"column:image_path" json:"image_path,omitempty"`
	Resistances   datatypes.JSON `gorm:"column:resistances;type:jsonb" json:"resistances,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;index" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Monster) TableName() string { return "monster" }

// MonsterDrop links a monster to a dropped entry in one of the item-like tables.
// TargetCategory names the table the target id points into.
type MonsterDrop struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MonsterID      uuid.UUID `gorm:"type:uuid;column:monster_id;not null;index:idx_monster_drop,unique" json:"monster_id"`
	TargetCategory string    `gorm:"column:target_category;not null;index:idx_monster_drop,unique" json:"target_category"`
	TargetID       uuid.UUID `gorm:"type:uuid;column:target_id;not null;index:idx_monster_drop,unique" json:"target_id"`
	Quantity       int       `gorm:"column:quantity;not null;default:1" json:"quantity"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (MonsterDrop) TableName() string { return "monster_drop" }

type MonsterSpell struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MonsterID uuid.UUID `gorm:"type:uuid;column:monster_id;not null;index:idx_monster_spell,unique" json:"monster_id"`
	SpellID   uuid.UUID `gorm:"type:uuid;column:spell_id;not null;index:idx_monster_spell,unique" json:"spell_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (MonsterSpell) TableName() string { return "monster_spell" }
