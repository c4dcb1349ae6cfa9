package registry

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Import decisions for an external type id. A type starts pending on first
// sighting and only an explicit curator action moves it to allowed or blocked.
const (
	DecisionPending = "pending"
	DecisionAllowed = "allowed"
	DecisionBlocked = "blocked"
)

// Item-like categories gated by the registry.
const (
	CategoryItem       = "item"
	CategoryResource   = "resource"
	CategoryConsumable = "consumable"
)

// Categories lists the gated categories in classification precedence order.
func Categories() []string {
	return []string{CategoryItem, CategoryConsumable, CategoryResource}
}

func ValidCategory(category string) bool {
	switch category {
	case CategoryItem, CategoryResource, CategoryConsumable:
		return true
	}
	return false
}

// NormalizeDecision maps legacy display aliases onto the canonical enum.
// "used"/"unused" come from the old curation UI and never reach storage.
func NormalizeDecision(raw string) (string, error) {
	switch raw {
	case DecisionPending, DecisionAllowed, DecisionBlocked:
		return raw, nil
	case "used":
		return DecisionAllowed, nil
	case "unused":
		return DecisionBlocked, nil
	}
	return "", fmt.Errorf("invalid decision %q", raw)
}

// TypeDecision is one curated row of the per-category type registry.
type TypeDecision struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Category      string    `gorm:"column:category;not null;index:idx_type_decision_key,unique" json:"category"`
	DofusdbTypeID int       `gorm:"column:dofusdb_type_id;not null;index:idx_type_decision_key,unique" json:"dofusdb_type_id"`
	DisplayName   string    `gorm:"column:display_name" json:"display_name,omitempty"`
	Decision      string    `gorm:"column:decision;not null;default:pending;index" json:"decision"`
	SeenCount     int       `gorm:"column:seen_count;not null;default:0" json:"seen_count"`
	LastSeenAt    time.Time `gorm:"column:last_seen_at;not null" json:"last_seen_at"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (TypeDecision) TableName() string { return "type_decision" }
