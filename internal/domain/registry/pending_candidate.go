package registry

import (
	"time"

	"github.com/google/uuid"
)

// Contexts in which an item can be parked as a pending candidate.
const (
	ContextRecipe = "recipe"
	ContextDrops  = "drops"
)

func ValidContext(context string) bool {
	return context == ContextRecipe || context == ContextDrops
}

// PendingCandidate remembers an item seen under a type that is not yet allowed,
// so approving the type can replay every sighting in bulk. The composite key
// makes Remember idempotent.
type PendingCandidate struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DofusdbTypeID    int       `gorm:"column:dofusdb_type_id;not null;index:idx_pending_candidate_key,unique;index" json:"dofusdb_type_id"`
	DofusdbItemID    int       `gorm:"column:dofusdb_item_id;not null;index:idx_pending_candidate_key,unique" json:"dofusdb_item_id"`
	Context          string    `gorm:"column:context;not null;index:idx_pending_candidate_key,unique" json:"context"`
	SourceEntityType string    `gorm:"column:source_entity_type;not null;index:idx_pending_candidate_key,unique" json:"source_entity_type"`
	SourceDofusdbID  string    `gorm:"column:source_dofusdb_id;not null;index:idx_pending_candidate_key,unique" json:"source_dofusdb_id"`
	Quantity         *int      `gorm:"column:quantity" json:"quantity,omitempty"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
}

func (PendingCandidate) TableName() string { return "pending_candidate" }
