package db

import (
	types "github.com/valkhart/grimoire-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Catalog entities (importable)
		&types.Item{},
		&types.ItemRecipeLine{},
		&types.Consumable{},
		&types.ConsumableRecipeLine{},
		&types.Resource{},
		&types.Monster{},
		&types.MonsterDrop{},
		&types.MonsterSpell{},
		&types.Spell{},
		&types.SpellBreed{},
		&types.Breed{},
		&types.Panoply{},

		// Scrapping registry
		&types.TypeDecision{},
		&types.PendingCandidate{},
	)
}
