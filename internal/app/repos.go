package app

import (
	"gorm.io/gorm"

	"github.com/valkhart/grimoire-backend/internal/data/aggregates"
	catalogrepos "github.com/valkhart/grimoire-backend/internal/data/repos/catalog"
	registryrepos "github.com/valkhart/grimoire-backend/internal/data/repos/registry"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

type Repos struct {
	Items             catalogrepos.ItemRepo
	Consumables       catalogrepos.ConsumableRepo
	Resources         catalogrepos.ResourceRepo
	Monsters          catalogrepos.MonsterRepo
	Spells            catalogrepos.SpellRepo
	Breeds            catalogrepos.BreedRepo
	Panoplies         catalogrepos.PanoplyRepo
	TypeDecisions     registryrepos.TypeDecisionRepo
	PendingCandidates registryrepos.PendingCandidateRepo
	TxRunner          aggregates.TxRunner
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Items:             catalogrepos.NewItemRepo(db, log),
		Consumables:       catalogrepos.NewConsumableRepo(db, log),
		Resources:         catalogrepos.NewResourceRepo(db, log),
		Monsters:          catalogrepos.NewMonsterRepo(db, log),
		Spells:            catalogrepos.NewSpellRepo(db, log),
		Breeds:            catalogrepos.NewBreedRepo(db, log),
		Panoplies:         catalogrepos.NewPanoplyRepo(db, log),
		TypeDecisions:     registryrepos.NewTypeDecisionRepo(db, log),
		PendingCandidates: registryrepos.NewPendingCandidateRepo(db, log),
		TxRunner:          aggregates.NewGormTxRunner(db),
	}
}
