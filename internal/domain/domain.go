package domain

import (
	"github.com/valkhart/grimoire-backend/internal/domain/catalog"
	"github.com/valkhart/grimoire-backend/internal/domain/registry"
)

type Item = catalog.Item
type ItemRecipeLine = catalog.ItemRecipeLine
type Consumable = catalog.Consumable
type ConsumableRecipeLine = catalog.ConsumableRecipeLine
type Resource = catalog.Resource
type Monster = catalog.Monster
type MonsterDrop = catalog.MonsterDrop
type MonsterSpell = catalog.MonsterSpell
type Spell = catalog.Spell
type SpellBreed = catalog.SpellBreed
type Breed = catalog.Breed
type Panoply = catalog.Panoply

type TypeDecision = registry.TypeDecision
type PendingCandidate = registry.PendingCandidate
