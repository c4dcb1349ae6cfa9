package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/valkhart/grimoire-backend/internal/domain"
	"github.com/valkhart/grimoire-backend/internal/platform/dbctx"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

type MonsterRepo interface {
	GetByDofusdbID(dbc dbctx.Context, dofusdbID string) (*types.Monster, error)
	GetByName(dbc dbctx.Context, name string) (*types.Monster, error)
	Create(dbc dbctx.Context, monster *types.Monster) error
	Update(dbc dbctx.Context, monster *types.Monster) error
	ReplaceDrops(dbc dbctx.Context, monsterID uuid.UUID, drops []*types.MonsterDrop) error
	ReplaceSpells(dbc dbctx.Context, monsterID uuid.UUID, spellIDs []uuid.UUID) error
}

type monsterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMonsterRepo(db *gorm.DB, baseLog *logger.Logger) MonsterRepo {
	return &monsterRepo{
		db:  db,
		log: baseLog.With("repo", "MonsterRepo"),
	}
}

func (r *monsterRepo) GetByDofusdbID(dbc dbctx.Context, dofusdbID string) (*types.Monster, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if dofusdbID == "" {
		return nil, nil
	}
	var row types.Monster
	err := transaction.WithContext(dbc.Ctx).
		Where("dofusdb_id = ?", dofusdbID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *monsterRepo) GetByName(dbc dbctx.Context, name string) (*types.Monster, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if name == "" {
		return nil, nil
	}
	var row types.Monster
	err := transaction.WithContext(dbc.Ctx).
		Where("name = ?", name).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *monsterRepo) Create(dbc dbctx.Context, monster *types.Monster) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if monster.ID == uuid.Nil {
		monster.ID = uuid.New()
	}
	return transaction.WithContext(dbc.Ctx).Create(monster).Error
}

func (r *monsterRepo) Update(dbc dbctx.Context, monster *types.Monster) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if monster.ID == uuid.Nil {
		return nil
	}
	monster.UpdatedAt = time.Now()
	return transaction.WithContext(dbc.Ctx).Save(monster).Error
}

// ReplaceDrops swaps the monster's full loot table.
func (r *monsterRepo) ReplaceDrops(dbc dbctx.Context, monsterID uuid.UUID, drops []*types.MonsterDrop) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if monsterID == uuid.Nil {
		return nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("monster_id = ?", monsterID).
		Delete(&types.MonsterDrop{}).Error; err != nil {
		return err
	}
	if len(drops) == 0 {
		return nil
	}
	for _, drop := range drops {
		if drop.ID == uuid.Nil {
			drop.ID = uuid.New()
		}
		drop.MonsterID = monsterID
	}
	return transaction.WithContext(dbc.Ctx).Create(&drops).Error
}

func (r *monsterRepo) ReplaceSpells(dbc dbctx.Context, monsterID uuid.UUID, spellIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if monsterID == uuid.Nil {
		return nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("monster_id = ?", monsterID).
		Delete(&types.MonsterSpell{}).Error; err != nil {
		return err
	}
	if len(spellIDs) == 0 {
		return nil
	}
	links := make([]*types.MonsterSpell, 0, len(spellIDs))
	for _, spellID := range spellIDs {
		links = append(links, &types.MonsterSpell{
			ID:        uuid.New(),
			MonsterID: monsterID,
			SpellID:   spellID,
		})
	}
	return transaction.WithContext(dbc.Ctx).Create(&links).Error
}
