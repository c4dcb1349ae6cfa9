package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/valkhart/grimoire-backend/internal/domain"
	"github.com/valkhart/grimoire-backend/internal/platform/dbctx"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

type SpellRepo interface {
	GetByDofusdbID(dbc dbctx.Context, dofusdbID string) (*types.Spell, error)
	GetByName(dbc dbctx.Context, name string) (*types.Spell, error)
	Create(dbc dbctx.Context, spell *types.Spell) error
	Update(dbc dbctx.Context, spell *types.Spell) error
	ReplaceBreeds(dbc dbctx.Context, spellID uuid.UUID, breedIDs []uuid.UUID) error
}

type spellRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSpellRepo(db *gorm.DB, baseLog *logger.Logger) SpellRepo {
	return &spellRepo{
		db:  db,
		log: baseLog.With("repo", "SpellRepo"),
	}
}

func (r *spellRepo) GetByDofusdbID(dbc dbctx.Context, dofusdbID string) (*types.Spell, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if dofusdbID == "" {
		return nil, nil
	}
	var row types.Spell
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

func (r *spellRepo) GetByName(dbc dbctx.Context, name string) (*types.Spell, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if name == "" {
		return nil, nil
	}
	var row types.Spell
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

func (r *spellRepo) Create(dbc dbctx.Context, spell *types.Spell) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if spell.ID == uuid.Nil {
		spell.ID = uuid.New()
	}
	return transaction.WithContext(dbc.Ctx).Create(spell).Error
}

func (r *spellRepo) Update(dbc dbctx.Context, spell *types.Spell) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if spell.ID == uuid.Nil {
		return nil
	}
	spell.UpdatedAt = time.Now()
	return transaction.WithContext(dbc.Ctx).Save(spell).Error
}

func (r *spellRepo) ReplaceBreeds(dbc dbctx.Context, spellID uuid.UUID, breedIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if spellID == uuid.Nil {
		return nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("spell_id = ?", spellID).
		Delete(&types.SpellBreed{}).Error; err != nil {
		return err
	}
	if len(breedIDs) == 0 {
		return nil
	}
	links := make([]*types.SpellBreed, 0, len(breedIDs))
	for _, breedID := range breedIDs {
		links = append(links, &types.SpellBreed{
			ID:      uuid.New(),
			SpellID: spellID,
			BreedID: breedID,
		})
	}
	return transaction.WithContext(dbc.Ctx).Create(&links).Error
}
