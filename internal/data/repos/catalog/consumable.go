package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/valkhart/grimoire-backend/internal/domain"
	"github.com/valkhart/grimoire-backend/internal/platform/dbctx"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

type ConsumableRepo interface {
	GetByDofusdbID(dbc dbctx.Context, dofusdbID string) (*types.Consumable, error)
	GetByName(dbc dbctx.Context, name string) (*types.Consumable, error)
	Create(dbc dbctx.Context, consumable *types.Consumable) error
	Update(dbc dbctx.Context, consumable *types.Consumable) error
	DeleteByName(dbc dbctx.Context, name string) (int64, error)
	ReplaceRecipe(dbc dbctx.Context, consumableID uuid.UUID, lines []*types.ConsumableRecipeLine) error
}

type consumableRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConsumableRepo(db *gorm.DB, baseLog *logger.Logger) ConsumableRepo {
	return &consumableRepo{
		db:  db,
		log: baseLog.With("repo", "ConsumableRepo"),
	}
}

func (r *consumableRepo) GetByDofusdbID(dbc dbctx.Context, dofusdbID string) (*types.Consumable, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if dofusdbID == "" {
		return nil, nil
	}
	var row types.Consumable
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

func (r *consumableRepo) GetByName(dbc dbctx.Context, name string) (*types.Consumable, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if name == "" {
		return nil, nil
	}
	var row types.Consumable
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

func (r *consumableRepo) Create(dbc dbctx.Context, consumable *types.Consumable) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if consumable.ID == uuid.Nil {
		consumable.ID = uuid.New()
	}
	return transaction.WithContext(dbc.Ctx).Create(consumable).Error
}

func (r *consumableRepo) Update(dbc dbctx.Context, consumable *types.Consumable) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if consumable.ID == uuid.Nil {
		return nil
	}
	consumable.UpdatedAt = time.Now()
	return transaction.WithContext(dbc.Ctx).Save(consumable).Error
}

func (r *consumableRepo) DeleteByName(dbc dbctx.Context, name string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if name == "" {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("name = ?", name).
		Delete(&types.Consumable{})
	return res.RowsAffected, res.Error
}

func (r *consumableRepo) ReplaceRecipe(dbc dbctx.Context, consumableID uuid.UUID, lines []*types.ConsumableRecipeLine) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if consumableID == uuid.Nil {
		return nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("consumable_id = ?", consumableID).
		Delete(&types.ConsumableRecipeLine{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for _, line := range lines {
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.ConsumableID = consumableID
	}
	return transaction.WithContext(dbc.Ctx).Create(&lines).Error
}
