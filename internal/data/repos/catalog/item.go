package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/valkhart/grimoire-backend/internal/domain"
	"github.com/valkhart/grimoire-backend/internal/platform/dbctx"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

type ItemRepo interface {
	GetByDofusdbID(dbc dbctx.Context, dofusdbID string) (*types.Item, error)
	GetByName(dbc dbctx.Context, name string) (*types.Item, error)
	Create(dbc dbctx.Context, item *types.Item) error
	Update(dbc dbctx.Context, item *types.Item) error
	DeleteByName(dbc dbctx.Context, name string) (int64, error)
	ReplaceRecipe(dbc dbctx.Context, itemID uuid.UUID, lines []*types.ItemRecipeLine) error
}

type itemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewItemRepo(db *gorm.DB, baseLog *logger.Logger) ItemRepo {
	return &itemRepo{
		db:  db,
		log: baseLog.With("repo", "ItemRepo"),
	}
}

func (r *itemRepo) GetByDofusdbID(dbc dbctx.Context, dofusdbID string) (*types.Item, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if dofusdbID == "" {
		return nil, nil
	}
	var item types.Item
	err := transaction.WithContext(dbc.Ctx).
		Where("dofusdb_id = ?", dofusdbID).
		Limit(1).
		Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == uuid.Nil {
		return nil, nil
	}
	return &item, nil
}

func (r *itemRepo) GetByName(dbc dbctx.Context, name string) (*types.Item, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if name == "" {
		return nil, nil
	}
	var item types.Item
	err := transaction.WithContext(dbc.Ctx).
		Where("name = ?", name).
		Limit(1).
		Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == uuid.Nil {
		return nil, nil
	}
	return &item, nil
}

func (r *itemRepo) Create(dbc dbctx.Context, item *types.Item) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return transaction.WithContext(dbc.Ctx).Create(item).Error
}

func (r *itemRepo) Update(dbc dbctx.Context, item *types.Item) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if item.ID == uuid.Nil {
		return nil
	}
	item.UpdatedAt = time.Now()
	return transaction.WithContext(dbc.Ctx).Save(item).Error
}

func (r *itemRepo) DeleteByName(dbc dbctx.Context, name string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if name == "" {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("name = ?", name).
		Delete(&types.Item{})
	return res.RowsAffected, res.Error
}

// ReplaceRecipe swaps the full ingredient set of an item (sync, not merge).
func (r *itemRepo) ReplaceRecipe(dbc dbctx.Context, itemID uuid.UUID, lines []*types.ItemRecipeLine) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if itemID == uuid.Nil {
		return nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("item_id = ?", itemID).
		Delete(&types.ItemRecipeLine{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for _, line := range lines {
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.ItemID = itemID
	}
	return transaction.WithContext(dbc.Ctx).Create(&lines).Error
}
