package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/valkhart/grimoire-backend/internal/domain"
	"github.com/valkhart/grimoire-backend/internal/platform/dbctx"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

type ResourceRepo interface {
	GetByDofusdbID(dbc dbctx.Context, dofusdbID string) (*types.Resource, error)
	GetByName(dbc dbctx.Context, name string) (*types.Resource, error)
	Create(dbc dbctx.Context, resource *types.Resource) error
	Update(dbc dbctx.Context, resource *types.Resource) error
	DeleteByName(dbc dbctx.Context, name string) (int64, error)
}

type resourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResourceRepo(db *gorm.DB, baseLog *logger.Logger) ResourceRepo {
	return &resourceRepo{
		db:  db,
		log: baseLog.With("repo", "ResourceRepo"),
	}
}

func (r *resourceRepo) GetByDofusdbID(dbc dbctx.Context, dofusdbID string) (*types.Resource, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if dofusdbID == "" {
		return nil, nil
	}
	var row types.Resource
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

func (r *resourceRepo) GetByName(dbc dbctx.Context, name string) (*types.Resource, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if name == "" {
		return nil, nil
	}
	var row types.Resource
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

func (r *resourceRepo) Create(dbc dbctx.Context, resource *types.Resource) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if resource.ID == uuid.Nil {
		resource.ID = uuid.New()
	}
	return transaction.WithContext(dbc.Ctx).Create(resource).Error
}

func (r *resourceRepo) Update(dbc dbctx.Context, resource *types.Resource) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if resource.ID == uuid.Nil {
		return nil
	}
	resource.UpdatedAt = time.Now()
	return transaction.WithContext(dbc.Ctx).Save(resource).Error
}

func (r *resourceRepo) DeleteByName(dbc dbctx.Context, name string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if name == "" {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("name = ?", name).
		Delete(&types.Resource{})
	return res.RowsAffected, res.Error
}
