package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/valkhart/grimoire-backend/internal/domain"
	"github.com/valkhart/grimoire-backend/internal/platform/dbctx"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

type BreedRepo interface {
	GetByDofusdbID(dbc dbctx.Context, dofusdbID string) (*types.Breed, error)
	GetByName(dbc dbctx.Context, name string) (*types.Breed, error)
	Create(dbc dbctx.Context, breed *types.Breed) error
	Update(dbc dbctx.Context, breed *types.Breed) error
}

type breedRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBreedRepo(db *gorm.DB, baseLog *logger.Logger) BreedRepo {
	return &breedRepo{
		db:  db,
		log: baseLog.With("repo", "BreedRepo"),
	}
}

func (r *breedRepo) GetByDofusdbID(dbc dbctx.Context, dofusdbID string) (*types.Breed, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if dofusdbID == "" {
		return nil, nil
	}
	var row types.Breed
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

func (r *breedRepo) GetByName(dbc dbctx.Context, name string) (*types.Breed, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if name == "" {
		return nil, nil
	}
	var row types.Breed
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

func (r *breedRepo) Create(dbc dbctx.Context, breed *types.Breed) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if breed.ID == uuid.Nil {
		breed.ID = uuid.New()
	}
	return transaction.WithContext(dbc.Ctx).Create(breed).Error
}

func (r *breedRepo) Update(dbc dbctx.Context, breed *types.Breed) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if breed.ID == uuid.Nil {
		return nil
	}
	breed.UpdatedAt = time.Now()
	return transaction.WithContext(dbc.Ctx).Save(breed).Error
}
