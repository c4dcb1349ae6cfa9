package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/valkhart/grimoire-backend/internal/domain"
	"github.com/valkhart/grimoire-backend/internal/platform/dbctx"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

type PanoplyRepo interface {
	GetByDofusdbID(dbc dbctx.Context, dofusdbID string) (*types.Panoply, error)
	GetOrCreate(dbc dbctx.Context, dofusdbID, name string) (*types.Panoply, error)
}

type panoplyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPanoplyRepo(db *gorm.DB, baseLog *logger.Logger) PanoplyRepo {
	return &panoplyRepo{
		db:  db,
		log: baseLog.With("repo", "PanoplyRepo"),
	}
}

func (r *panoplyRepo) GetByDofusdbID(dbc dbctx.Context, dofusdbID string) (*types.Panoply, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if dofusdbID == "" {
		return nil, nil
	}
	var row types.Panoply
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

// GetOrCreate resolves a set reference seen on an item, creating the stub row
// on first sight.
func (r *panoplyRepo) GetOrCreate(dbc dbctx.Context, dofusdbID, name string) (*types.Panoply, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if dofusdbID == "" {
		return nil, nil
	}
	existing, err := r.GetByDofusdbID(dbc, dofusdbID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	row := &types.Panoply{
		ID:        uuid.New(),
		DofusdbID: &dofusdbID,
		Name:      name,
	}
	if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}
