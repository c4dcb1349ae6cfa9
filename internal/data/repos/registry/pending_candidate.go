package registry

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/valkhart/grimoire-backend/internal/domain"
	"github.com/valkhart/grimoire-backend/internal/platform/dbctx"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

type PendingCandidateRepo interface {
	FirstOrCreate(dbc dbctx.Context, row *types.PendingCandidate) (created bool, err error)
	ListByTypeID(dbc dbctx.Context, dofusdbTypeID int) ([]*types.PendingCandidate, error)
	DeleteByTypeID(dbc dbctx.Context, dofusdbTypeID int) (int64, error)
}

type pendingCandidateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPendingCandidateRepo(db *gorm.DB, baseLog *logger.Logger) PendingCandidateRepo {
	return &pendingCandidateRepo{
		db:  db,
		log: baseLog.With("repo", "PendingCandidateRepo"),
	}
}

// FirstOrCreate inserts the row unless one already exists for the natural key.
func (r *pendingCandidateRepo) FirstOrCreate(dbc dbctx.Context, row *types.PendingCandidate) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var existing types.PendingCandidate
	err := transaction.WithContext(dbc.Ctx).
		Where(
			"dofusdb_type_id = ? AND dofusdb_item_id = ? AND context = ? AND source_entity_type = ? AND source_dofusdb_id = ?",
			row.DofusdbTypeID, row.DofusdbItemID, row.Context, row.SourceEntityType, row.SourceDofusdbID,
		).
		Limit(1).
		Find(&existing).Error
	if err != nil {
		return false, err
	}
	if existing.ID != uuid.Nil {
		*row = existing
		return false, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *pendingCandidateRepo) ListByTypeID(dbc dbctx.Context, dofusdbTypeID int) ([]*types.PendingCandidate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.PendingCandidate
	err := transaction.WithContext(dbc.Ctx).
		Where("dofusdb_type_id = ?", dofusdbTypeID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *pendingCandidateRepo) DeleteByTypeID(dbc dbctx.Context, dofusdbTypeID int) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("dofusdb_type_id = ?", dofusdbTypeID).
		Delete(&types.PendingCandidate{})
	return res.RowsAffected, res.Error
}
