package registry

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/valkhart/grimoire-backend/internal/domain"
	"github.com/valkhart/grimoire-backend/internal/platform/dbctx"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

type TypeDecisionRepo interface {
	GetByTypeID(dbc dbctx.Context, category string, dofusdbTypeID int) (*types.TypeDecision, error)
	Create(dbc dbctx.Context, row *types.TypeDecision) error
	Touch(dbc dbctx.Context, id uuid.UUID) error
	SetDecision(dbc dbctx.Context, category string, dofusdbTypeID int, decision string) (*types.TypeDecision, error)
	List(dbc dbctx.Context, category string, decision string) ([]*types.TypeDecision, error)
}

type typeDecisionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTypeDecisionRepo(db *gorm.DB, baseLog *logger.Logger) TypeDecisionRepo {
	return &typeDecisionRepo{
		db:  db,
		log: baseLog.With("repo", "TypeDecisionRepo"),
	}
}

func (r *typeDecisionRepo) GetByTypeID(dbc dbctx.Context, category string, dofusdbTypeID int) (*types.TypeDecision, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.TypeDecision
	err := transaction.WithContext(dbc.Ctx).
		Where("category = ? AND dofusdb_type_id = ?", category, dofusdbTypeID).
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

func (r *typeDecisionRepo) Create(dbc dbctx.Context, row *types.TypeDecision) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Decision == "" {
		row.Decision = "pending"
	}
	if row.SeenCount == 0 {
		row.SeenCount = 1
	}
	if row.LastSeenAt.IsZero() {
		row.LastSeenAt = time.Now()
	}
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

// Touch records one more sighting without changing the decision.
func (r *typeDecisionRepo) Touch(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	now := time.Now()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.TypeDecision{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"seen_count":   gorm.Expr("seen_count + 1"),
			"last_seen_at": now,
			"updated_at":   now,
		}).Error
}

func (r *typeDecisionRepo) SetDecision(dbc dbctx.Context, category string, dofusdbTypeID int, decision string) (*types.TypeDecision, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.TypeDecision{}).
		Where("category = ? AND dofusdb_type_id = ?", category, dofusdbTypeID).
		Updates(map[string]interface{}{
			"decision":   decision,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByTypeID(dbc, category, dofusdbTypeID)
}

func (r *typeDecisionRepo) List(dbc dbctx.Context, category string, decision string) ([]*types.TypeDecision, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.TypeDecision{}).
		Where("category = ?", category)
	if decision != "" {
		q = q.Where("decision = ?", decision)
	}
	var rows []*types.TypeDecision
	if err := q.Order("dofusdb_type_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
