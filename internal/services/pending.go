package services

import (
	"context"

	registryrepos "github.com/valkhart/grimoire-backend/internal/data/repos/registry"
	types "github.com/valkhart/grimoire-backend/internal/domain"
	"github.com/valkhart/grimoire-backend/internal/domain/registry"
	"github.com/valkhart/grimoire-backend/internal/platform/dbctx"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

// PendingService parks items seen under an unresolved type so a later allow
// decision can replay them.
type PendingService interface {
	Remember(ctx context.Context, dofusdbTypeID, dofusdbItemID int, seenIn string, sourceEntityType, sourceDofusdbID string, quantity *int)
	ListByType(ctx context.Context, dofusdbTypeID int) ([]*types.PendingCandidate, error)
	PurgeType(ctx context.Context, dofusdbTypeID int) (int64, error)
}

type pendingService struct {
	log        *logger.Logger
	candidates registryrepos.PendingCandidateRepo
}

func NewPendingService(log *logger.Logger, candidates registryrepos.PendingCandidateRepo) PendingService {
	return &pendingService{
		log:        log.With("service", "PendingService"),
		candidates: candidates,
	}
}

// Remember is fire-and-forget: a bookkeeping failure must never abort the
// conversion that triggered it, so errors are logged and swallowed here.
func (s *pendingService) Remember(ctx context.Context, dofusdbTypeID, dofusdbItemID int, seenIn string, sourceEntityType, sourceDofusdbID string, quantity *int) {
	if !registry.ValidContext(seenIn) {
		s.log.Warn("pending candidate with invalid context dropped",
			"context", seenIn, "dofusdb_type_id", dofusdbTypeID, "dofusdb_item_id", dofusdbItemID)
		return
	}
	row := &types.PendingCandidate{
		DofusdbTypeID:    dofusdbTypeID,
		DofusdbItemID:    dofusdbItemID,
		Context:          seenIn,
		SourceEntityType: sourceEntityType,
		SourceDofusdbID:  sourceDofusdbID,
		Quantity:         quantity,
	}
	created, err := s.candidates.FirstOrCreate(dbctx.Context{Ctx: ctx}, row)
	if err != nil {
		s.log.Warn("failed to persist pending candidate",
			"dofusdb_type_id", dofusdbTypeID, "dofusdb_item_id", dofusdbItemID, "error", err)
		return
	}
	if created {
		s.log.Info("pending candidate recorded",
			"dofusdb_type_id", dofusdbTypeID, "dofusdb_item_id", dofusdbItemID, "context", seenIn)
	}
}

func (s *pendingService) ListByType(ctx context.Context, dofusdbTypeID int) ([]*types.PendingCandidate, error) {
	return s.candidates.ListByTypeID(dbctx.Context{Ctx: ctx}, dofusdbTypeID)
}

func (s *pendingService) PurgeType(ctx context.Context, dofusdbTypeID int) (int64, error) {
	return s.candidates.DeleteByTypeID(dbctx.Context{Ctx: ctx}, dofusdbTypeID)
}
