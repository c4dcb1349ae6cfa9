package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/valkhart/grimoire-backend/internal/platform/logger"
	"github.com/valkhart/grimoire-backend/internal/scrapping"
)

// ReplayOutcome summarizes replaying the pending candidates of one type after
// a curator allowed it.
type ReplayOutcome struct {
	TypeID    int                  `json:"type_id"`
	Success   bool                 `json:"success"`
	Total     int                  `json:"total"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Purged    bool                 `json:"purged"`
	Results   []scrapping.BatchRef `json:"results,omitempty"`
}

// ImporterService is the application entry point for imports: single record,
// filtered batch, and pending replay.
type ImporterService interface {
	ImportOne(ctx context.Context, entity, externalID string, opts scrapping.RunOptions) (*scrapping.RunResult, error)
	ImportBatch(ctx context.Context, entity string, filters map[string][]string, collectOpts scrapping.CollectOptions, opts scrapping.RunOptions) (*scrapping.BatchResult, error)
	Replay(ctx context.Context, dofusdbTypeID, limit int, opts scrapping.RunOptions) (*ReplayOutcome, error)
	EntityNames() []string
}

type importerService struct {
	log          *logger.Logger
	orchestrator *scrapping.Orchestrator
	pending      PendingService
}

func NewImporterService(log *logger.Logger, orchestrator *scrapping.Orchestrator, pending PendingService) ImporterService {
	return &importerService{
		log:          log.With("service", "ImporterService"),
		orchestrator: orchestrator,
		pending:      pending,
	}
}

func (s *importerService) EntityNames() []string {
	return s.orchestrator.EntityNames()
}

func (s *importerService) ImportOne(ctx context.Context, entity, externalID string, opts scrapping.RunOptions) (*scrapping.RunResult, error) {
	return s.orchestrator.RunOne(ctx, entity, externalID, opts)
}

func (s *importerService) ImportBatch(ctx context.Context, entity string, filters map[string][]string, collectOpts scrapping.CollectOptions, opts scrapping.RunOptions) (*scrapping.BatchResult, error) {
	return s.orchestrator.RunBatch(ctx, entity, filters, collectOpts, opts)
}

// Replay re-imports every distinct item parked under the given type. The
// parked rows are purged only when every replayed item succeeded, so a partial
// failure leaves the remainder available for another pass.
func (s *importerService) Replay(ctx context.Context, dofusdbTypeID, limit int, opts scrapping.RunOptions) (*ReplayOutcome, error) {
	candidates, err := s.pending.ListByType(ctx, dofusdbTypeID)
	if err != nil {
		return nil, err
	}

	// The same item can be parked several times (different sources or
	// contexts); each external id is imported once.
	seen := make(map[int]bool)
	var itemIDs []int
	for _, c := range candidates {
		if seen[c.DofusdbItemID] {
			continue
		}
		seen[c.DofusdbItemID] = true
		itemIDs = append(itemIDs, c.DofusdbItemID)
	}
	if limit > 0 && len(itemIDs) > limit {
		itemIDs = itemIDs[:limit]
	}

	outcome := &ReplayOutcome{TypeID: dofusdbTypeID, Total: len(itemIDs)}
	for _, itemID := range itemIDs {
		externalID := strconv.Itoa(itemID)
		ref := scrapping.BatchRef{DofusdbID: externalID}

		res, runErr := s.orchestrator.RunOne(ctx, "item", externalID, opts)
		if res != nil && res.Converted != nil {
			ref.Name = res.Converted.Name
		}
		if runErr != nil || res == nil || !res.Success {
			outcome.Failed++
			if runErr != nil {
				ref.Error = runErr.Error()
			} else if res != nil {
				ref.Error = res.Message
			}
			s.log.Warn("replay of pending candidate failed",
				"dofusdb_type_id", dofusdbTypeID, "dofusdb_item_id", itemID, "error", ref.Error)
		} else {
			outcome.Succeeded++
			if res.Integration != nil {
				ref.Action = res.Integration.Action
			}
		}
		outcome.Results = append(outcome.Results, ref)
	}
	outcome.Success = outcome.Failed == 0

	// All-or-nothing purge keeps replay retryable.
	if outcome.Failed == 0 && outcome.Total > 0 && limit <= 0 {
		if _, err := s.pending.PurgeType(ctx, dofusdbTypeID); err != nil {
			return outcome, fmt.Errorf("replay succeeded but purge failed: %w", err)
		}
		outcome.Purged = true
	}
	return outcome, nil
}
