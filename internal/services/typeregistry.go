package services

import (
	"context"
	"fmt"

	registryrepos "github.com/valkhart/grimoire-backend/internal/data/repos/registry"
	types "github.com/valkhart/grimoire-backend/internal/domain"
	"github.com/valkhart/grimoire-backend/internal/domain/registry"
	"github.com/valkhart/grimoire-backend/internal/platform/apierr"
	"github.com/valkhart/grimoire-backend/internal/platform/dbctx"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

// TypeRegistryService owns the per-category allow/block decisions for upstream
// type ids. Default-deny: an unknown type is recorded as pending and treated
// as not allowed until a curator says otherwise.
type TypeRegistryService interface {
	Resolve(ctx context.Context, category string, dofusdbTypeID int, displayName string) (string, error)
	IsAllowed(ctx context.Context, category string, dofusdbTypeID int) (bool, error)
	SetDecision(ctx context.Context, category string, dofusdbTypeID int, rawDecision string) (*types.TypeDecision, error)
	List(ctx context.Context, category string, decisionFilter string) ([]*types.TypeDecision, error)
}

type typeRegistryService struct {
	log       *logger.Logger
	decisions registryrepos.TypeDecisionRepo
}

func NewTypeRegistryService(log *logger.Logger, decisions registryrepos.TypeDecisionRepo) TypeRegistryService {
	return &typeRegistryService{
		log:       log.With("service", "TypeRegistryService"),
		decisions: decisions,
	}
}

// Resolve returns the current decision for the type, creating a pending row on
// first sighting and bumping the sighting counter otherwise.
func (s *typeRegistryService) Resolve(ctx context.Context, category string, dofusdbTypeID int, displayName string) (string, error) {
	if !registry.ValidCategory(category) {
		return "", apierr.BadRequest("invalid_category", fmt.Errorf("invalid category %q", category))
	}
	dbc := dbctx.Context{Ctx: ctx}

	row, err := s.decisions.GetByTypeID(dbc, category, dofusdbTypeID)
	if err != nil {
		return "", err
	}
	if row == nil {
		row = &types.TypeDecision{
			Category:      category,
			DofusdbTypeID: dofusdbTypeID,
			DisplayName:   displayName,
			Decision:      registry.DecisionPending,
		}
		if err := s.decisions.Create(dbc, row); err != nil {
			return "", err
		}
		s.log.Info("new type seen, registered as pending",
			"category", category, "dofusdb_type_id", dofusdbTypeID, "display_name", displayName)
		return registry.DecisionPending, nil
	}

	if err := s.decisions.Touch(dbc, row.ID); err != nil {
		// Sighting stats are advisory; never fail classification over them.
		s.log.Warn("failed to record type sighting", "id", row.ID, "error", err)
	}
	return row.Decision, nil
}

// IsAllowed is the pure read used for nested relations. It never creates rows.
func (s *typeRegistryService) IsAllowed(ctx context.Context, category string, dofusdbTypeID int) (bool, error) {
	if !registry.ValidCategory(category) {
		return false, apierr.BadRequest("invalid_category", fmt.Errorf("invalid category %q", category))
	}
	row, err := s.decisions.GetByTypeID(dbctx.Context{Ctx: ctx}, category, dofusdbTypeID)
	if err != nil {
		return false, err
	}
	return row != nil && row.Decision == registry.DecisionAllowed, nil
}

func (s *typeRegistryService) SetDecision(ctx context.Context, category string, dofusdbTypeID int, rawDecision string) (*types.TypeDecision, error) {
	if !registry.ValidCategory(category) {
		return nil, apierr.BadRequest("invalid_category", fmt.Errorf("invalid category %q", category))
	}
	decision, err := registry.NormalizeDecision(rawDecision)
	if err != nil {
		return nil, apierr.BadRequest("invalid_decision", err)
	}
	row, err := s.decisions.SetDecision(dbctx.Context{Ctx: ctx}, category, dofusdbTypeID, decision)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apierr.NotFound("type_not_registered",
			fmt.Errorf("type %d not registered for category %s", dofusdbTypeID, category))
	}
	s.log.Info("type decision updated",
		"category", category, "dofusdb_type_id", dofusdbTypeID, "decision", decision)
	return row, nil
}

func (s *typeRegistryService) List(ctx context.Context, category string, decisionFilter string) ([]*types.TypeDecision, error) {
	if !registry.ValidCategory(category) {
		return nil, apierr.BadRequest("invalid_category", fmt.Errorf("invalid category %q", category))
	}
	if decisionFilter != "" {
		normalized, err := registry.NormalizeDecision(decisionFilter)
		if err != nil {
			return nil, apierr.BadRequest("invalid_decision", err)
		}
		decisionFilter = normalized
	}
	return s.decisions.List(dbctx.Context{Ctx: ctx}, category, decisionFilter)
}
