package app

import (
	"fmt"

	"github.com/valkhart/grimoire-backend/internal/platform/logger"
	"github.com/valkhart/grimoire-backend/internal/scrapping"
	"github.com/valkhart/grimoire-backend/internal/services"
)

type Services struct {
	TypeRegistry services.TypeRegistryService
	Pending      services.PendingService
	Importer     services.ImporterService
}

func wireServices(log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	source, err := scrapping.LoadSource(cfg.SourceConfigPath)
	if err != nil {
		return Services{}, fmt.Errorf("load source config: %w", err)
	}

	typeRegistry := services.NewTypeRegistryService(log, repos.TypeDecisions)
	pending := services.NewPendingService(log, repos.PendingCandidates)

	collector := scrapping.NewCollector(log, clients.DofusDB)
	converter := scrapping.NewConverter(log, typeRegistry, pending)
	integrator := scrapping.NewIntegrator(
		log,
		repos.TxRunner,
		repos.Items,
		repos.Consumables,
		repos.Resources,
		repos.Monsters,
		repos.Spells,
		repos.Breeds,
		repos.Panoplies,
		clients.Media,
	)
	orchestrator := scrapping.NewOrchestrator(log, source, collector, converter, integrator)

	return Services{
		TypeRegistry: typeRegistry,
		Pending:      pending,
		Importer:     services.NewImporterService(log, orchestrator, pending),
	}, nil
}
