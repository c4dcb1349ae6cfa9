package app

import (
	"github.com/valkhart/grimoire-backend/internal/http/handlers"
)

type Handlers struct {
	Health *handlers.HealthHandler
	Import *handlers.ImportHandler
	Types  *handlers.TypesHandler
}

func wireHandlers(cfg Config, serviceset Services) Handlers {
	return Handlers{
		Health: handlers.NewHealthHandler(),
		Import: handlers.NewImportHandler(serviceset.Importer, cfg.DefaultLang),
		Types:  handlers.NewTypesHandler(serviceset.TypeRegistry, serviceset.Pending, serviceset.Importer, cfg.DefaultLang),
	}
}
