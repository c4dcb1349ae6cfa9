package app

import (
	"errors"

	"github.com/valkhart/grimoire-backend/internal/clients/dofusdb"
	rediscache "github.com/valkhart/grimoire-backend/internal/clients/redis"
	"github.com/valkhart/grimoire-backend/internal/media"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

type Clients struct {
	Cache   rediscache.Cache
	DofusDB dofusdb.Client
	Media   media.Store
}

func wireClients(log *logger.Logger) (Clients, error) {
	cache, err := rediscache.NewCache(log)
	if err != nil {
		if !errors.Is(err, rediscache.ErrNotConfigured) {
			return Clients{}, err
		}
		log.Info("redis not configured, upstream responses will not be cached")
		cache = nil
	}

	mediaStore, err := media.NewLocalStore(log)
	if err != nil {
		return Clients{}, err
	}

	return Clients{
		Cache:   cache,
		DofusDB: dofusdb.NewClient(log, cache),
		Media:   mediaStore,
	}, nil
}
