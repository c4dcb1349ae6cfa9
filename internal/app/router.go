package app

import (
	"github.com/gin-gonic/gin"

	"github.com/valkhart/grimoire-backend/internal/platform/logger"
	"github.com/valkhart/grimoire-backend/internal/server"
)

func wireRouter(log *logger.Logger, cfg Config, handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		Log:            log,
		AuthMiddleware: middlewareset.Auth,
		HealthHandler:  handlerset.Health,
		ImportHandler:  handlerset.Import,
		TypesHandler:   handlerset.Types,
		AllowOrigins:   cfg.AllowOrigins,
	})
}
