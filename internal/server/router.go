package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/valkhart/grimoire-backend/internal/http/handlers"
	"github.com/valkhart/grimoire-backend/internal/http/middleware"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *middleware.AuthMiddleware
	HealthHandler  *handlers.HealthHandler
	ImportHandler  *handlers.ImportHandler
	TypesHandler   *handlers.TypesHandler
	AllowOrigins   []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("grimoire-backend"))
	router.Use(middleware.RequestLogger(cfg.Log))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5174"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		// Imports
		api.GET("/import/entities", cfg.ImportHandler.ListEntities)
		api.POST("/import/:entity", cfg.ImportHandler.ImportBatch)
		api.POST("/import/:entity/:externalId", cfg.ImportHandler.ImportOne)

		// Type registry curation
		api.GET("/types/:category", cfg.TypesHandler.List)
		api.PATCH("/types/:category/:typeId", cfg.TypesHandler.SetDecision)
		api.GET("/types/:category/:typeId/pending", cfg.TypesHandler.ListPending)
		api.POST("/types/:category/:typeId/replay", cfg.TypesHandler.Replay)
	}

	return router
}
