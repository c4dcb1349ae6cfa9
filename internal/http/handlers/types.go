package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/valkhart/grimoire-backend/internal/platform/apierr"
	"github.com/valkhart/grimoire-backend/internal/scrapping"
	"github.com/valkhart/grimoire-backend/internal/services"
)

type TypesHandler struct {
	registry    services.TypeRegistryService
	pending     services.PendingService
	importer    services.ImporterService
	defaultLang string
}

func NewTypesHandler(registry services.TypeRegistryService, pending services.PendingService, importer services.ImporterService, defaultLang string) *TypesHandler {
	return &TypesHandler{registry: registry, pending: pending, importer: importer, defaultLang: defaultLang}
}

// GET /api/types/:category?decision=pending
func (th *TypesHandler) List(c *gin.Context) {
	rows, err := th.registry.List(c.Request.Context(), c.Param("category"), c.Query("decision"))
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"types": rows})
}

// PATCH /api/types/:category/:typeId
// body: { "decision": "allowed" | "blocked" | "pending" }
func (th *TypesHandler) SetDecision(c *gin.Context) {
	typeID, err := strconv.Atoi(c.Param("typeId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_type_id", err)
		return
	}
	var body struct {
		Decision string `json:"decision"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	row, err := th.registry.SetDecision(c.Request.Context(), c.Param("category"), typeID, body.Decision)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"type": row})
}

// GET /api/types/:category/:typeId/pending
func (th *TypesHandler) ListPending(c *gin.Context) {
	typeID, err := strconv.Atoi(c.Param("typeId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_type_id", err)
		return
	}
	rows, err := th.pending.ListByType(c.Request.Context(), typeID)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, gin.H{"candidates": rows})
}

// POST /api/types/:category/:typeId/replay?limit=50
// Options come from the query string; a JSON body with the same keys overrides.
func (th *TypesHandler) Replay(c *gin.Context) {
	typeID, err := strconv.Atoi(c.Param("typeId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_type_id", err)
		return
	}
	var body struct {
		importOptionsBody
		Limit int `json:"limit" form:"limit"`
	}
	if err := c.ShouldBindQuery(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}

	// Replay only makes sense against allowed types; the gate inside the
	// pipeline enforces it, this is a fast precondition check.
	allowed, err := categoryAllows(c, th.registry, typeID)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	if !allowed {
		RespondFromError(c, apierr.Conflict("type_not_allowed", scrapping.ErrTypeNotAuthorized))
		return
	}

	opts := body.runOptions()
	if opts.Lang == "" {
		opts.Lang = th.defaultLang
	}
	outcome, err := th.importer.Replay(c.Request.Context(), typeID, body.Limit, opts)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, outcome)
}

func categoryAllows(c *gin.Context, registry services.TypeRegistryService, typeID int) (bool, error) {
	allowed, err := registry.IsAllowed(c.Request.Context(), c.Param("category"), typeID)
	if err != nil {
		return false, err
	}
	return allowed, nil
}
