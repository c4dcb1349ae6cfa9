package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valkhart/grimoire-backend/internal/scrapping"
	"github.com/valkhart/grimoire-backend/internal/services"
)

type ImportHandler struct {
	importer    services.ImporterService
	defaultLang string
}

func NewImportHandler(importer services.ImporterService, defaultLang string) *ImportHandler {
	return &ImportHandler{importer: importer, defaultLang: defaultLang}
}

type importOptionsBody struct {
	Validate    *bool  `json:"validate" form:"validate"`
	Integrate   *bool  `json:"integrate" form:"integrate"`
	DryRun      bool   `json:"dry_run" form:"dry_run"`
	ForceUpdate bool   `json:"force_update" form:"force_update"`
	WithImages  bool   `json:"with_images" form:"with_images"`
	Lang        string `json:"lang" form:"lang"`
	NoCache     bool   `json:"no_cache" form:"no_cache"`
}

func (b importOptionsBody) runOptions() scrapping.RunOptions {
	opts := scrapping.RunOptions{
		Validate:    true,
		Integrate:   true,
		DryRun:      b.DryRun,
		ForceUpdate: b.ForceUpdate,
		WithImages:  b.WithImages,
		Lang:        b.Lang,
		NoCache:     b.NoCache,
	}
	if b.Validate != nil {
		opts.Validate = *b.Validate
	}
	if b.Integrate != nil {
		opts.Integrate = *b.Integrate
	}
	return opts
}

// POST /api/import/:entity/:externalId?dry_run=true&lang=fr
// Options come from the query string; a JSON body with the same keys overrides.
func (ih *ImportHandler) ImportOne(c *gin.Context) {
	entity := c.Param("entity")
	externalID := c.Param("externalId")

	var body importOptionsBody
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

	opts := body.runOptions()
	if opts.Lang == "" {
		opts.Lang = ih.defaultLang
	}

	result, err := ih.importer.ImportOne(c.Request.Context(), entity, externalID, opts)
	if err != nil {
		switch {
		case errors.Is(err, scrapping.ErrRecordNotFound):
			RespondError(c, http.StatusNotFound, "record_not_found", err)
		case errors.Is(err, scrapping.ErrTypeNotAuthorized):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success":   false,
				"error":     APIError{Message: err.Error(), Code: "type_not_authorized"},
				"result":    result,
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
		case result != nil && result.Stage == scrapping.StageValidate:
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success":   false,
				"error":     APIError{Message: "validation failed", Code: "validation_failed"},
				"result":    result,
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
		default:
			RespondFromError(c, err)
		}
		return
	}
	RespondOK(c, gin.H{"result": result})
}

type batchImportBody struct {
	importOptionsBody
	Filters  map[string][]string `json:"filters"`
	MaxItems int                 `json:"max_items"`
	MaxPages int                 `json:"max_pages"`
}

// POST /api/import/:entity
// body: { "filters": { "id": ["1","2"] }, "max_items": 100, ... }
func (ih *ImportHandler) ImportBatch(c *gin.Context) {
	entity := c.Param("entity")

	var body batchImportBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}

	opts := body.runOptions()
	if opts.Lang == "" {
		opts.Lang = ih.defaultLang
	}

	result, err := ih.importer.ImportBatch(
		c.Request.Context(),
		entity,
		body.Filters,
		scrapping.CollectOptions{MaxItems: body.MaxItems, MaxPages: body.MaxPages},
		opts,
	)
	if err != nil {
		RespondFromError(c, err)
		return
	}
	RespondOK(c, result)
}

// GET /api/import/entities
func (ih *ImportHandler) ListEntities(c *gin.Context) {
	RespondOK(c, gin.H{"entities": ih.importer.EntityNames()})
}
