package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/valkhart/grimoire-backend/internal/clients/dofusdb"
	"github.com/valkhart/grimoire-backend/internal/data/aggregates"
	catalogrepos "github.com/valkhart/grimoire-backend/internal/data/repos/catalog"
	registryrepos "github.com/valkhart/grimoire-backend/internal/data/repos/registry"
	"github.com/valkhart/grimoire-backend/internal/data/repos/testutil"
	types "github.com/valkhart/grimoire-backend/internal/domain"
	"github.com/valkhart/grimoire-backend/internal/domain/registry"
	"github.com/valkhart/grimoire-backend/internal/platform/dbctx"
	"github.com/valkhart/grimoire-backend/internal/scrapping"
)

type importerFixture struct {
	importer  ImporterService
	pending   PendingService
	registry  TypeRegistryService
	decisions registryrepos.TypeDecisionRepo
	resources catalogrepos.ResourceRepo
}

// itemServer serves /items/:id records with the given type id, returning 404
// for ids not in the set.
func itemServer(t *testing.T, typeID int, ids map[int]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id int
		if _, err := fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/items/"), "%d", &id); err != nil {
			http.NotFound(w, r)
			return
		}
		name, ok := ids[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     id,
			"typeId": typeID,
			"name":   map[string]any{"fr": name},
			"level":  float64(1),
		})
	}))
}

func newImporterFixture(t *testing.T, tx *gorm.DB, baseURL string) *importerFixture {
	t.Helper()
	log := testutil.Logger(t)

	decisions := registryrepos.NewTypeDecisionRepo(tx, log)
	candidates := registryrepos.NewPendingCandidateRepo(tx, log)
	typeRegistry := NewTypeRegistryService(log, decisions)
	pending := NewPendingService(log, candidates)

	client := dofusdb.NewClientWithOptions(log, dofusdb.Options{
		BaseURL: baseURL,
		RPS:     1000,
		Burst:   1000,
	})
	collector := scrapping.NewCollector(log, client)
	converter := scrapping.NewConverter(log, typeRegistry, pending)
	resources := catalogrepos.NewResourceRepo(tx, log)
	integrator := scrapping.NewIntegrator(
		log,
		aggregates.NewGormTxRunner(tx),
		catalogrepos.NewItemRepo(tx, log),
		catalogrepos.NewConsumableRepo(tx, log),
		resources,
		catalogrepos.NewMonsterRepo(tx, log),
		catalogrepos.NewSpellRepo(tx, log),
		catalogrepos.NewBreedRepo(tx, log),
		catalogrepos.NewPanoplyRepo(tx, log),
		nil,
	)

	source := &scrapping.Source{
		Name: "dofusdb",
		Entities: map[string]scrapping.EntityConfig{
			"item": {
				Name:     "item",
				Endpoint: "/items",
				Category: "item",
				ItemLike: true,
			},
		},
	}
	orchestrator := scrapping.NewOrchestrator(log, source, collector, converter, integrator)

	return &importerFixture{
		importer:  NewImporterService(log, orchestrator, pending),
		pending:   pending,
		registry:  typeRegistry,
		decisions: decisions,
		resources: resources,
	}
}

func allowType(t *testing.T, fx *importerFixture, category string, typeID int) {
	t.Helper()
	row := &types.TypeDecision{Category: category, DofusdbTypeID: typeID, Decision: registry.DecisionAllowed}
	if err := fx.decisions.Create(dbctx.Background(), row); err != nil {
		t.Fatalf("seed allowed type: %v", err)
	}
}

func parkCandidate(t *testing.T, fx *importerFixture, typeID, itemID int) {
	t.Helper()
	fx.pending.Remember(context.Background(), typeID, itemID, registry.ContextRecipe, "item", "999", nil)
	rows, err := fx.pending.ListByType(context.Background(), typeID)
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}
	found := false
	for _, r := range rows {
		if r.DofusdbItemID == itemID {
			found = true
		}
	}
	if !found {
		t.Fatalf("candidate %d not persisted", itemID)
	}
}

func TestReplay_ImportsAndPurgesOnFullSuccess(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	srv := itemServer(t, 5, map[int]string{20: "Laine de Bouftou", 21: "Cuir de Bouftou"})
	defer srv.Close()

	fx := newImporterFixture(t, tx, srv.URL)
	allowType(t, fx, registry.CategoryResource, 5)
	parkCandidate(t, fx, 5, 20)
	parkCandidate(t, fx, 5, 21)

	out, err := fx.importer.Replay(context.Background(), 5, 0, scrapping.RunOptions{
		Validate:  true,
		Integrate: true,
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !out.Success || out.Total != 2 || out.Succeeded != 2 || out.Failed != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if !out.Purged {
		t.Fatalf("expected purge after full success")
	}

	for _, id := range []string{"20", "21"} {
		row, err := fx.resources.GetByDofusdbID(dbctx.Background(), id)
		if err != nil {
			t.Fatalf("get resource %s: %v", id, err)
		}
		if row == nil {
			t.Fatalf("resource %s not imported", id)
		}
	}

	left, err := fx.pending.ListByType(context.Background(), 5)
	if err != nil {
		t.Fatalf("list after purge: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected purged candidates, %d remain", len(left))
	}
}

func TestReplay_PartialFailureKeepsCandidates(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	// Item 31 is gone upstream; its replay must fail without purging.
	srv := itemServer(t, 6, map[int]string{30: "Plume de Tofu"})
	defer srv.Close()

	fx := newImporterFixture(t, tx, srv.URL)
	allowType(t, fx, registry.CategoryResource, 6)
	parkCandidate(t, fx, 6, 30)
	parkCandidate(t, fx, 6, 31)

	out, err := fx.importer.Replay(context.Background(), 6, 0, scrapping.RunOptions{
		Validate:  true,
		Integrate: true,
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if out.Success || out.Succeeded != 1 || out.Failed != 1 {
		t.Fatalf("expected 1 success and 1 failure, got %+v", out)
	}
	if out.Purged {
		t.Fatalf("purge must not run after a partial failure")
	}

	left, err := fx.pending.ListByType(context.Background(), 6)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 2 {
		t.Fatalf("expected candidates to survive, %d remain", len(left))
	}
}

func TestImportOne_DefaultDenyNewType(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	srv := itemServer(t, 77, map[int]string{40: "Objet mysterieux"})
	defer srv.Close()

	fx := newImporterFixture(t, tx, srv.URL)

	_, err := fx.importer.ImportOne(context.Background(), "item", "40", scrapping.RunOptions{
		Validate:  true,
		Integrate: true,
	})
	if err == nil {
		t.Fatalf("expected type authorization failure")
	}

	// First sighting must have registered the type as pending per category.
	for _, category := range registry.Categories() {
		row, err := fx.decisions.GetByTypeID(dbctx.Background(), category, 77)
		if err != nil {
			t.Fatalf("get decision: %v", err)
		}
		if row == nil || row.Decision != registry.DecisionPending {
			t.Fatalf("expected pending row for %s, got %+v", category, row)
		}
	}
}
