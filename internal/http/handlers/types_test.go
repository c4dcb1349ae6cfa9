package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	types "github.com/valkhart/grimoire-backend/internal/domain"
	"github.com/valkhart/grimoire-backend/internal/scrapping"
	"github.com/valkhart/grimoire-backend/internal/services"
)

type stubRegistry struct {
	allowed bool
}

func (s *stubRegistry) Resolve(context.Context, string, int, string) (string, error) {
	return "", nil
}

func (s *stubRegistry) IsAllowed(context.Context, string, int) (bool, error) {
	return s.allowed, nil
}

func (s *stubRegistry) SetDecision(context.Context, string, int, string) (*types.TypeDecision, error) {
	return nil, nil
}

func (s *stubRegistry) List(context.Context, string, string) ([]*types.TypeDecision, error) {
	return nil, nil
}

type stubPending struct{}

func (stubPending) Remember(context.Context, int, int, string, string, string, *int) {}

func (stubPending) ListByType(context.Context, int) ([]*types.PendingCandidate, error) {
	return nil, nil
}

func (stubPending) PurgeType(context.Context, int) (int64, error) { return 0, nil }

type stubImporter struct {
	gotTypeID int
	gotLimit  int
	gotOpts   scrapping.RunOptions
}

func (s *stubImporter) ImportOne(context.Context, string, string, scrapping.RunOptions) (*scrapping.RunResult, error) {
	return &scrapping.RunResult{Success: true}, nil
}

func (s *stubImporter) ImportBatch(context.Context, string, map[string][]string, scrapping.CollectOptions, scrapping.RunOptions) (*scrapping.BatchResult, error) {
	return &scrapping.BatchResult{Success: true}, nil
}

func (s *stubImporter) Replay(_ context.Context, typeID, limit int, opts scrapping.RunOptions) (*services.ReplayOutcome, error) {
	s.gotTypeID = typeID
	s.gotLimit = limit
	s.gotOpts = opts
	return &services.ReplayOutcome{TypeID: typeID, Success: true}, nil
}

func (s *stubImporter) EntityNames() []string { return []string{"item"} }

func replayRouter(t *testing.T, registry *stubRegistry, importer *stubImporter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	th := NewTypesHandler(registry, stubPending{}, importer, "fr")
	engine.POST("/api/types/:category/:typeId/replay", th.Replay)
	return engine
}

func TestReplay_AppliesDefaultLanguage(t *testing.T) {
	importer := &stubImporter{}
	engine := replayRouter(t, &stubRegistry{allowed: true}, importer)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/types/item/5/replay?limit=3", nil)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if importer.gotTypeID != 5 || importer.gotLimit != 3 {
		t.Fatalf("unexpected replay call: type %d limit %d", importer.gotTypeID, importer.gotLimit)
	}
	if importer.gotOpts.Lang != "fr" {
		t.Fatalf("expected configured default language, got %q", importer.gotOpts.Lang)
	}
}

func TestReplay_ExplicitLanguageWins(t *testing.T) {
	importer := &stubImporter{}
	engine := replayRouter(t, &stubRegistry{allowed: true}, importer)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/types/item/5/replay?lang=en", nil)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if importer.gotOpts.Lang != "en" {
		t.Fatalf("expected explicit language, got %q", importer.gotOpts.Lang)
	}
}

func TestReplay_BlockedTypeConflicts(t *testing.T) {
	importer := &stubImporter{}
	engine := replayRouter(t, &stubRegistry{allowed: false}, importer)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/types/item/5/replay", nil)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Success || body.Error.Code != "type_not_allowed" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
