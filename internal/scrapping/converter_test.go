package scrapping

import (
	"context"
	"errors"
	"testing"

	"github.com/valkhart/grimoire-backend/internal/domain/registry"
)

type fakeGate struct {
	allowed  map[string]map[int]bool
	resolved []string
}

func newFakeGate() *fakeGate {
	return &fakeGate{allowed: map[string]map[int]bool{}}
}

func (g *fakeGate) allow(category string, typeID int) {
	if g.allowed[category] == nil {
		g.allowed[category] = map[int]bool{}
	}
	g.allowed[category][typeID] = true
}

func (g *fakeGate) Resolve(_ context.Context, category string, typeID int, _ string) (string, error) {
	g.resolved = append(g.resolved, category)
	if g.allowed[category][typeID] {
		return registry.DecisionAllowed, nil
	}
	return registry.DecisionPending, nil
}

func (g *fakeGate) IsAllowed(_ context.Context, category string, typeID int) (bool, error) {
	return g.allowed[category][typeID], nil
}

type rememberedCall struct {
	typeID   int
	itemID   int
	seenIn   string
	source   string
	sourceID string
}

type fakePending struct {
	calls []rememberedCall
}

func (p *fakePending) Remember(_ context.Context, typeID, itemID int, seenIn string, sourceEntityType, sourceDofusdbID string, _ *int) {
	p.calls = append(p.calls, rememberedCall{
		typeID:   typeID,
		itemID:   itemID,
		seenIn:   seenIn,
		source:   sourceEntityType,
		sourceID: sourceDofusdbID,
	})
}

func itemLikeConfig() EntityConfig {
	return EntityConfig{
		Name:     "item",
		Endpoint: "/items",
		Category: "item",
		ItemLike: true,
		Fields: map[string]TransformRule{
			"level": {Kind: TransformPassThrough, Source: "level"},
			"price": {Kind: TransformFormula, Source: "price", Expr: "value / 100"},
		},
	}
}

func TestConvert_DefaultDenyRejectsUnknownType(t *testing.T) {
	gate := newFakeGate()
	pending := &fakePending{}
	cv := NewConverter(testLogger(t), gate, pending)

	raw := RawRecord{
		"id":     float64(100),
		"typeId": float64(9),
		"name":   map[string]any{"fr": "Objet inconnu"},
	}
	_, err := cv.Convert(context.Background(), raw, itemLikeConfig(), "fr")
	if !errors.Is(err, ErrTypeNotAuthorized) {
		t.Fatalf("expected ErrTypeNotAuthorized, got %v", err)
	}
	// Every gated category must have registered the sighting.
	if len(gate.resolved) != len(registry.Categories()) {
		t.Fatalf("expected %d resolve calls, got %d", len(registry.Categories()), len(gate.resolved))
	}
}

func TestConvert_ClassificationFollowsPrecedence(t *testing.T) {
	gate := newFakeGate()
	gate.allow(registry.CategoryConsumable, 12)
	gate.allow(registry.CategoryResource, 12)
	cv := NewConverter(testLogger(t), gate, &fakePending{})

	raw := RawRecord{
		"id":     float64(55),
		"typeId": float64(12),
		"name":   map[string]any{"fr": "Pain complet"},
	}
	conv, err := cv.Convert(context.Background(), raw, itemLikeConfig(), "fr")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	// Consumable beats resource in precedence order.
	if conv.Category != registry.CategoryConsumable {
		t.Fatalf("expected consumable, got %q", conv.Category)
	}
}

func TestConvert_AppliesFieldRules(t *testing.T) {
	gate := newFakeGate()
	gate.allow(registry.CategoryItem, 1)
	cv := NewConverter(testLogger(t), gate, &fakePending{})

	raw := RawRecord{
		"id":     float64(7),
		"typeId": float64(1),
		"name":   map[string]any{"fr": "Epee"},
		"level":  float64(48),
		"price":  float64(1234),
	}
	conv, err := cv.Convert(context.Background(), raw, itemLikeConfig(), "fr")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if conv.Level != 48 {
		t.Fatalf("expected level 48, got %d", conv.Level)
	}
	if conv.Price != 12 {
		t.Fatalf("expected price 12 after conversion, got %d", conv.Price)
	}
	if conv.DofusdbID != "7" {
		t.Fatalf("expected dofusdb_id 7, got %q", conv.DofusdbID)
	}
}

func TestConvert_EnumOrdinals(t *testing.T) {
	gate := newFakeGate()
	gate.allow(registry.CategoryItem, 1)
	cv := NewConverter(testLogger(t), gate, &fakePending{})

	raw := RawRecord{
		"id":     float64(8),
		"typeId": float64(1),
		"name":   map[string]any{"fr": "Cape"},
		"rarity": "mythical",
	}
	conv, err := cv.Convert(context.Background(), raw, itemLikeConfig(), "fr")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if conv.Rarity != 3 {
		t.Fatalf("expected rarity ordinal 3, got %d", conv.Rarity)
	}
}

func TestConvert_RecipeParksDisallowedIngredients(t *testing.T) {
	gate := newFakeGate()
	gate.allow(registry.CategoryItem, 1)
	gate.allow(registry.CategoryResource, 2)
	pending := &fakePending{}
	cv := NewConverter(testLogger(t), gate, pending)

	raw := RawRecord{
		"id":     float64(300),
		"typeId": float64(1),
		"name":   map[string]any{"fr": "Marteau"},
		"recipe": []any{
			map[string]any{
				"id":       float64(10),
				"typeId":   float64(2),
				"name":     map[string]any{"fr": "Fer"},
				"quantity": float64(4),
			},
			map[string]any{
				"id":       float64(11),
				"typeId":   float64(99),
				"name":     map[string]any{"fr": "Essence interdite"},
				"quantity": float64(1),
			},
		},
	}
	conv, err := cv.Convert(context.Background(), raw, itemLikeConfig(), "fr")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	if len(conv.Recipe) != 1 {
		t.Fatalf("expected 1 resolved ingredient, got %d", len(conv.Recipe))
	}
	if conv.Recipe[0].DofusdbID != "10" || conv.Recipe[0].Quantity != 4 {
		t.Fatalf("unexpected ingredient: %+v", conv.Recipe[0])
	}

	if len(pending.calls) != 1 {
		t.Fatalf("expected 1 pending candidate, got %d", len(pending.calls))
	}
	call := pending.calls[0]
	if call.typeID != 99 || call.itemID != 11 {
		t.Fatalf("unexpected pending call: %+v", call)
	}
	if call.seenIn != registry.ContextRecipe {
		t.Fatalf("expected recipe context, got %q", call.seenIn)
	}
	if call.sourceID != "300" {
		t.Fatalf("expected source id 300, got %q", call.sourceID)
	}
}

func TestConvert_MonsterDropsParkDisallowedTargets(t *testing.T) {
	gate := newFakeGate()
	gate.allow(registry.CategoryResource, 5)
	pending := &fakePending{}
	cv := NewConverter(testLogger(t), gate, pending)

	cfg := EntityConfig{Name: "monster", Endpoint: "/monsters", Category: "monster"}
	raw := RawRecord{
		"id":     float64(400),
		"name":   map[string]any{"fr": "Bouftou"},
		"isBoss": false,
		"drops": []any{
			map[string]any{
				"object": map[string]any{
					"id":     float64(20),
					"typeId": float64(5),
					"name":   map[string]any{"fr": "Laine"},
				},
				"quantity": float64(2),
			},
			map[string]any{
				"object": map[string]any{
					"id":     float64(21),
					"typeId": float64(77),
					"name":   map[string]any{"fr": "Relique"},
				},
				"quantity": float64(1),
			},
		},
	}
	conv, err := cv.Convert(context.Background(), raw, cfg, "fr")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(conv.Drops) != 1 {
		t.Fatalf("expected 1 resolved drop, got %d", len(conv.Drops))
	}
	if conv.Drops[0].DofusdbID != "20" || conv.Drops[0].Quantity != 2 {
		t.Fatalf("unexpected drop: %+v", conv.Drops[0])
	}
	if len(pending.calls) != 1 || pending.calls[0].seenIn != registry.ContextDrops {
		t.Fatalf("expected one drops-context pending call, got %+v", pending.calls)
	}
}

func TestConvert_NonItemLikeSkipsGate(t *testing.T) {
	gate := newFakeGate()
	cv := NewConverter(testLogger(t), gate, &fakePending{})

	cfg := EntityConfig{Name: "breed", Endpoint: "/breeds", Category: "breed"}
	raw := RawRecord{
		"id":   float64(1),
		"name": map[string]any{"fr": "Iop", "en": "Iop"},
	}
	conv, err := cv.Convert(context.Background(), raw, cfg, "en")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if conv.Category != "breed" {
		t.Fatalf("expected breed, got %q", conv.Category)
	}
	if len(gate.resolved) != 0 {
		t.Fatalf("gate should not be consulted for non item-like entities")
	}
}
