package scrapping

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/valkhart/grimoire-backend/internal/data/aggregates"
	catalogrepos "github.com/valkhart/grimoire-backend/internal/data/repos/catalog"
	"github.com/valkhart/grimoire-backend/internal/data/repos/testutil"
	types "github.com/valkhart/grimoire-backend/internal/domain"
	"github.com/valkhart/grimoire-backend/internal/media"
	"github.com/valkhart/grimoire-backend/internal/platform/dbctx"
)

type integratorFixture struct {
	ig          *Integrator
	items       catalogrepos.ItemRepo
	consumables catalogrepos.ConsumableRepo
	resources   catalogrepos.ResourceRepo
}

func newIntegratorFixture(t *testing.T, tx *gorm.DB) *integratorFixture {
	t.Helper()
	return newIntegratorFixtureWithMedia(t, tx, nil)
}

func newIntegratorFixtureWithMedia(t *testing.T, tx *gorm.DB, store media.Store) *integratorFixture {
	t.Helper()
	log := testutil.Logger(t)
	items := catalogrepos.NewItemRepo(tx, log)
	consumables := catalogrepos.NewConsumableRepo(tx, log)
	resources := catalogrepos.NewResourceRepo(tx, log)
	ig := NewIntegrator(
		log,
		aggregates.NewGormTxRunner(tx),
		items,
		consumables,
		resources,
		catalogrepos.NewMonsterRepo(tx, log),
		catalogrepos.NewSpellRepo(tx, log),
		catalogrepos.NewBreedRepo(tx, log),
		catalogrepos.NewPanoplyRepo(tx, log),
		store,
	)
	return &integratorFixture{ig: ig, items: items, consumables: consumables, resources: resources}
}

// unreachableMirror fails every download, the way an offline upstream would.
type unreachableMirror struct{}

func (unreachableMirror) Mirror(context.Context, string) (string, error) {
	return "", errors.New("mirror unavailable")
}

func (unreachableMirror) IsLocal(imagePath string) bool {
	return strings.HasPrefix(imagePath, "/media/")
}

func TestIntegrate_CreateSkipUpdateCycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	fx := newIntegratorFixture(t, tx)
	ctx := context.Background()

	conv := &ConvertedEntity{
		Category:  "resource",
		DofusdbID: "1001",
		Name:      "Frene",
		Level:     1,
	}

	res, err := fx.ig.Integrate(ctx, conv, IntegrateOptions{})
	if err != nil {
		t.Fatalf("first integrate: %v", err)
	}
	if res.Action != ActionCreated {
		t.Fatalf("expected created, got %q", res.Action)
	}
	createdID := res.ID

	// Re-importing without force is a skip, same row.
	res, err = fx.ig.Integrate(ctx, conv, IntegrateOptions{})
	if err != nil {
		t.Fatalf("second integrate: %v", err)
	}
	if res.Action != ActionSkipped || res.ID != createdID {
		t.Fatalf("expected skipped on same row, got %q (%s)", res.Action, res.ID)
	}

	conv.Level = 10
	res, err = fx.ig.Integrate(ctx, conv, IntegrateOptions{ForceUpdate: true})
	if err != nil {
		t.Fatalf("forced integrate: %v", err)
	}
	if res.Action != ActionUpdated || res.ID != createdID {
		t.Fatalf("expected updated on same row, got %q (%s)", res.Action, res.ID)
	}

	row, err := fx.resources.GetByDofusdbID(dbctx.Background(), "1001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row == nil || row.Level != 10 {
		t.Fatalf("update not persisted: %+v", row)
	}
}

func TestIntegrate_DryRunWritesNothing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	fx := newIntegratorFixture(t, tx)
	ctx := context.Background()

	conv := &ConvertedEntity{Category: "resource", DofusdbID: "2001", Name: "Ortie"}

	res, err := fx.ig.Integrate(ctx, conv, IntegrateOptions{DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if res.Action != ActionWouldCreate {
		t.Fatalf("expected would_create, got %q", res.Action)
	}

	row, err := fx.resources.GetByDofusdbID(dbctx.Background(), "2001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row != nil {
		t.Fatalf("dry run must not write, found %+v", row)
	}

	if _, err := fx.ig.Integrate(ctx, conv, IntegrateOptions{}); err != nil {
		t.Fatalf("real integrate: %v", err)
	}
	res, err = fx.ig.Integrate(ctx, conv, IntegrateOptions{DryRun: true, ForceUpdate: true})
	if err != nil {
		t.Fatalf("dry run update: %v", err)
	}
	if res.Action != ActionWouldUpdate {
		t.Fatalf("expected would_update, got %q", res.Action)
	}
}

func TestIntegrate_CrossCategoryCleanup(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	fx := newIntegratorFixture(t, tx)
	ctx := context.Background()

	// A record first classified as resource gets re-imported as consumable
	// after curation; the stale resource row must go.
	if _, err := fx.ig.Integrate(ctx, &ConvertedEntity{
		Category: "resource", DofusdbID: "3001", Name: "Potion de rappel",
	}, IntegrateOptions{}); err != nil {
		t.Fatalf("seed resource: %v", err)
	}

	res, err := fx.ig.Integrate(ctx, &ConvertedEntity{
		Category: "consumable", DofusdbID: "3001", Name: "Potion de rappel",
	}, IntegrateOptions{})
	if err != nil {
		t.Fatalf("integrate consumable: %v", err)
	}
	if res.Action != ActionCreated {
		t.Fatalf("expected created, got %q", res.Action)
	}

	stale, err := fx.resources.GetByName(dbctx.Background(), "Potion de rappel")
	if err != nil {
		t.Fatalf("get stale: %v", err)
	}
	if stale != nil {
		t.Fatalf("stale resource row survived cleanup: %+v", stale)
	}
	kept, err := fx.consumables.GetByName(dbctx.Background(), "Potion de rappel")
	if err != nil {
		t.Fatalf("get kept: %v", err)
	}
	if kept == nil {
		t.Fatalf("consumable row missing")
	}
}

func TestIntegrate_ReclassifyRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	fx := newIntegratorFixture(t, tx)
	ctx := context.Background()

	// resource -> consumable -> resource. The middle step cleans the resource
	// row out; coming back must not trip over the removed row's external id.
	if _, err := fx.ig.Integrate(ctx, &ConvertedEntity{
		Category: "resource", DofusdbID: "3101", Name: "Eau de source",
	}, IntegrateOptions{}); err != nil {
		t.Fatalf("seed resource: %v", err)
	}
	if _, err := fx.ig.Integrate(ctx, &ConvertedEntity{
		Category: "consumable", DofusdbID: "3101", Name: "Eau de source",
	}, IntegrateOptions{}); err != nil {
		t.Fatalf("reclassify as consumable: %v", err)
	}

	res, err := fx.ig.Integrate(ctx, &ConvertedEntity{
		Category: "resource", DofusdbID: "3101", Name: "Eau de source",
	}, IntegrateOptions{})
	if err != nil {
		t.Fatalf("reclassify back as resource: %v", err)
	}
	if res.Action != ActionCreated {
		t.Fatalf("expected created, got %q", res.Action)
	}

	row, err := fx.resources.GetByDofusdbID(dbctx.Background(), "3101")
	if err != nil {
		t.Fatalf("get resource: %v", err)
	}
	if row == nil {
		t.Fatalf("resource row missing after round trip")
	}
	stale, err := fx.consumables.GetByName(dbctx.Background(), "Eau de source")
	if err != nil {
		t.Fatalf("get stale consumable: %v", err)
	}
	if stale != nil {
		t.Fatalf("stale consumable row survived cleanup: %+v", stale)
	}
}

func TestIntegrate_MirrorFailureKeepsExistingImagePath(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	fx := newIntegratorFixtureWithMedia(t, tx, unreachableMirror{})
	ctx := context.Background()

	dofusdbID := "7001"
	if err := fx.resources.Create(dbctx.Background(), &types.Resource{
		DofusdbID: &dofusdbID,
		Name:      "Bois de frene",
		ImageURL:  "https://img.example/frene.png",
		ImagePath: "/media/frene.png",
	}); err != nil {
		t.Fatalf("seed resource: %v", err)
	}

	res, err := fx.ig.Integrate(ctx, &ConvertedEntity{
		Category:  "resource",
		DofusdbID: dofusdbID,
		Name:      "Bois de frene",
		ImageURL:  "https://img.example/frene.png",
	}, IntegrateOptions{ForceUpdate: true, WithImages: true})
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if res.Action != ActionUpdated {
		t.Fatalf("expected updated, got %q", res.Action)
	}

	row, err := fx.resources.GetByDofusdbID(dbctx.Background(), dofusdbID)
	if err != nil {
		t.Fatalf("get resource: %v", err)
	}
	if row == nil || row.ImagePath != "/media/frene.png" {
		t.Fatalf("mirrored path lost on failed refresh: %+v", row)
	}
}

func TestIntegrate_ResolvesRecipeAgainstLocalResources(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	fx := newIntegratorFixture(t, tx)
	ctx := context.Background()
	dbc := dbctx.Background()

	if _, err := fx.ig.Integrate(ctx, &ConvertedEntity{
		Category: "resource", DofusdbID: "4001", Name: "Fer",
	}, IntegrateOptions{}); err != nil {
		t.Fatalf("seed resource: %v", err)
	}

	res, err := fx.ig.Integrate(ctx, &ConvertedEntity{
		Category:  "item",
		DofusdbID: "4100",
		Name:      "Marteau en fer",
		Recipe: []RelationRef{
			{DofusdbID: "4001", Name: "Fer", Quantity: 5},
			{DofusdbID: "4999", Name: "Inconnu", Quantity: 1},
		},
	}, IntegrateOptions{})
	if err != nil {
		t.Fatalf("integrate item: %v", err)
	}

	var lines []types.ItemRecipeLine
	if err := tx.WithContext(dbc.Ctx).Where("item_id = ?", res.ID).Find(&lines).Error; err != nil {
		t.Fatalf("load recipe lines: %v", err)
	}
	// The unknown ingredient is skipped, not fatal.
	if len(lines) != 1 {
		t.Fatalf("expected 1 recipe line, got %d", len(lines))
	}
	if lines[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", lines[0].Quantity)
	}
}

func TestIntegrate_ItemPanoplyGetOrCreate(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	fx := newIntegratorFixture(t, tx)
	ctx := context.Background()

	conv := &ConvertedEntity{
		Category:  "item",
		DofusdbID: "5100",
		Name:      "Coiffe du Bouftou",
		Panoply:   &RelationRef{DofusdbID: "77", Name: "Panoplie du Bouftou"},
	}
	res, err := fx.ig.Integrate(ctx, conv, IntegrateOptions{})
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}

	item, err := fx.items.GetByDofusdbID(dbctx.Background(), "5100")
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item == nil || item.ID != res.ID {
		t.Fatalf("item missing: %+v", item)
	}
	if item.PanoplyID == nil {
		t.Fatalf("expected panoply link to be set")
	}
}
