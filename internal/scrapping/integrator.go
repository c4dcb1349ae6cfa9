package scrapping

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/valkhart/grimoire-backend/internal/data/aggregates"
	catalogrepos "github.com/valkhart/grimoire-backend/internal/data/repos/catalog"
	types "github.com/valkhart/grimoire-backend/internal/domain"
	"github.com/valkhart/grimoire-backend/internal/domain/registry"
	"github.com/valkhart/grimoire-backend/internal/media"
	"github.com/valkhart/grimoire-backend/internal/platform/dbctx"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

// Integration outcomes. Dry runs report the would_* variants and never write.
const (
	ActionCreated     = "created"
	ActionUpdated     = "updated"
	ActionSkipped     = "skipped"
	ActionWouldCreate = "would_create"
	ActionWouldUpdate = "would_update"
	ActionWouldSkip   = "would_skip"
)

type IntegrateOptions struct {
	DryRun      bool
	ForceUpdate bool
	WithImages  bool
}

type IntegrationResult struct {
	ID     uuid.UUID      `json:"id,omitempty"`
	Action string         `json:"action"`
	Data   map[string]any `json:"data,omitempty"`
}

type Integrator struct {
	log         *logger.Logger
	txr         aggregates.TxRunner
	items       catalogrepos.ItemRepo
	consumables catalogrepos.ConsumableRepo
	resources   catalogrepos.ResourceRepo
	monsters    catalogrepos.MonsterRepo
	spells      catalogrepos.SpellRepo
	breeds      catalogrepos.BreedRepo
	panoplies   catalogrepos.PanoplyRepo
	media       media.Store
}

func NewIntegrator(
	log *logger.Logger,
	txr aggregates.TxRunner,
	items catalogrepos.ItemRepo,
	consumables catalogrepos.ConsumableRepo,
	resources catalogrepos.ResourceRepo,
	monsters catalogrepos.MonsterRepo,
	spells catalogrepos.SpellRepo,
	breeds catalogrepos.BreedRepo,
	panoplies catalogrepos.PanoplyRepo,
	mediaStore media.Store,
) *Integrator {
	return &Integrator{
		log:         log.With("component", "Integrator"),
		txr:         txr,
		items:       items,
		consumables: consumables,
		resources:   resources,
		monsters:    monsters,
		spells:      spells,
		breeds:      breeds,
		panoplies:   panoplies,
		media:       mediaStore,
	}
}

// existingRow is what a pre-write lookup yields: enough identity to decide the
// action and preserve fields the converter does not produce.
type existingRow struct {
	id        uuid.UUID
	imagePath string
	createdAt time.Time
}

func (e existingRow) found() bool { return e.id != uuid.Nil }

// Integrate upserts one converted entity. All writes for the entity (the row,
// relation sync, cross-category cleanup) happen in a single transaction.
func (ig *Integrator) Integrate(ctx context.Context, conv *ConvertedEntity, opts IntegrateOptions) (*IntegrationResult, error) {
	if conv == nil {
		return nil, fmt.Errorf("nil converted entity")
	}

	existing, err := ig.lookupExisting(dbctx.Context{Ctx: ctx}, conv)
	if err != nil {
		return nil, err
	}

	if existing.found() && !opts.ForceUpdate {
		if opts.DryRun {
			return &IntegrationResult{ID: existing.id, Action: ActionWouldSkip}, nil
		}
		return &IntegrationResult{ID: existing.id, Action: ActionSkipped}, nil
	}
	if opts.DryRun {
		action := ActionWouldCreate
		if existing.found() {
			action = ActionWouldUpdate
		}
		return &IntegrationResult{ID: existing.id, Action: action, Data: map[string]any{"name": conv.Name}}, nil
	}

	// Mirroring happens outside the transaction; a failed fetch keeps whatever
	// path the row already had and never fails the integration.
	imagePath := existing.imagePath
	if opts.WithImages && conv.ImageURL != "" && (opts.ForceUpdate || !ig.media.IsLocal(existing.imagePath)) {
		mirrored, mirrorErr := ig.media.Mirror(ctx, conv.ImageURL)
		if mirrorErr != nil {
			ig.log.Warn("image mirror failed, keeping previous image path",
				"entity", conv.Category, "dofusdb_id", conv.DofusdbID, "error", mirrorErr)
		} else {
			imagePath = mirrored
		}
	}

	var result *IntegrationResult
	err = ig.txr.InTx(ctx, func(dbc dbctx.Context) error {
		var txErr error
		result, txErr = ig.write(dbc, conv, existing, imagePath)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (ig *Integrator) write(dbc dbctx.Context, conv *ConvertedEntity, existing existingRow, imagePath string) (*IntegrationResult, error) {
	if err := ig.cleanupSiblings(dbc, conv); err != nil {
		return nil, err
	}

	switch conv.Category {
	case registry.CategoryItem:
		return ig.writeItem(dbc, conv, existing, imagePath)
	case registry.CategoryConsumable:
		return ig.writeConsumable(dbc, conv, existing, imagePath)
	case registry.CategoryResource:
		return ig.writeResource(dbc, conv, existing, imagePath)
	case "monster":
		return ig.writeMonster(dbc, conv, existing, imagePath)
	case "spell":
		return ig.writeSpell(dbc, conv, existing, imagePath)
	case "breed":
		return ig.writeBreed(dbc, conv, existing, imagePath)
	}
	return nil, fmt.Errorf("unknown category %q", conv.Category)
}

func (ig *Integrator) lookupExisting(dbc dbctx.Context, conv *ConvertedEntity) (existingRow, error) {
	switch conv.Category {
	case registry.CategoryItem:
		if row, err := ig.items.GetByDofusdbID(dbc, conv.DofusdbID); err != nil || row != nil {
			return itemIdentity(row, err)
		}
		row, err := ig.items.GetByName(dbc, conv.Name)
		return itemIdentity(row, err)
	case registry.CategoryConsumable:
		if row, err := ig.consumables.GetByDofusdbID(dbc, conv.DofusdbID); err != nil || row != nil {
			return consumableIdentity(row, err)
		}
		row, err := ig.consumables.GetByName(dbc, conv.Name)
		return consumableIdentity(row, err)
	case registry.CategoryResource:
		if row, err := ig.resources.GetByDofusdbID(dbc, conv.DofusdbID); err != nil || row != nil {
			return resourceIdentity(row, err)
		}
		row, err := ig.resources.GetByName(dbc, conv.Name)
		return resourceIdentity(row, err)
	case "monster":
		if row, err := ig.monsters.GetByDofusdbID(dbc, conv.DofusdbID); err != nil || row != nil {
			return monsterIdentity(row, err)
		}
		row, err := ig.monsters.GetByName(dbc, conv.Name)
		return monsterIdentity(row, err)
	case "spell":
		if row, err := ig.spells.GetByDofusdbID(dbc, conv.DofusdbID); err != nil || row != nil {
			return spellIdentity(row, err)
		}
		row, err := ig.spells.GetByName(dbc, conv.Name)
		return spellIdentity(row, err)
	case "breed":
		if row, err := ig.breeds.GetByDofusdbID(dbc, conv.DofusdbID); err != nil || row != nil {
			return breedIdentity(row, err)
		}
		row, err := ig.breeds.GetByName(dbc, conv.Name)
		return breedIdentity(row, err)
	}
	return existingRow{}, fmt.Errorf("unknown category %q", conv.Category)
}

// cleanupSiblings removes same-named rows from the other item-like tables
// before writing. Name uniqueness across the item-like domain is assumed; a
// record reclassified by curation moves tables instead of duplicating.
func (ig *Integrator) cleanupSiblings(dbc dbctx.Context, conv *ConvertedEntity) error {
	if !registry.ValidCategory(conv.Category) {
		return nil
	}
	if conv.Category != registry.CategoryItem {
		if n, err := ig.items.DeleteByName(dbc, conv.Name); err != nil {
			return err
		} else if n > 0 {
			ig.log.Info("removed same-named row from item table", "name", conv.Name)
		}
	}
	if conv.Category != registry.CategoryConsumable {
		if n, err := ig.consumables.DeleteByName(dbc, conv.Name); err != nil {
			return err
		} else if n > 0 {
			ig.log.Info("removed same-named row from consumable table", "name", conv.Name)
		}
	}
	if conv.Category != registry.CategoryResource {
		if n, err := ig.resources.DeleteByName(dbc, conv.Name); err != nil {
			return err
		} else if n > 0 {
			ig.log.Info("removed same-named row from resource table", "name", conv.Name)
		}
	}
	return nil
}

func (ig *Integrator) writeItem(dbc dbctx.Context, conv *ConvertedEntity, existing existingRow, imagePath string) (*IntegrationResult, error) {
	row := &types.Item{
		ID:          existing.id,
		CreatedAt:   existing.createdAt,
		DofusdbID:   &conv.DofusdbID,
		Name:        conv.Name,
		Description: conv.Description,
		Level:       conv.Level,
		Price:       conv.Price,
		Rarity:      conv.Rarity,
		ImageURL:    conv.ImageURL,
		ImagePath:   imagePath,
		Stats:       marshalJSON(conv.Stats),
	}

	if conv.Panoply != nil {
		panoply, err := ig.panoplies.GetOrCreate(dbc, conv.Panoply.DofusdbID, conv.Panoply.Name)
		if err != nil {
			return nil, err
		}
		if panoply != nil {
			row.PanoplyID = &panoply.ID
		}
	}

	action := ActionCreated
	var err error
	if existing.found() {
		action = ActionUpdated
		err = ig.items.Update(dbc, row)
	} else {
		err = ig.items.Create(dbc, row)
	}
	if err != nil {
		return nil, err
	}

	lines := resolveRecipeLines(ig, dbc, conv, func(resourceID uuid.UUID, quantity int) *types.ItemRecipeLine {
		return &types.ItemRecipeLine{ResourceID: resourceID, Quantity: quantity}
	})
	if err := ig.items.ReplaceRecipe(dbc, row.ID, lines); err != nil {
		return nil, err
	}

	return &IntegrationResult{ID: row.ID, Action: action, Data: map[string]any{"name": row.Name}}, nil
}

func (ig *Integrator) writeConsumable(dbc dbctx.Context, conv *ConvertedEntity, existing existingRow, imagePath string) (*IntegrationResult, error) {
	row := &types.Consumable{
		ID:          existing.id,
		CreatedAt:   existing.createdAt,
		DofusdbID:   &conv.DofusdbID,
		Name:        conv.Name,
		Description: conv.Description,
		Level:       conv.Level,
		Price:       conv.Price,
		Rarity:      conv.Rarity,
		ImageURL:    conv.ImageURL,
		ImagePath:   imagePath,
		Stats:       marshalJSON(conv.Stats),
	}

	action := ActionCreated
	var err error
	if existing.found() {
		action = ActionUpdated
		err = ig.consumables.Update(dbc, row)
	} else {
		err = ig.consumables.Create(dbc, row)
	}
	if err != nil {
		return nil, err
	}

	lines := resolveRecipeLines(ig, dbc, conv, func(resourceID uuid.UUID, quantity int) *types.ConsumableRecipeLine {
		return &types.ConsumableRecipeLine{ResourceID: resourceID, Quantity: quantity}
	})
	if err := ig.consumables.ReplaceRecipe(dbc, row.ID, lines); err != nil {
		return nil, err
	}

	return &IntegrationResult{ID: row.ID, Action: action, Data: map[string]any{"name": row.Name}}, nil
}

func (ig *Integrator) writeResource(dbc dbctx.Context, conv *ConvertedEntity, existing existingRow, imagePath string) (*IntegrationResult, error) {
	row := &types.Resource{
		ID:          existing.id,
		CreatedAt:   existing.createdAt,
		DofusdbID:   &conv.DofusdbID,
		Name:        conv.Name,
		Description: conv.Description,
		Level:       conv.Level,
		Price:       conv.Price,
		Rarity:      conv.Rarity,
		ImageURL:    conv.ImageURL,
		ImagePath:   imagePath,
	}

	action := ActionCreated
	var err error
	if existing.found() {
		action = ActionUpdated
		err = ig.resources.Update(dbc, row)
	} else {
		err = ig.resources.Create(dbc, row)
	}
	if err != nil {
		return nil, err
	}
	return &IntegrationResult{ID: row.ID, Action: action, Data: map[string]any{"name": row.Name}}, nil
}

func (ig *Integrator) writeMonster(dbc dbctx.Context, conv *ConvertedEntity, existing existingRow, imagePath string) (*IntegrationResult, error) {
	row := &types.Monster{
		ID:            existing.id,
		CreatedAt:     existing.createdAt,
		DofusdbID:     &conv.DofusdbID,
		Name:          conv.Name,
		Level:         conv.Level,
		Size:          conv.Size,
		IsBoss:        conv.IsBoss,
		IsArchmonster: conv.IsArchmonster,
		ImageURL:      conv.ImageURL,
		ImagePath:     imagePath,
		Resistances:   marshalJSON(conv.Resistances),
	}

	action := ActionCreated
	var err error
	if existing.found() {
		action = ActionUpdated
		err = ig.monsters.Update(dbc, row)
	} else {
		err = ig.monsters.Create(dbc, row)
	}
	if err != nil {
		return nil, err
	}

	drops := ig.resolveDrops(dbc, conv)
	if err := ig.monsters.ReplaceDrops(dbc, row.ID, drops); err != nil {
		return nil, err
	}

	spellIDs := ig.resolveSpellIDs(dbc, conv.Spells)
	if err := ig.monsters.ReplaceSpells(dbc, row.ID, spellIDs); err != nil {
		return nil, err
	}

	return &IntegrationResult{ID: row.ID, Action: action, Data: map[string]any{"name": row.Name}}, nil
}

func (ig *Integrator) writeSpell(dbc dbctx.Context, conv *ConvertedEntity, existing existingRow, imagePath string) (*IntegrationResult, error) {
	row := &types.Spell{
		ID:          existing.id,
		CreatedAt:   existing.createdAt,
		DofusdbID:   &conv.DofusdbID,
		Name:        conv.Name,
		Description: conv.Description,
		ImageURL:    conv.ImageURL,
		ImagePath:   imagePath,
		Effects:     marshalJSON(conv.Effects),
	}

	action := ActionCreated
	var err error
	if existing.found() {
		action = ActionUpdated
		err = ig.spells.Update(dbc, row)
	} else {
		err = ig.spells.Create(dbc, row)
	}
	if err != nil {
		return nil, err
	}

	breedIDs := ig.resolveBreedIDs(dbc, conv.Breeds)
	if err := ig.spells.ReplaceBreeds(dbc, row.ID, breedIDs); err != nil {
		return nil, err
	}

	return &IntegrationResult{ID: row.ID, Action: action, Data: map[string]any{"name": row.Name}}, nil
}

func (ig *Integrator) writeBreed(dbc dbctx.Context, conv *ConvertedEntity, existing existingRow, imagePath string) (*IntegrationResult, error) {
	row := &types.Breed{
		ID:          existing.id,
		CreatedAt:   existing.createdAt,
		DofusdbID:   &conv.DofusdbID,
		Name:        conv.Name,
		Description: conv.Description,
		ImageURL:    conv.ImageURL,
		ImagePath:   imagePath,
	}

	action := ActionCreated
	var err error
	if existing.found() {
		action = ActionUpdated
		err = ig.breeds.Update(dbc, row)
	} else {
		err = ig.breeds.Create(dbc, row)
	}
	if err != nil {
		return nil, err
	}
	return &IntegrationResult{ID: row.ID, Action: action, Data: map[string]any{"name": row.Name}}, nil
}

// resolveRecipeLines maps recipe refs onto local resource rows. Unresolvable
// ingredients are skipped; partial relation data beats aborting the entity.
func resolveRecipeLines[T any](ig *Integrator, dbc dbctx.Context, conv *ConvertedEntity, build func(uuid.UUID, int) T) []T {
	var out []T
	for _, ref := range conv.Recipe {
		resource, err := ig.resources.GetByDofusdbID(dbc, ref.DofusdbID)
		if err == nil && resource == nil {
			resource, err = ig.resources.GetByName(dbc, ref.Name)
		}
		if err != nil || resource == nil {
			ig.log.Warn("recipe ingredient unresolved locally, skipping",
				"owner", conv.DofusdbID, "ingredient", ref.DofusdbID, "error", err)
			continue
		}
		out = append(out, build(resource.ID, ref.Quantity))
	}
	return out
}

func (ig *Integrator) resolveDrops(dbc dbctx.Context, conv *ConvertedEntity) []*types.MonsterDrop {
	var out []*types.MonsterDrop
	for _, ref := range conv.Drops {
		category, targetID := ig.resolveItemLike(dbc, ref)
		if targetID == uuid.Nil {
			ig.log.Warn("drop target unresolved locally, skipping",
				"monster", conv.DofusdbID, "target", ref.DofusdbID)
			continue
		}
		out = append(out, &types.MonsterDrop{
			TargetCategory: category,
			TargetID:       targetID,
			Quantity:       ref.Quantity,
		})
	}
	return out
}

// resolveItemLike checks the item-like tables in classification precedence
// order, external id first then name.
func (ig *Integrator) resolveItemLike(dbc dbctx.Context, ref RelationRef) (string, uuid.UUID) {
	if row, err := ig.items.GetByDofusdbID(dbc, ref.DofusdbID); err == nil && row != nil {
		return registry.CategoryItem, row.ID
	}
	if row, err := ig.consumables.GetByDofusdbID(dbc, ref.DofusdbID); err == nil && row != nil {
		return registry.CategoryConsumable, row.ID
	}
	if row, err := ig.resources.GetByDofusdbID(dbc, ref.DofusdbID); err == nil && row != nil {
		return registry.CategoryResource, row.ID
	}
	if row, err := ig.items.GetByName(dbc, ref.Name); err == nil && row != nil {
		return registry.CategoryItem, row.ID
	}
	if row, err := ig.consumables.GetByName(dbc, ref.Name); err == nil && row != nil {
		return registry.CategoryConsumable, row.ID
	}
	if row, err := ig.resources.GetByName(dbc, ref.Name); err == nil && row != nil {
		return registry.CategoryResource, row.ID
	}
	return "", uuid.Nil
}

func (ig *Integrator) resolveSpellIDs(dbc dbctx.Context, refs []RelationRef) []uuid.UUID {
	var out []uuid.UUID
	for _, ref := range refs {
		spell, err := ig.spells.GetByDofusdbID(dbc, ref.DofusdbID)
		if err == nil && spell == nil {
			spell, err = ig.spells.GetByName(dbc, ref.Name)
		}
		if err != nil || spell == nil {
			ig.log.Warn("spell reference unresolved locally, skipping", "spell", ref.DofusdbID, "error", err)
			continue
		}
		out = append(out, spell.ID)
	}
	return out
}

func (ig *Integrator) resolveBreedIDs(dbc dbctx.Context, refs []RelationRef) []uuid.UUID {
	var out []uuid.UUID
	for _, ref := range refs {
		breed, err := ig.breeds.GetByDofusdbID(dbc, ref.DofusdbID)
		if err == nil && breed == nil {
			breed, err = ig.breeds.GetByName(dbc, ref.Name)
		}
		if err != nil || breed == nil {
			ig.log.Warn("breed reference unresolved locally, skipping", "breed", ref.DofusdbID, "error", err)
			continue
		}
		out = append(out, breed.ID)
	}
	return out
}

func itemIdentity(row *types.Item, err error) (existingRow, error) {
	if err != nil || row == nil {
		return existingRow{}, err
	}
	return existingRow{id: row.ID, imagePath: row.ImagePath, createdAt: row.CreatedAt}, nil
}

func consumableIdentity(row *types.Consumable, err error) (existingRow, error) {
	if err != nil || row == nil {
		return existingRow{}, err
	}
	return existingRow{id: row.ID, imagePath: row.ImagePath, createdAt: row.CreatedAt}, nil
}

func resourceIdentity(row *types.Resource, err error) (existingRow, error) {
	if err != nil || row == nil {
		return existingRow{}, err
	}
	return existingRow{id: row.ID, imagePath: row.ImagePath, createdAt: row.CreatedAt}, nil
}

func monsterIdentity(row *types.Monster, err error) (existingRow, error) {
	if err != nil || row == nil {
		return existingRow{}, err
	}
	return existingRow{id: row.ID, imagePath: row.ImagePath, createdAt: row.CreatedAt}, nil
}

func spellIdentity(row *types.Spell, err error) (existingRow, error) {
	if err != nil || row == nil {
		return existingRow{}, err
	}
	return existingRow{id: row.ID, imagePath: row.ImagePath, createdAt: row.CreatedAt}, nil
}

func breedIdentity(row *types.Breed, err error) (existingRow, error) {
	if err != nil || row == nil {
		return existingRow{}, err
	}
	return existingRow{id: row.ID, imagePath: row.ImagePath, createdAt: row.CreatedAt}, nil
}

// marshalJSON stores nil for empty values so JSON columns stay NULL instead of
// holding the literal "null".
func marshalJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil || string(raw) == "null" {
		return nil
	}
	return datatypes.JSON(raw)
}
