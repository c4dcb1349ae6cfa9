package scrapping

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/valkhart/grimoire-backend/internal/domain/registry"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

// ErrTypeNotAuthorized rejects a primary import target whose upstream type is
// not allowed for any category. Nested relations are parked in pending memory
// instead of raising this.
var ErrTypeNotAuthorized = errors.New("type not authorized for import")

// TypeGate is the registry view the converter needs: bookkeeping on sighting,
// pure default-deny read for classification.
type TypeGate interface {
	Resolve(ctx context.Context, category string, dofusdbTypeID int, displayName string) (string, error)
	IsAllowed(ctx context.Context, category string, dofusdbTypeID int) (bool, error)
}

// PendingMemory records items seen under an unresolved type. Remember never
// fails the caller; storage trouble is logged inside the implementation.
type PendingMemory interface {
	Remember(ctx context.Context, dofusdbTypeID, dofusdbItemID int, seenIn string, sourceEntityType, sourceDofusdbID string, quantity *int)
}

// RelationRef is a one-level reference to a related upstream entity.
type RelationRef struct {
	DofusdbID string `json:"dofusdb_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity,omitempty"`
}

// ConvertedEntity is the normalized, storage-ready shape of one upstream
// record. Numeric fields default deterministically when absent.
type ConvertedEntity struct {
	Category      string           `json:"category"`
	DofusdbID     string           `json:"dofusdb_id"`
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	Level         int              `json:"level"`
	Price         int              `json:"price"`
	Rarity        int              `json:"rarity"`
	Size          int              `json:"size"`
	IsBoss        bool             `json:"is_boss,omitempty"`
	IsArchmonster bool             `json:"is_archmonster,omitempty"`
	ImageURL      string           `json:"image_url,omitempty"`
	Stats         map[string]int   `json:"stats,omitempty"`
	Resistances   map[string]int   `json:"resistances,omitempty"`
	Effects       []map[string]any `json:"effects,omitempty"`
	Recipe        []RelationRef    `json:"recipe,omitempty"`
	Drops         []RelationRef    `json:"drops,omitempty"`
	Spells        []RelationRef    `json:"spells,omitempty"`
	Breeds        []RelationRef    `json:"breeds,omitempty"`
	Panoply       *RelationRef     `json:"panoply,omitempty"`
}

// Fixed ordinal tables for upstream enum strings. Unmapped values warn and
// fall back to 0 rather than failing the record.
var sizeOrdinals = map[string]int{
	"tiny":   0,
	"small":  1,
	"medium": 2,
	"big":    3,
	"huge":   4,
}

var rarityOrdinals = map[string]int{
	"common":    0,
	"unusual":   1,
	"rare":      2,
	"mythical":  3,
	"legendary": 4,
	"relic":     5,
}

type Converter struct {
	log     *logger.Logger
	gate    TypeGate
	pending PendingMemory
}

func NewConverter(log *logger.Logger, gate TypeGate, pending PendingMemory) *Converter {
	return &Converter{
		log:     log.With("component", "Converter"),
		gate:    gate,
		pending: pending,
	}
}

// Convert maps a raw upstream record into a normalized entity. For item-like
// records the final category comes from registry classification, not from the
// entity config.
func (cv *Converter) Convert(ctx context.Context, raw RawRecord, cfg EntityConfig, lang string) (*ConvertedEntity, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil raw record")
	}
	id, ok := raw.ID()
	if !ok {
		return nil, fmt.Errorf("raw record has no id")
	}

	conv := &ConvertedEntity{
		Category:    cfg.Category,
		DofusdbID:   strconv.Itoa(id),
		Name:        strings.TrimSpace(raw.Localized("name", lang)),
		Description: strings.TrimSpace(raw.Localized("description", lang)),
	}

	if cfg.ItemLike {
		category, err := cv.classify(ctx, raw)
		if err != nil {
			return nil, err
		}
		conv.Category = category
	}

	cv.applyFieldRules(raw, cfg, conv)
	cv.applyEnums(raw, conv)
	conv.ImageURL = imageURL(raw)

	switch conv.Category {
	case registry.CategoryItem, registry.CategoryConsumable:
		conv.Stats = deriveStats(raw)
		conv.Recipe = cv.convertRecipe(ctx, raw, conv)
		if conv.Category == registry.CategoryItem {
			conv.Panoply = panoplyRef(raw, lang)
		}
	case registry.CategoryResource:
		// resources carry no nested collections
	case "monster":
		conv.IsBoss = raw.Bool("isBoss")
		conv.IsArchmonster = raw.Bool("isMiniBoss") || raw.Bool("isArchmonster")
		conv.Resistances = deriveResistances(raw)
		conv.Drops = cv.convertDrops(ctx, raw, conv, lang)
		conv.Spells = convertRefs(raw.Records("spells"), lang)
	case "spell":
		conv.Effects = rawEffects(raw)
		conv.Breeds = convertRefs(raw.Records("breeds"), lang)
	case "breed":
		// name/description only
	}

	return conv, nil
}

// classify resolves an item-like record's category by checking its upstream
// type id against the registry in fixed precedence order. Default-deny: a type
// no curator has allowed classifies nowhere.
func (cv *Converter) classify(ctx context.Context, raw RawRecord) (string, error) {
	typeID, ok := raw.Int("typeId")
	if !ok {
		return "", fmt.Errorf("item-like record has no typeId")
	}
	typeName := typeDisplayName(raw)

	for _, category := range registry.Categories() {
		decision, err := cv.gate.Resolve(ctx, category, typeID, typeName)
		if err != nil {
			return "", fmt.Errorf("resolve type %d as %s: %w", typeID, category, err)
		}
		if decision == registry.DecisionAllowed {
			return category, nil
		}
	}
	return "", fmt.Errorf("%w: type %d (%s)", ErrTypeNotAuthorized, typeID, typeName)
}

// nestedAllowed is the pure-read variant used for nested relations; it never
// creates registry rows for the parent's sake.
func (cv *Converter) nestedAllowed(ctx context.Context, typeID int) bool {
	for _, category := range registry.Categories() {
		allowed, err := cv.gate.IsAllowed(ctx, category, typeID)
		if err != nil {
			cv.log.Warn("registry read failed during nested classification", "type_id", typeID, "error", err)
			return false
		}
		if allowed {
			return true
		}
	}
	return false
}

func (cv *Converter) applyFieldRules(raw RawRecord, cfg EntityConfig, conv *ConvertedEntity) {
	for field, rule := range cfg.Fields {
		value, ok := raw.Float(rule.Source)
		if !ok {
			// deterministic default for absent source fields
			value = 0
		}
		mapped, err := ApplyRule(rule, value)
		if err != nil {
			if errors.Is(err, ErrUnmappedValue) {
				cv.log.Warn("unmapped field value, using default",
					"entity", cfg.Name, "field", field, "value", value)
			} else {
				cv.log.Warn("field transform failed, using default",
					"entity", cfg.Name, "field", field, "error", err)
			}
			mapped = rule.Default
		}
		switch field {
		case "level":
			conv.Level = mapped
		case "price":
			conv.Price = mapped
		case "rarity":
			conv.Rarity = mapped
		case "size":
			conv.Size = mapped
		default:
			cv.log.Warn("transform rule targets unknown field", "entity", cfg.Name, "field", field)
		}
	}
}

// applyEnums covers string-typed enum fields that bypass numeric rules.
func (cv *Converter) applyEnums(raw RawRecord, conv *ConvertedEntity) {
	if s, ok := raw.String("rarity"); ok {
		if ordinal, found := rarityOrdinals[strings.ToLower(s)]; found {
			conv.Rarity = ordinal
		} else {
			cv.log.Warn("unknown rarity value, defaulting to 0", "rarity", s)
			conv.Rarity = 0
		}
	}
	if s, ok := raw.String("size"); ok {
		if ordinal, found := sizeOrdinals[strings.ToLower(s)]; found {
			conv.Size = ordinal
		} else {
			cv.log.Warn("unknown size value, defaulting to 0", "size", s)
			conv.Size = 0
		}
	}
}

// convertRecipe maps crafting ingredients one level deep. Ingredients whose
// type is not yet allowed are remembered for replay instead of imported.
func (cv *Converter) convertRecipe(ctx context.Context, raw RawRecord, conv *ConvertedEntity) []RelationRef {
	var out []RelationRef
	for _, line := range raw.Records("recipe") {
		ingredientID, ok := line.ID()
		if !ok {
			if ingredientID, ok = line.Int("itemId"); !ok {
				continue
			}
		}
		quantity, _ := line.Int("quantity")
		if quantity <= 0 {
			quantity = 1
		}

		if typeID, hasType := line.Int("typeId"); hasType && !cv.nestedAllowed(ctx, typeID) {
			q := quantity
			cv.pending.Remember(ctx, typeID, ingredientID, registry.ContextRecipe,
				conv.Category, conv.DofusdbID, &q)
			continue
		}

		out = append(out, RelationRef{
			DofusdbID: strconv.Itoa(ingredientID),
			Name:      line.Localized("name", ""),
			Quantity:  quantity,
		})
	}
	return out
}

func (cv *Converter) convertDrops(ctx context.Context, raw RawRecord, conv *ConvertedEntity, lang string) []RelationRef {
	var out []RelationRef
	for _, drop := range raw.Records("drops") {
		target := drop
		if obj, ok := drop.Record("object"); ok {
			target = obj
		}
		objectID, ok := target.ID()
		if !ok {
			if objectID, ok = drop.Int("objectId"); !ok {
				continue
			}
		}
		quantity, _ := drop.Int("quantity")
		if quantity <= 0 {
			quantity = 1
		}

		if typeID, hasType := target.Int("typeId"); hasType && !cv.nestedAllowed(ctx, typeID) {
			q := quantity
			cv.pending.Remember(ctx, typeID, objectID, registry.ContextDrops,
				"monster", conv.DofusdbID, &q)
			continue
		}

		out = append(out, RelationRef{
			DofusdbID: strconv.Itoa(objectID),
			Name:      target.Localized("name", lang),
			Quantity:  quantity,
		})
	}
	return out
}

func convertRefs(records []RawRecord, lang string) []RelationRef {
	var out []RelationRef
	for _, rec := range records {
		id, ok := rec.ID()
		if !ok {
			continue
		}
		out = append(out, RelationRef{
			DofusdbID: strconv.Itoa(id),
			Name:      rec.Localized("name", lang),
		})
	}
	return out
}

func panoplyRef(raw RawRecord, lang string) *RelationRef {
	set, ok := raw.Record("itemSet")
	if !ok {
		return nil
	}
	id, ok := set.ID()
	if !ok {
		return nil
	}
	return &RelationRef{
		DofusdbID: strconv.Itoa(id),
		Name:      set.Localized("name", lang),
	}
}

func typeDisplayName(raw RawRecord) string {
	if t, ok := raw.Record("type"); ok {
		if name := t.Localized("name", ""); name != "" {
			return name
		}
	}
	return ""
}

func imageURL(raw RawRecord) string {
	if s, ok := raw.String("img"); ok {
		return s
	}
	if imgs, ok := raw.Record("images"); ok {
		if s, ok := imgs.String("icon"); ok {
			return s
		}
	}
	return ""
}

// deriveStats flattens item effect entries into a characteristic→value map.
func deriveStats(raw RawRecord) map[string]int {
	effects := raw.Records("effects")
	if len(effects) == 0 {
		return nil
	}
	stats := make(map[string]int)
	for _, effect := range effects {
		name := effect.Localized("characteristic", "")
		if name == "" {
			if n, ok := effect.Int("characteristic"); ok {
				name = strconv.Itoa(n)
			}
		}
		if name == "" {
			continue
		}
		value, ok := effect.Int("from")
		if !ok {
			value, _ = effect.Int("value")
		}
		stats[name] = value
	}
	if len(stats) == 0 {
		return nil
	}
	return stats
}

// deriveResistances reads the first grade's elemental resistances.
func deriveResistances(raw RawRecord) map[string]int {
	grades := raw.Records("grades")
	if len(grades) == 0 {
		return nil
	}
	grade := grades[0]
	out := make(map[string]int)
	for _, key := range []string{
		"earthResistance", "fireResistance", "waterResistance",
		"airResistance", "neutralResistance",
	} {
		if v, ok := grade.Int(key); ok {
			out[key] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func rawEffects(raw RawRecord) []map[string]any {
	records := raw.Records("effects")
	if len(records) == 0 {
		return nil
	}
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, map[string]any(rec))
	}
	return out
}
