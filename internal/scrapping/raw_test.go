package scrapping

import "testing"

func TestRawRecord_LocalizedFallback(t *testing.T) {
	rec := RawRecord{
		"name": map[string]any{"fr": "Dofus Emeraude", "en": "Emerald Dofus"},
		"slug": map[string]any{"en": "emerald-dofus"},
		"flat": "plain",
	}

	if got := rec.Localized("name", "en"); got != "Emerald Dofus" {
		t.Fatalf("expected en value, got %q", got)
	}
	if got := rec.Localized("name", "de"); got != "Dofus Emeraude" {
		t.Fatalf("expected fr fallback, got %q", got)
	}
	if got := rec.Localized("slug", ""); got != "emerald-dofus" {
		t.Fatalf("expected en fallback, got %q", got)
	}
	if got := rec.Localized("flat", "fr"); got != "plain" {
		t.Fatalf("expected plain string passthrough, got %q", got)
	}
	if got := rec.Localized("missing", "fr"); got != "" {
		t.Fatalf("expected empty for missing key, got %q", got)
	}
}

func TestRawRecord_IDFallsBackToUnderscore(t *testing.T) {
	rec := RawRecord{"_id": float64(17)}
	id, ok := rec.ID()
	if !ok || id != 17 {
		t.Fatalf("expected 17 via _id, got %d (ok=%v)", id, ok)
	}

	rec = RawRecord{"id": float64(3), "_id": float64(17)}
	id, ok = rec.ID()
	if !ok || id != 3 {
		t.Fatalf("id must win over _id, got %d", id)
	}
}

func TestRawRecord_NumericCoercion(t *testing.T) {
	rec := RawRecord{"a": float64(2.9), "b": "14", "c": true}
	if n, ok := rec.Int("a"); !ok || n != 2 {
		t.Fatalf("expected truncated 2, got %d (ok=%v)", n, ok)
	}
	if f, ok := rec.Float("b"); !ok || f != 14 {
		t.Fatalf("expected parsed 14, got %v (ok=%v)", f, ok)
	}
	if _, ok := rec.Float("c"); ok {
		t.Fatalf("bool must not coerce to float")
	}
}
