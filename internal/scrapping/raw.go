package scrapping

import (
	"strconv"
)

// RawRecord is one decoded upstream JSON object. JSON numbers arrive as
// float64; the accessors normalize the usual shapes.
type RawRecord map[string]any

func (r RawRecord) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func (r RawRecord) Int(key string) (int, bool) {
	f, ok := r.Float(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func (r RawRecord) Bool(key string) bool {
	v, ok := r[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (r RawRecord) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Localized reads a DofusDB localized field, which is either a plain string or
// an object keyed by language code. Falls back to "fr", then "en".
func (r RawRecord) Localized(key, lang string) string {
	v, ok := r[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	for _, candidate := range []string{lang, "fr", "en"} {
		if candidate == "" {
			continue
		}
		if s, ok := obj[candidate].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func (r RawRecord) Record(key string) (RawRecord, bool) {
	v, ok := r[key]
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return RawRecord(obj), true
}

func (r RawRecord) Records(key string) []RawRecord {
	v, ok := r[key]
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]RawRecord, 0, len(list))
	for _, entry := range list {
		if obj, ok := entry.(map[string]any); ok {
			out = append(out, RawRecord(obj))
		}
	}
	return out
}

// ID reads the upstream record id ("id", falling back to "_id").
func (r RawRecord) ID() (int, bool) {
	if id, ok := r.Int("id"); ok {
		return id, true
	}
	return r.Int("_id")
}
