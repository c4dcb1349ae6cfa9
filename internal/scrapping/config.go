package scrapping

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Transform rule kinds. The mapping layer is a closed variant set evaluated by
// one interpreter so field conversions stay auditable as data.
const (
	TransformPassThrough = "pass_through"
	TransformFormula     = "formula"
	TransformLookupTable = "lookup_table"
)

// Source is the declarative per-source scrapping schema. Loaded once per
// process and treated as read-only afterwards.
type Source struct {
	Name     string                  `yaml:"name"`
	Entities map[string]EntityConfig `yaml:"entities"`
}

// EntityConfig describes how one importable entity is fetched and mapped.
type EntityConfig struct {
	Name          string                   `yaml:"-"`
	Endpoint      string                   `yaml:"endpoint"`
	Category      string                   `yaml:"category"`
	ItemLike      bool                     `yaml:"item_like"`
	DefaultParams map[string]string        `yaml:"default_params"`
	Filters       map[string]FilterConfig  `yaml:"filters"`
	Relations     []string                 `yaml:"relations"`
	Fields        map[string]TransformRule `yaml:"fields"`
}

// FilterConfig maps a caller-facing filter key onto an upstream query
// parameter, with a cardinality cap for multi-value filters.
type FilterConfig struct {
	Param     string `yaml:"param"`
	MaxValues int    `yaml:"max_values"`
}

// TransformRule is one declarative field conversion.
type TransformRule struct {
	Kind    string         `yaml:"kind"`
	Source  string         `yaml:"source"`
	Expr    string         `yaml:"expr"`
	Table   map[string]int `yaml:"table"`
	Default int            `yaml:"default"`
}

// LoadSource reads and validates a source config document. Any error here is
// fatal to startup; no work starts on a broken schema.
func LoadSource(path string) (*Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source config: %w", err)
	}
	var src Source
	if err := yaml.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("parse source config: %w", err)
	}
	if err := src.validate(); err != nil {
		return nil, fmt.Errorf("invalid source config: %w", err)
	}
	for name, cfg := range src.Entities {
		cfg.Name = name
		src.Entities[name] = cfg
	}
	return &src, nil
}

func (s *Source) validate() error {
	if len(s.Entities) == 0 {
		return fmt.Errorf("no entities configured")
	}
	names := make([]string, 0, len(s.Entities))
	for name := range s.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cfg := s.Entities[name]
		if cfg.Endpoint == "" {
			return fmt.Errorf("entity %q: missing endpoint", name)
		}
		if cfg.Category == "" {
			return fmt.Errorf("entity %q: missing category", name)
		}
		for field, rule := range cfg.Fields {
			switch rule.Kind {
			case TransformPassThrough, TransformFormula, TransformLookupTable:
			default:
				return fmt.Errorf("entity %q field %q: unknown transform kind %q", name, field, rule.Kind)
			}
			if rule.Source == "" {
				return fmt.Errorf("entity %q field %q: missing source", name, field)
			}
			if rule.Kind == TransformFormula && rule.Expr == "" {
				return fmt.Errorf("entity %q field %q: formula rule without expr", name, field)
			}
			if rule.Kind == TransformLookupTable && len(rule.Table) == 0 {
				return fmt.Errorf("entity %q field %q: lookup_table rule without table", name, field)
			}
		}
	}
	return nil
}

// Entity returns the config for one importable entity name.
func (s *Source) Entity(name string) (EntityConfig, bool) {
	cfg, ok := s.Entities[name]
	return cfg, ok
}

// EntityNames lists configured entities in stable order.
func (s *Source) EntityNames() []string {
	names := make([]string, 0, len(s.Entities))
	for name := range s.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
