// Package catalog holds the static model capability table: every provider the
// studio knows about, the models each one serves, and the per-parameter
// constraints the settings UI renders sliders from. The data ships embedded in
// the binary; nothing here mutates at runtime.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogData []byte

type catalogFile struct {
	Providers []ProviderConfig `yaml:"providers"`
	Presets   []Preset         `yaml:"presets"`
}

// Catalog is the parsed capability table with index maps for lookup.
type Catalog struct {
	providers []ProviderConfig
	presets   []Preset
	byID      map[string]*ProviderConfig
	models    map[string]map[string]*ModelInfo // provider -> model id
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
)

// Default returns the catalog parsed from the embedded data. The embedded
// table is validated in tests, so a parse failure here is a build defect.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(catalogData)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded data invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Parse builds a Catalog from YAML and checks the constraint invariants:
// every numeric constraint needs min <= default <= max and step > 0.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		providers: file.Providers,
		presets:   file.Presets,
		byID:      make(map[string]*ProviderConfig, len(file.Providers)),
		models:    make(map[string]map[string]*ModelInfo),
	}

	for i := range c.providers {
		p := &c.providers[i]
		if p.ID == "" {
			return nil, fmt.Errorf("provider %d: missing id", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate provider %q", p.ID)
		}
		c.byID[p.ID] = p
		c.models[p.ID] = make(map[string]*ModelInfo, len(p.Models))
		for j := range p.Models {
			m := &p.Models[j]
			m.Provider = p.ID
			if _, dup := c.models[p.ID][m.ID]; dup {
				return nil, fmt.Errorf("provider %q: duplicate model %q", p.ID, m.ID)
			}
			for name, cons := range m.Constraints {
				if err := checkConstraint(cons); err != nil {
					return nil, fmt.Errorf("provider %q model %q parameter %q: %w", p.ID, m.ID, name, err)
				}
			}
			c.models[p.ID][m.ID] = m
		}
	}
	return c, nil
}

func checkConstraint(c ParameterConstraint) error {
	if !c.Numeric() {
		return nil
	}
	if *c.Min > *c.Max {
		return fmt.Errorf("min %v exceeds max %v", *c.Min, *c.Max)
	}
	if c.Step == nil || *c.Step <= 0 {
		return fmt.Errorf("step must be positive")
	}
	if def, ok := asFloat(c.Default); ok {
		if def < *c.Min || def > *c.Max {
			return fmt.Errorf("default %v outside [%v, %v]", def, *c.Min, *c.Max)
		}
	}
	return nil
}

// Providers returns all provider configs in catalog order.
func (c *Catalog) Providers() []ProviderConfig {
	out := make([]ProviderConfig, len(c.providers))
	copy(out, c.providers)
	return out
}

// Provider looks up one provider config by id.
func (c *Catalog) Provider(id string) (ProviderConfig, bool) {
	p, ok := c.byID[id]
	if !ok {
		return ProviderConfig{}, false
	}
	return *p, true
}

// ModelInfo looks up one model. The second return is false for unknown
// provider or model ids; callers must treat that as "no constraints".
func (c *Catalog) ModelInfo(provider, modelID string) (ModelInfo, bool) {
	m, ok := c.models[provider][modelID]
	if !ok {
		return ModelInfo{}, false
	}
	return *m, true
}

// ProviderModels returns the ordered model list for a provider, empty when
// the provider is unknown. Never returns nil.
func (c *Catalog) ProviderModels(provider string) []ModelInfo {
	p, ok := c.byID[provider]
	if !ok {
		return []ModelInfo{}
	}
	out := make([]ModelInfo, len(p.Models))
	copy(out, p.Models)
	return out
}

// ParameterConstraints returns the constraint map for a model, empty when the
// provider or model is unknown.
func (c *Catalog) ParameterConstraints(provider, modelID string) map[string]ParameterConstraint {
	m, ok := c.models[provider][modelID]
	if !ok {
		return map[string]ParameterConstraint{}
	}
	out := make(map[string]ParameterConstraint, len(m.Constraints))
	for k, v := range m.Constraints {
		out[k] = v
	}
	return out
}

// ProviderPresets returns the presets tagged for a provider, possibly empty.
func (c *Catalog) ProviderPresets(provider string) []Preset {
	out := []Preset{}
	for _, preset := range c.presets {
		for _, p := range preset.Providers {
			if p == provider {
				out = append(out, preset)
				break
			}
		}
	}
	return out
}
