package catalog

// ModelParameters is an open parameter bag keyed by provider-specific names.
// Providers define their own schemas, so values stay loosely typed; validation
// walks only the keys present in a model's constraint map.
type ModelParameters map[string]any

// ParameterConstraint describes the valid shape of one generation parameter.
// Numeric parameters carry Min/Max/Step; boolean and string parameters carry
// only a type tag and a default.
type ParameterConstraint struct {
	Type    string   `yaml:"type" json:"type"`
	Min     *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Step    *float64 `yaml:"step,omitempty" json:"step,omitempty"`
	Default any      `yaml:"default,omitempty" json:"default,omitempty"`
}

// Numeric reports whether the constraint bounds a numeric range.
func (c ParameterConstraint) Numeric() bool {
	return (c.Type == "number" || c.Type == "integer") && c.Min != nil && c.Max != nil
}

// ModelPricing is the cost per 1K tokens in USD.
type ModelPricing struct {
	Input  float64 `yaml:"input" json:"input"`
	Output float64 `yaml:"output" json:"output"`
}

// ModelInfo identifies one queryable model. Immutable reference data, created
// at build time from the embedded catalog.
type ModelInfo struct {
	ID                  string                         `yaml:"id" json:"id"`
	Name                string                         `yaml:"name" json:"name"`
	Provider            string                         `yaml:"-" json:"provider"`
	ContextLength       int                            `yaml:"context_length" json:"contextLength"`
	SupportedParameters []string                       `yaml:"supported_parameters" json:"supportedParameters"`
	Constraints         map[string]ParameterConstraint `yaml:"constraints" json:"constraints"`
	Pricing             *ModelPricing                  `yaml:"pricing,omitempty" json:"pricing,omitempty"`
}

// ProviderConfig groups everything known about one provider.
type ProviderConfig struct {
	ID                string          `yaml:"id" json:"id"`
	Name              string          `yaml:"name" json:"name"`
	Description       string          `yaml:"description" json:"description"`
	RequiresAPIKey    bool            `yaml:"requires_api_key" json:"requiresApiKey"`
	BaseURL           string          `yaml:"base_url,omitempty" json:"baseUrl,omitempty"`
	Models            []ModelInfo     `yaml:"models" json:"models"`
	DefaultParameters ModelParameters `yaml:"default_parameters" json:"defaultParameters"`
	Features          []string        `yaml:"features" json:"features"`
}

// Preset is a named parameter bundle (e.g. Creative/Balanced/Precise) tagged
// with the providers it applies to.
type Preset struct {
	ID          string          `yaml:"id" json:"id"`
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description" json:"description"`
	Providers   []string        `yaml:"providers" json:"providers"`
	Parameters  ModelParameters `yaml:"parameters" json:"parameters"`
}
