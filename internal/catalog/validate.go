package catalog

import "fmt"

// ValidationResult reports the outcome of checking a candidate parameter set.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateParameters checks a candidate parameter set against the constraint
// map of the given model. Only keys that exist in the constraint map are
// checked; unknown keys pass through untouched so provider-specific extras
// (Gemini thinking budgets, beta sampler knobs) do not need central
// registration. Pure and total: any input shape yields a result, never a
// panic.
func (c *Catalog) ValidateParameters(provider, modelID string, params ModelParameters) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}
	constraints := c.ParameterConstraints(provider, modelID)
	if len(constraints) == 0 || len(params) == 0 {
		return result
	}

	for key, value := range params {
		cons, known := constraints[key]
		if !known || !cons.Numeric() {
			continue
		}
		num, ok := asFloat(value)
		if !ok {
			continue
		}
		if num < *cons.Min || num > *cons.Max {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s must be between %s and %s", key, formatBound(*cons.Min), formatBound(*cons.Max)))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// asFloat coerces the numeric types that show up in decoded JSON and YAML.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// formatBound renders bounds without trailing zeros so messages read
// "between 0 and 2" rather than "between 0.000000 and 2.000000".
func formatBound(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
