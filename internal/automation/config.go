package automation

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

// ParameterType is the value type of a configuration parameter.
type ParameterType string

// Parameter types.
const (
	TypeText    ParameterType = "text"
	TypeInteger ParameterType = "integer"
	TypeDecimal ParameterType = "decimal"
	TypeBoolean ParameterType = "boolean"
)

// Valid reports whether t is a known parameter type.
func (t ParameterType) Valid() bool {
	switch t {
	case TypeText, TypeInteger, TypeDecimal, TypeBoolean:
		return true
	}
	return false
}

// ConfigParameter declares one configuration value of a module type or rule.
type ConfigParameter struct {
	Name        string        `json:"name" yaml:"name"`
	Type        ParameterType `json:"type" yaml:"type"`
	Required    bool          `json:"required,omitempty" yaml:"required,omitempty"`
	Default     any           `json:"default,omitempty" yaml:"default,omitempty"`
	Label       string        `json:"label,omitempty" yaml:"label,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	// Options restricts the value to one of the listed values when set.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// validateParameters checks names, types and defaults of params.
func validateParameters(params []ConfigParameter) error {
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if p.Name == "" {
			return fmt.Errorf("%w: parameter without name", ErrInvalidConfiguration)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: parameter %q", ErrDuplicateKey, p.Name)
		}
		seen[p.Name] = true
		if !p.Type.Valid() {
			return fmt.Errorf("%w: parameter %q has type %q", ErrInvalidConfiguration, p.Name, p.Type)
		}
		if p.Default != nil {
			if _, err := coerce(p, p.Default); err != nil {
				return fmt.Errorf("default of %q: %w", p.Name, err)
			}
		}
	}
	return nil
}

// ValidateConfiguration checks values against params and returns a new map
// with defaults applied and numbers normalised (integers to int64, decimals
// to float64).
//
// Unknown keys, missing required values and type mismatches are reported as
// ErrInvalidConfiguration. Placeholder strings ("${name}") are accepted for
// any type; they are resolved when a rule is instantiated.
func ValidateConfiguration(params []ConfigParameter, values map[string]any) (map[string]any, error) {
	byName := make(map[string]ConfigParameter, len(params))
	for _, p := range params {
		byName[p.Name] = p
	}

	for _, key := range slices.Sorted(maps.Keys(values)) {
		if _, ok := byName[key]; !ok {
			return nil, fmt.Errorf("%w: unknown parameter %q", ErrInvalidConfiguration, key)
		}
	}

	out := make(map[string]any, len(params))
	for _, p := range params {
		v, ok := values[p.Name]
		if !ok || v == nil {
			switch {
			case p.Default != nil:
				v = p.Default
			case p.Required:
				return nil, fmt.Errorf("%w: missing required parameter %q", ErrInvalidConfiguration, p.Name)
			default:
				continue
			}
		}

		if _, isPlaceholder := placeholder(v); isPlaceholder {
			out[p.Name] = v
			continue
		}

		coerced, err := coerce(p, v)
		if err != nil {
			return nil, err
		}
		out[p.Name] = coerced
	}
	return out, nil
}

func coerce(p ConfigParameter, v any) (any, error) {
	var out any
	switch p.Type {
	case TypeText:
		s, ok := v.(string)
		if !ok {
			return nil, typeError(p, v)
		}
		out = s
	case TypeInteger:
		n, ok := toInt64(v)
		if !ok {
			return nil, typeError(p, v)
		}
		out = n
	case TypeDecimal:
		f, ok := toFloat64(v)
		if !ok {
			return nil, typeError(p, v)
		}
		out = f
	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, typeError(p, v)
		}
		out = b
	default:
		return nil, fmt.Errorf("%w: parameter %q has type %q", ErrInvalidConfiguration, p.Name, p.Type)
	}

	if len(p.Options) > 0 && !slices.Contains(p.Options, fmt.Sprint(out)) {
		return nil, fmt.Errorf("%w: parameter %q must be one of %s",
			ErrInvalidConfiguration, p.Name, strings.Join(p.Options, ", "))
	}
	return out, nil
}

func typeError(p ConfigParameter, v any) error {
	return fmt.Errorf("%w: parameter %q wants %s, got %T", ErrInvalidConfiguration, p.Name, p.Type, v)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), n <= math.MaxInt64
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float64:
		// float64(MaxInt64) rounds up to 2^63, which is already out of range.
		if math.IsNaN(n) || n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int, int32, int64, uint, uint64:
		i, ok := toInt64(n)
		return float64(i), ok
	}
	return 0, false
}

// placeholder returns the parameter name of a "${name}" value.
func placeholder(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "${") || !strings.HasSuffix(s, "}") || len(s) < 4 {
		return "", false
	}
	return s[2 : len(s)-1], true
}

// resolvePlaceholders returns a copy of values with every "${name}" value
// replaced by scope[name].
func resolvePlaceholders(values, scope map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for k, v := range values {
		name, ok := placeholder(v)
		if !ok {
			out[k] = v
			continue
		}
		resolved, found := scope[name]
		if !found {
			return nil, fmt.Errorf("%w: %q references undefined parameter %q", ErrInvalidConfiguration, k, name)
		}
		out[k] = resolved
	}
	return out, nil
}
