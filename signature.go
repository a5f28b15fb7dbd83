package bridge

import (
	"fmt"
	"strings"
)

// ParamType enumerates the declared parameter types a signature may use.
// Coercion is driven entirely by the declared type, never inferred from the
// literal value.
type ParamType string

const (
	TypeString      ParamType = "string"
	TypeInteger     ParamType = "integer"
	TypeBoolean     ParamType = "boolean"
	TypeStringArray ParamType = "string_array"
)

var validParamTypes = map[ParamType]struct{}{
	TypeString:      {},
	TypeInteger:     {},
	TypeBoolean:     {},
	TypeStringArray: {},
}

// ParameterSpec declares one downstream parameter: its canonical name, the
// inbound names that map to it, its type, requiredness, and default.
type ParameterSpec struct {
	CanonicalName string    `json:"canonical_name" yaml:"canonical_name"`
	Aliases       []string  `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Type          ParamType `json:"type" yaml:"type"`
	Required      bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Default       any       `json:"default,omitempty" yaml:"default,omitempty"`

	// MultiValued marks a string_array parameter whose scalar input may carry
	// several delimiter-separated values.
	MultiValued bool `json:"multi_valued,omitempty" yaml:"multi_valued,omitempty"`
}

// ToolSignature maps one orchestrator operation to a downstream tool and its
// parameter set. Signatures are immutable once the registry is built.
type ToolSignature struct {
	ToolID     string          `json:"tool_id" yaml:"tool_id"`
	Parameters []ParameterSpec `json:"parameters" yaml:"parameters"`
}

// validateSignature checks the build-time invariants for one signature:
// non-empty tool ID, known types, unique canonical names, unambiguous aliases,
// and defaults matching their declared type. Violations are configuration
// errors surfaced before any request is served.
func validateSignature(operationID string, sig ToolSignature) error {
	if strings.TrimSpace(operationID) == "" {
		return fmt.Errorf("bridge: signature has empty operation id")
	}
	if strings.TrimSpace(sig.ToolID) == "" {
		return fmt.Errorf("bridge: operation %q has empty tool id", operationID)
	}

	canonicals := make(map[string]struct{}, len(sig.Parameters))
	aliases := make(map[string]string)
	for _, spec := range sig.Parameters {
		name := spec.CanonicalName
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("bridge: operation %q has a parameter with empty canonical name", operationID)
		}
		if _, ok := validParamTypes[spec.Type]; !ok {
			return fmt.Errorf("bridge: operation %q parameter %q has unsupported type %q", operationID, name, spec.Type)
		}
		if _, dup := canonicals[name]; dup {
			return fmt.Errorf("bridge: operation %q declares canonical name %q twice", operationID, name)
		}
		canonicals[name] = struct{}{}

		for _, alias := range spec.Aliases {
			if strings.TrimSpace(alias) == "" {
				return fmt.Errorf("bridge: operation %q parameter %q has an empty alias", operationID, name)
			}
			if owner, dup := aliases[alias]; dup {
				if owner != name {
					return fmt.Errorf("bridge: operation %q alias %q is claimed by both %q and %q", operationID, alias, owner, name)
				}
				return fmt.Errorf("bridge: operation %q parameter %q repeats alias %q", operationID, name, alias)
			}
			aliases[alias] = name
		}

		if spec.MultiValued && spec.Type != TypeStringArray {
			return fmt.Errorf("bridge: operation %q parameter %q is multi-valued but typed %q", operationID, name, spec.Type)
		}
		if spec.Default != nil {
			if _, err := normalizeDefault(spec); err != nil {
				return fmt.Errorf("bridge: operation %q parameter %q: %w", operationID, name, err)
			}
		}
	}
	return nil
}

// normalizeDefault converts a declared default into the canonical runtime
// representation for its type (int64 for integers, []string for arrays).
// Accepts the loosely-typed values YAML decoding produces.
func normalizeDefault(spec ParameterSpec) (any, error) {
	switch spec.Type {
	case TypeString:
		s, ok := spec.Default.(string)
		if !ok {
			return nil, fmt.Errorf("default %v is not a string", spec.Default)
		}
		return s, nil
	case TypeInteger:
		switch v := spec.Default.(type) {
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		default:
			return nil, fmt.Errorf("default %v is not an integer", spec.Default)
		}
	case TypeBoolean:
		b, ok := spec.Default.(bool)
		if !ok {
			return nil, fmt.Errorf("default %v is not a boolean", spec.Default)
		}
		return b, nil
	case TypeStringArray:
		switch v := spec.Default.(type) {
		case []string:
			out := make([]string, len(v))
			copy(out, v)
			return out, nil
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("default element %v is not a string", item)
				}
				out = append(out, s)
			}
			return out, nil
		default:
			return nil, fmt.Errorf("default %v is not a string array", spec.Default)
		}
	default:
		return nil, fmt.Errorf("unsupported type %q", spec.Type)
	}
}

// cloneArgumentValue copies defaults so one invocation cannot mutate the
// registry's signature table through a shared slice.
func cloneArgumentValue(value any) any {
	if arr, ok := value.([]string); ok {
		out := make([]string, len(arr))
		copy(out, arr)
		return out
	}
	return value
}
