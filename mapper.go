package bridge

import (
	"strconv"
	"strings"
)

// multiValueDelimiter splits scalar input for multi-valued string_array
// parameters ("s3,ebs,rds" becomes three elements).
const multiValueDelimiter = ","

// MapParameters translates an orchestrator request into canonical arguments
// for the downstream tool. It is a pure function over the registry and the
// request: identical input always yields identical output.
//
// Unmapped inbound names fail with KindUnknownParameter rather than being
// dropped, and coercion follows declared types only.
func MapParameters(registry *Registry, req InvocationRequest) (CanonicalArguments, error) {
	sig, ok := registry.Resolve(req.OperationID)
	if !ok {
		return CanonicalArguments{}, Errorf(StageMapping, KindUnknownOperation,
			"unknown operation %q", req.OperationID)
	}

	args := make(map[string]any, len(sig.Parameters))
	for _, spec := range sig.Parameters {
		if spec.Default != nil {
			args[spec.CanonicalName] = cloneArgumentValue(spec.Default)
		}
	}

	for _, raw := range req.Parameters {
		spec, ok := findSpec(sig, raw.Name)
		if !ok {
			return CanonicalArguments{}, Errorf(StageMapping, KindUnknownParameter,
				"unknown parameter %q for operation %q", raw.Name, req.OperationID)
		}
		value, err := coerceValue(spec, raw.Value)
		if err != nil {
			return CanonicalArguments{}, err
		}
		args[spec.CanonicalName] = value
	}

	for _, spec := range sig.Parameters {
		if !spec.Required {
			continue
		}
		if _, ok := args[spec.CanonicalName]; !ok {
			return CanonicalArguments{}, Errorf(StageMapping, KindMissingRequired,
				"missing required parameter %q for operation %q", spec.CanonicalName, req.OperationID)
		}
	}

	return CanonicalArguments{
		ToolID:    sig.ToolID,
		Arguments: args,
	}, nil
}

// findSpec resolves an inbound name against a signature. Matching is exact
// and case-sensitive; a canonical-name match always wins over another spec's
// alias.
func findSpec(sig ToolSignature, name string) (ParameterSpec, bool) {
	for _, spec := range sig.Parameters {
		if spec.CanonicalName == name {
			return spec, true
		}
	}
	for _, spec := range sig.Parameters {
		for _, alias := range spec.Aliases {
			if alias == name {
				return spec, true
			}
		}
	}
	return ParameterSpec{}, false
}

// coerceValue converts the raw text value into the spec's declared type.
func coerceValue(spec ParameterSpec, value string) (any, error) {
	switch spec.Type {
	case TypeString:
		return value, nil
	case TypeInteger:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, Errorf(StageMapping, KindTypeCoercionFailed,
				"parameter %q: %q is not a valid integer", spec.CanonicalName, value)
		}
		return n, nil
	case TypeBoolean:
		switch strings.ToLower(value) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		default:
			return nil, Errorf(StageMapping, KindTypeCoercionFailed,
				"parameter %q: %q is not a valid boolean", spec.CanonicalName, value)
		}
	case TypeStringArray:
		if spec.MultiValued && strings.Contains(value, multiValueDelimiter) {
			parts := strings.Split(value, multiValueDelimiter)
			out := make([]string, 0, len(parts))
			for _, part := range parts {
				out = append(out, strings.TrimSpace(part))
			}
			return out, nil
		}
		return []string{value}, nil
	default:
		return nil, Errorf(StageMapping, KindTypeCoercionFailed,
			"parameter %q has unsupported type %q", spec.CanonicalName, spec.Type)
	}
}
