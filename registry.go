package bridge

import (
	"fmt"
	"slices"
)

// Registry is the immutable table mapping operation identifiers to downstream
// tool signatures. All invariants are checked when the registry is built;
// lookups at request time are plain map reads.
type Registry struct {
	byOperation map[string]ToolSignature
	byTool      map[string]ToolSignature
}

// NewRegistry validates every signature and builds the lookup tables.
// Duplicate aliases, duplicate canonical names, unknown types, and
// type-mismatched defaults all fail here, never at request time.
func NewRegistry(signatures map[string]ToolSignature) (*Registry, error) {
	byOperation := make(map[string]ToolSignature, len(signatures))
	byTool := make(map[string]ToolSignature, len(signatures))

	for operationID, sig := range signatures {
		if err := validateSignature(operationID, sig); err != nil {
			return nil, err
		}
		normalized, err := normalizeSignature(sig)
		if err != nil {
			return nil, fmt.Errorf("bridge: operation %q: %w", operationID, err)
		}
		byOperation[operationID] = normalized
		byTool[normalized.ToolID] = normalized
	}

	return &Registry{
		byOperation: byOperation,
		byTool:      byTool,
	}, nil
}

// Resolve returns the signature registered for an operation identifier.
func (r *Registry) Resolve(operationID string) (ToolSignature, bool) {
	if r == nil {
		return ToolSignature{}, false
	}
	sig, ok := r.byOperation[operationID]
	return sig, ok
}

// SignatureFor returns the signature registered under a downstream tool
// identifier.
func (r *Registry) SignatureFor(toolID string) (ToolSignature, bool) {
	if r == nil {
		return ToolSignature{}, false
	}
	sig, ok := r.byTool[toolID]
	return sig, ok
}

// OperationIDs returns registered operation identifiers in sorted order.
func (r *Registry) OperationIDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.byOperation))
	for id := range r.byOperation {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// normalizeSignature deep-copies a signature and rewrites its defaults into
// canonical runtime values so callers cannot alias registry state.
func normalizeSignature(sig ToolSignature) (ToolSignature, error) {
	out := ToolSignature{
		ToolID:     sig.ToolID,
		Parameters: make([]ParameterSpec, len(sig.Parameters)),
	}
	for i, spec := range sig.Parameters {
		normalized := spec
		normalized.Aliases = slices.Clone(spec.Aliases)
		if spec.Default != nil {
			value, err := normalizeDefault(spec)
			if err != nil {
				return ToolSignature{}, fmt.Errorf("parameter %q: %w", spec.CanonicalName, err)
			}
			normalized.Default = value
		}
		out.Parameters[i] = normalized
	}
	return out, nil
}
