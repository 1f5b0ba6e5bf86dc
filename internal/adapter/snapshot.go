package adapter

import (
	json "github.com/goccy/go-json"
)

// Snapshot returns a deep, plain-Go copy of the document (maps stay maps,
// *Array becomes []any) suitable for marshaling or diagnostic dumps.
func (a *Adapter) Snapshot() any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return plainValue(a.root)
}

func plainValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = plainValue(val)
		}
		return out
	case *Array:
		out := make([]any, len(t.Items))
		for i, item := range t.Items {
			out[i] = plainValue(item)
		}
		return out
	default:
		return t
	}
}

// DebugJSON renders the document as indented JSON for logging/inspection.
func (a *Adapter) DebugJSON() (string, error) {
	b, err := json.MarshalIndent(a.Snapshot(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
