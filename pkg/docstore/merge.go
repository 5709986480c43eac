package docstore

import (
	"encoding/json"
	"fmt"
)

// MergePatch applies an RFC 7396 merge patch to doc. Fields set to null in
// patch are removed; nested objects merge recursively.
func MergePatch(doc, patch json.RawMessage) (json.RawMessage, error) {
	var target map[string]any
	if err := json.Unmarshal(doc, &target); err != nil {
		return nil, fmt.Errorf("docstore: merge target: %w", err)
	}
	var p map[string]any
	if err := json.Unmarshal(patch, &p); err != nil {
		return nil, fmt.Errorf("docstore: merge patch: %w", err)
	}
	merged, err := json.Marshal(mergeObject(target, p))
	if err != nil {
		return nil, fmt.Errorf("docstore: merge encode: %w", err)
	}
	return merged, nil
}

func mergeObject(target, patch map[string]any) map[string]any {
	if target == nil {
		target = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		if v == nil {
			delete(target, k)
			continue
		}
		if pv, ok := v.(map[string]any); ok {
			tv, _ := target[k].(map[string]any)
			target[k] = mergeObject(tv, pv)
			continue
		}
		target[k] = v
	}
	return target
}
