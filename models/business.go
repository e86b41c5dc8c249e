package models

// UnwrapBusinessSetup returns the object of a single-element array. Any
// other value passes through unchanged.
func UnwrapBusinessSetup(v any) any {
	if list, ok := v.([]any); ok && len(list) == 1 {
		return list[0]
	}
	return v
}

// MergeBusinessSetup shallow-merges patch into the stored setup.
func MergeBusinessSetup(current any, patch Record) Record {
	merged := Record{}
	if obj, ok := UnwrapBusinessSetup(current).(map[string]any); ok {
		merged.Merge(obj)
	}
	merged.Merge(patch)
	return merged
}
