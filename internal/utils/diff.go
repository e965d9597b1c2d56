package utils

import (
	"sort"

	"github.com/burugo/modelkit/internal/interfaces"
)

// ChangedFields compares two documents and returns the keys of updated whose value
// differs from original (or is absent from it), together with the new values.
func ChangedFields(original, updated map[string]any) map[string]any {
	changed := make(map[string]any)
	for key, newVal := range updated {
		oldVal, ok := original[key]
		if !ok || !Equal(oldVal, newVal) {
			changed[key] = newVal
		}
	}
	return changed
}

// RemovedFields returns the sorted keys of original that updated no longer carries.
func RemovedFields(original, updated map[string]any) []string {
	var removed []string
	for key := range original {
		if _, ok := updated[key]; !ok {
			removed = append(removed, key)
		}
	}
	sort.Strings(removed)
	return removed
}

// ApplyChanges merges a copy of changes into doc. A change set to interfaces.Removed
// deletes its key.
func ApplyChanges(doc, changes map[string]any) {
	for key, value := range changes {
		if _, ok := value.(interfaces.RemovedField); ok {
			delete(doc, key)
			continue
		}
		doc[key] = DeepCopy(value)
	}
}
