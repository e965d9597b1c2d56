package utils

import (
	"reflect"
	"sort"
	"strings"
	"time"
)

// DeepCopy copies maps and slices recursively. Other values are returned as is.
func DeepCopy(value any) any {
	switch v := value.(type) {
	case map[string]any:
		if v == nil {
			return v
		}
		result := make(map[string]any, len(v))
		for k, item := range v {
			result[k] = DeepCopy(item)
		}
		return result
	case []any:
		if v == nil {
			return v
		}
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = DeepCopy(item)
		}
		return result
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

// CopyMap returns a deep copy of m. A nil map yields an empty map.
func CopyMap(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	return DeepCopy(m).(map[string]any)
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetPath resolves a dotted path ("y.z") inside nested maps.
func GetPath(m map[string]any, path string) (any, bool) {
	if v, ok := m[path]; ok {
		return v, true
	}
	parts := strings.Split(path, ".")
	var current any = m
	for _, part := range parts {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// IsEmpty reports whether v counts as "no value" for identity and required checks.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case time.Time:
		return t.IsZero()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// ToFloat converts any Go numeric value to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Equal compares two document values, treating all numeric kinds as numbers and
// time.Time by instant.
func Equal(a, b any) bool {
	if fa, ok := ToFloat(a); ok {
		fb, ok := ToFloat(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}
