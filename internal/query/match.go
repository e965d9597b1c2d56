// Package query evaluates document filters for the backends that match in memory.
package query

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/burugo/modelkit/common"
	"github.com/burugo/modelkit/internal/utils"
)

// Supported operators inside an operator map, e.g. {"age": {"$gte": 18}}.
const (
	OpEq   = "$eq"
	OpNe   = "$ne"
	OpGt   = "$gt"
	OpGte  = "$gte"
	OpLt   = "$lt"
	OpLte  = "$lte"
	OpIn   = "$in"
	OpLike = "$like"
)

// Match reports whether doc satisfies every condition in q.
// An empty query matches every document.
func Match(doc map[string]any, q map[string]any) (bool, error) {
	for _, field := range utils.SortedKeys(q) {
		cond := q[field]
		value, present := utils.GetPath(doc, field)

		ops, isOps := Operators(cond)
		if !isOps {
			if !present || !utils.Equal(value, cond) {
				return false, nil
			}
			continue
		}

		for _, op := range utils.SortedKeys(ops) {
			ok, err := evaluate(op, value, present, ops[op])
			if err != nil {
				return false, fmt.Errorf("%w: field '%s': %v", common.ErrInvalidQuery, field, err)
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

// Operators returns cond as an operator map when every key starts with '$'.
func Operators(cond any) (map[string]any, bool) {
	m, ok := cond.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

// Validate checks that every operator used in q is supported.
func Validate(q map[string]any) error {
	for field, cond := range q {
		ops, isOps := Operators(cond)
		if !isOps {
			continue
		}
		for op := range ops {
			switch op {
			case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpLike:
			default:
				return fmt.Errorf("%w: unsupported operator '%s' on field '%s'", common.ErrInvalidQuery, op, field)
			}
		}
	}
	return nil
}

func evaluate(op string, value any, present bool, arg any) (bool, error) {
	switch op {
	case OpEq:
		return present && utils.Equal(value, arg), nil
	case OpNe:
		return !present || !utils.Equal(value, arg), nil
	case OpGt, OpGte, OpLt, OpLte:
		if !present || value == nil {
			return false, nil
		}
		return compareValues(value, arg, op)
	case OpIn:
		if !present {
			return false, nil
		}
		return checkIn(value, arg)
	case OpLike:
		s, ok := value.(string)
		if !present || !ok {
			return false, nil
		}
		pattern, ok := arg.(string)
		if !ok {
			return false, fmt.Errorf("%s requires a string pattern, got %T", OpLike, arg)
		}
		return matchLike(s, pattern)
	}
	return false, fmt.Errorf("unsupported operator '%s'", op)
}

// compareValues compares two values using the ordering operators, handling numeric,
// string and time types.
func compareValues(docVal, argVal any, op string) (bool, error) {
	var cmp int
	switch {
	case isNumber(docVal):
		a, _ := utils.ToFloat(docVal)
		b, ok := utils.ToFloat(argVal)
		if !ok {
			return false, fmt.Errorf("cannot compare number (%T) with %T", docVal, argVal)
		}
		cmp = compareOrdered(a, b)
	case isTime(docVal):
		a, _ := docVal.(time.Time)
		b, ok := argVal.(time.Time)
		if !ok {
			return false, fmt.Errorf("cannot compare time with %T", argVal)
		}
		cmp = a.Compare(b)
	default:
		a, ok := docVal.(string)
		if !ok {
			return false, fmt.Errorf("unsupported type %T for comparison operators", docVal)
		}
		b, ok := argVal.(string)
		if !ok {
			return false, fmt.Errorf("cannot compare string with %T", argVal)
		}
		cmp = strings.Compare(a, b)
	}

	switch op {
	case OpGt:
		return cmp > 0, nil
	case OpGte:
		return cmp >= 0, nil
	case OpLt:
		return cmp < 0, nil
	case OpLte:
		return cmp <= 0, nil
	}
	return false, fmt.Errorf("internal error: unexpected operator %s", op)
}

func compareOrdered(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func isNumber(v any) bool {
	_, ok := utils.ToFloat(v)
	return ok
}

func isTime(v any) bool {
	_, ok := v.(time.Time)
	return ok
}

// checkIn checks if a document value exists within a slice or array argument.
func checkIn(value any, arg any) (bool, error) {
	argSlice := reflect.ValueOf(arg)
	if argSlice.Kind() != reflect.Slice && argSlice.Kind() != reflect.Array {
		return false, fmt.Errorf("%s requires a slice or array argument, got %T", OpIn, arg)
	}
	for i := 0; i < argSlice.Len(); i++ {
		if utils.Equal(value, argSlice.Index(i).Interface()) {
			return true, nil
		}
	}
	return false, nil
}

// matchLike checks if s matches a SQL LIKE pattern with '%' at the beginning, end, or both.
func matchLike(s, pattern string) (bool, error) {
	if strings.Contains(pattern, "_") {
		return false, errors.New("LIKE pattern with '_' wildcard not supported")
	}

	switch {
	case strings.HasPrefix(pattern, "%") && strings.HasSuffix(pattern, "%") && len(pattern) > 1:
		return strings.Contains(s, strings.Trim(pattern, "%")), nil
	case strings.HasPrefix(pattern, "%"):
		return strings.HasSuffix(s, strings.TrimPrefix(pattern, "%")), nil
	case strings.HasSuffix(pattern, "%"):
		return strings.HasPrefix(s, strings.TrimSuffix(pattern, "%")), nil
	default:
		return s == pattern, nil
	}
}
