package envelope

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Object asserts value to a JSON object.
func Object(value any) (map[string]any, bool) {
	if value == nil {
		return nil, false
	}
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case Response:
		return map[string]any(v), true
	default:
		return nil, false
	}
}

// ObjectList asserts value to a list of JSON objects. A lone object counts as
// a list of one; any non-object element fails the assertion.
func ObjectList(value any) ([]map[string]any, bool) {
	if value == nil {
		return nil, false
	}
	if obj, ok := Object(value); ok {
		return []map[string]any{obj}, true
	}

	items, ok := value.([]any)
	if !ok {
		return nil, false
	}
	result := make([]map[string]any, 0, len(items))
	for _, item := range items {
		obj, ok := Object(item)
		if !ok {
			return nil, false
		}
		result = append(result, obj)
	}
	return result, true
}

// Strings asserts value to a list of strings. Absent values are an empty
// list and a lone scalar is a list of one.
func Strings(value any) ([]string, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case []string:
		return v, true
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := String(item)
			if !ok {
				return nil, false
			}
			result = append(result, s)
		}
		return result, true
	default:
		s, ok := String(value)
		if !ok {
			return nil, false
		}
		return []string{s}, true
	}
}

// String renders scalar JSON values as text.
func String(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// Int64 reads integral JSON values, including numeric strings.
func Int64(value any) (int64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		f, err := v.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func Float64(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(v, ",", ".")), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
