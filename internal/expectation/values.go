package expectation

import (
	"encoding/json"
	"fmt"
)

// toFloat converts any numeric value to float64.
func toFloat(v any) (float64, bool) {
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
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// valueKey identifies a value for set membership and uniqueness. Numbers
// compare by value regardless of their Go type.
func valueKey(v any) string {
	if f, ok := toFloat(v); ok {
		return fmt.Sprintf("n:%v", f)
	}
	return fmt.Sprintf("%T:%v", v, v)
}

func stringKwarg(kwargs map[string]any, name string) (string, error) {
	v, ok := kwargs[name]
	if !ok || v == nil {
		return "", fmt.Errorf("kwarg %q is required", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("kwarg %q: expected a string, got %T", name, v)
	}
	return s, nil
}

// optionalNumber reads a nullable numeric kwarg.
func optionalNumber(kwargs map[string]any, name string) (*float64, error) {
	v, ok := kwargs[name]
	if !ok || v == nil {
		return nil, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, fmt.Errorf("kwarg %q: expected a number, got %T", name, v)
	}
	return &f, nil
}

func boolKwarg(kwargs map[string]any, name string) bool {
	b, _ := kwargs[name].(bool)
	return b
}

func listKwarg(kwargs map[string]any, name string) ([]any, error) {
	v, ok := kwargs[name]
	if !ok || v == nil {
		return nil, fmt.Errorf("kwarg %q is required", name)
	}
	switch l := v.(type) {
	case []any:
		return l, nil
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("kwarg %q: expected a list, got %T", name, v)
}
