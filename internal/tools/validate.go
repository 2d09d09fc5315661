package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Validate checks args against a JSON schema object: required fields,
// primitive property types and additionalProperties: false.
func Validate(args map[string]any, schema map[string]any) error {
	if schema == nil {
		return nil
	}

	for _, field := range requiredFields(schema["required"]) {
		if _, ok := args[field]; !ok {
			return fmt.Errorf("missing required field: %s", field)
		}
	}

	props, _ := schema["properties"].(map[string]any)
	strict := schema["additionalProperties"] == false

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		def, ok := props[key]
		if !ok {
			if strict {
				return fmt.Errorf("unexpected field: %s", key)
			}
			continue
		}
		typ := ""
		if m, ok := def.(map[string]any); ok {
			typ, _ = m["type"].(string)
		}
		if typ == "" {
			continue
		}
		if err := checkType(args[key], typ); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}
	return nil
}

func requiredFields(v any) []string {
	switch req := v.(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func checkType(value any, expected string) error {
	ok := false
	switch expected {
	case "string":
		_, ok = value.(string)
	case "boolean":
		_, ok = value.(bool)
	case "number":
		ok = isNumber(value)
	case "integer":
		ok = isInteger(value)
	case "object":
		_, ok = value.(map[string]any)
	case "array":
		_, ok = value.([]any)
	case "null":
		ok = value == nil
	default:
		return fmt.Errorf("unsupported schema type %q", expected)
	}
	if !ok {
		return fmt.Errorf("expected %s but got %T", expected, value)
	}
	return nil
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case float64, float32, int, int64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int64:
		return true
	case float64:
		return math.Trunc(v) == v
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}
