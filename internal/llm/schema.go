package llm

// Helper functions for building JSON Schema objects.

func Prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

func Object(properties map[string]any) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}
}

// ObjectRequired is Object with a required list. Extra properties are
// rejected, matching the strict function definitions the demos use.
func ObjectRequired(properties map[string]any, required ...string) map[string]any {
	s := Object(properties)
	s["required"] = required
	s["additionalProperties"] = false
	return s
}
