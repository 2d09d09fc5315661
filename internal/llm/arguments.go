package llm

import "encoding/json"

// rawArguments keeps the provider's argument text as-is so the tool registry
// can reject it if it is not valid JSON. Empty arguments become "{}".
func rawArguments(s string) json.RawMessage {
	if s == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(s)
}

func argumentsOrEmpty(a json.RawMessage) json.RawMessage {
	if len(a) == 0 {
		return json.RawMessage("{}")
	}
	return a
}
