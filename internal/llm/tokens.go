package llm

import "encoding/json"

// charsPerToken approximates English text; good enough for budgeting history.
const charsPerToken = 4

const (
	messageOverhead  = 4  // role tokens and delimiters
	toolCallOverhead = 4  // per tool call framing
	toolDefOverhead  = 10 // per tool definition framing
)

// EstimateTokens returns a rough token count for a string, rounded up.
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return (len(s) + charsPerToken - 1) / charsPerToken
}

// EstimateMessageTokens counts content, tool calls and per-message overhead.
func EstimateMessageTokens(m Message) int {
	tokens := messageOverhead + EstimateTokens(m.Content)
	for _, tc := range m.ToolCalls {
		tokens += EstimateTokens(tc.Name) + EstimateTokens(string(tc.Arguments)) + toolCallOverhead
	}
	if m.ToolCallID != "" {
		tokens += EstimateTokens(m.ToolCallID) + 2
	}
	return tokens
}

func EstimateMessagesTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += EstimateMessageTokens(m)
	}
	return total
}

// EstimateToolsTokens estimates the cost of sending tool schemas, which are
// serialized into every request that carries them.
func EstimateToolsTokens(tools []Tool) int {
	total := 0
	for _, t := range tools {
		total += EstimateTokens(t.Name) + EstimateTokens(t.Description)
		if schema, err := json.Marshal(t.Parameters); err == nil {
			total += EstimateTokens(string(schema))
		}
		total += toolDefOverhead
	}
	return total
}
