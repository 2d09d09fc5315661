package llm

import (
	"context"
	"encoding/json"
	"iter"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type Message struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // for tool result messages
}

type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Client is the model-call collaborator. Chat returns either a PlainReply or
// a ToolRequested; passing nil tools sends no tool schema at all.
type Client interface {
	Chat(ctx context.Context, messages []Message, tools []Tool) (Response, error)
	Stream(ctx context.Context, messages []Message) iter.Seq2[string, error]
}

// Complete runs a tool-less chat and returns the reply text.
func Complete(ctx context.Context, c Client, messages []Message) (string, error) {
	resp, err := c.Chat(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return resp.Content(), nil
}

// splitSystem separates leading system messages from the rest of the
// conversation for providers that take the system prompt out of band.
func splitSystem(messages []Message) (string, []Message) {
	var system string
	i := 0
	for i < len(messages) && messages[i].Role == RoleSystem {
		if system != "" {
			system += "\n\n"
		}
		system += messages[i].Content
		i++
	}
	return system, messages[i:]
}
