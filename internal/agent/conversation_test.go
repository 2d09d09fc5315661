package agent

import (
	"encoding/json"
	"testing"

	"github.com/chris/flightai/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assistantCall(ids ...string) llm.Message {
	m := llm.Message{Role: llm.RoleAssistant}
	for _, id := range ids {
		m.ToolCalls = append(m.ToolCalls, llm.ToolCall{ID: id, Name: "get_ticket_price", Arguments: json.RawMessage(`{}`)})
	}
	return m
}

func TestNewConversation(t *testing.T) {
	c := NewConversation("sys")
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "sys", c.SystemPrompt())
	assert.Empty(t, c.History())
}

func TestAppend_ToolMessageMustAnswerPrecedingCall(t *testing.T) {
	tests := []struct {
		name string
		msgs []llm.Message
		ok   bool
	}{
		{
			name: "matching id",
			msgs: []llm.Message{{Role: llm.RoleUser}, assistantCall("a"), {Role: llm.RoleTool, ToolCallID: "a"}},
			ok:   true,
		},
		{
			name: "two calls answered in turn",
			msgs: []llm.Message{assistantCall("a", "b"), {Role: llm.RoleTool, ToolCallID: "b"}, {Role: llm.RoleTool, ToolCallID: "a"}},
			ok:   true,
		},
		{
			name: "unknown id",
			msgs: []llm.Message{assistantCall("a"), {Role: llm.RoleTool, ToolCallID: "zzz"}},
		},
		{
			name: "answered twice",
			msgs: []llm.Message{assistantCall("a"), {Role: llm.RoleTool, ToolCallID: "a"}, {Role: llm.RoleTool, ToolCallID: "a"}},
		},
		{
			name: "tool after user",
			msgs: []llm.Message{{Role: llm.RoleUser}, {Role: llm.RoleTool, ToolCallID: "a"}},
		},
		{
			name: "second system message",
			msgs: []llm.Message{{Role: llm.RoleSystem}},
		},
		{
			name: "unknown role",
			msgs: []llm.Message{{Role: "function"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConversation("sys")
			err := c.Append(tt.msgs...)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, 1+len(tt.msgs), c.Len())
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConversation)
			assert.Equal(t, 1, c.Len(), "a rejected append adds nothing")
		})
	}
}

func TestClear(t *testing.T) {
	c := NewConversation("sys")
	require.NoError(t, c.Append(llm.Message{Role: llm.RoleUser, Content: "hi"}))
	clone := c.Clone()

	c.Clear()

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "sys", c.SystemPrompt())
	assert.Equal(t, 2, clone.Len())
	require.NoError(t, c.Append(llm.Message{Role: llm.RoleUser, Content: "again"}))
	assert.Equal(t, 2, clone.Len())
}

func TestConversationFrom(t *testing.T) {
	_, err := ConversationFrom([]llm.Message{{Role: llm.RoleUser, Content: "no system"}})
	assert.ErrorIs(t, err, ErrInvalidConversation)

	c, err := ConversationFrom([]llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "Paris?"},
		assistantCall("a"),
		{Role: llm.RoleTool, ToolCallID: "a", Content: `{"price":"$899"}`},
		{Role: llm.RoleAssistant, Content: "$899"},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, c.Len())
}

func TestMessagesReturnsCopy(t *testing.T) {
	c := NewConversation("sys")
	msgs := c.Messages()
	msgs[0].Content = "changed"
	assert.Equal(t, "sys", c.SystemPrompt())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hello", truncate("hello", 5))
	assert.Equal(t, "hello...", truncate("hello world", 5))
	assert.Equal(t, "", truncate("", 5))
}
