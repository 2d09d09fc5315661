package agent

import (
	"errors"
	"fmt"

	"github.com/chris/flightai/internal/llm"
)

// ErrInvalidConversation reports a message sequence that breaks the role
// ordering rules.
var ErrInvalidConversation = errors.New("invalid conversation")

// Conversation is an append-only message list that starts with exactly one
// system message. It is owned by a single session and is not safe for
// concurrent use.
type Conversation struct {
	messages []llm.Message
}

func NewConversation(systemPrompt string) *Conversation {
	return &Conversation{messages: []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}}}
}

// ConversationFrom rebuilds a conversation from stored messages.
func ConversationFrom(messages []llm.Message) (*Conversation, error) {
	if err := Validate(messages); err != nil {
		return nil, err
	}
	return &Conversation{messages: append([]llm.Message(nil), messages...)}, nil
}

// Messages returns a copy of the full message list, system message included.
func (c *Conversation) Messages() []llm.Message {
	return append([]llm.Message(nil), c.messages...)
}

// History is every message after the system prompt.
func (c *Conversation) History() []llm.Message {
	return append([]llm.Message(nil), c.messages[1:]...)
}

func (c *Conversation) Len() int { return len(c.messages) }

func (c *Conversation) SystemPrompt() string { return c.messages[0].Content }

func (c *Conversation) Clone() *Conversation {
	return &Conversation{messages: c.Messages()}
}

// Clear discards everything except the system message.
func (c *Conversation) Clear() {
	c.messages = c.messages[:1:1]
}

// Append adds messages in order. Nothing is appended if any message would
// break the ordering rules.
func (c *Conversation) Append(msgs ...llm.Message) error {
	next := append(c.Messages(), msgs...)
	for i := len(c.messages); i < len(next); i++ {
		if err := checkAt(next, i); err != nil {
			return err
		}
	}
	c.messages = next
	return nil
}

// Validate checks a whole message list.
func Validate(messages []llm.Message) error {
	if len(messages) == 0 || messages[0].Role != llm.RoleSystem {
		return fmt.Errorf("%w: first message must be the system message", ErrInvalidConversation)
	}
	for i := 1; i < len(messages); i++ {
		if err := checkAt(messages, i); err != nil {
			return err
		}
	}
	return nil
}

// checkAt validates messages[i] against the messages before it. A tool
// message must answer, exactly once, a call made by the assistant message
// that directly precedes its run of tool messages.
func checkAt(messages []llm.Message, i int) error {
	m := messages[i]
	switch m.Role {
	case llm.RoleSystem:
		if i != 0 {
			return fmt.Errorf("%w: system message at position %d", ErrInvalidConversation, i)
		}
	case llm.RoleUser:
	case llm.RoleAssistant:
		if m.ToolCallID != "" {
			return fmt.Errorf("%w: assistant message %d carries a tool_call_id", ErrInvalidConversation, i)
		}
	case llm.RoleTool:
		j := i - 1
		for j >= 0 && messages[j].Role == llm.RoleTool {
			if messages[j].ToolCallID == m.ToolCallID {
				return fmt.Errorf("%w: tool call %q answered twice", ErrInvalidConversation, m.ToolCallID)
			}
			j--
		}
		if j < 0 || messages[j].Role != llm.RoleAssistant {
			return fmt.Errorf("%w: tool message %d does not follow an assistant message", ErrInvalidConversation, i)
		}
		matches := 0
		for _, tc := range messages[j].ToolCalls {
			if tc.ID == m.ToolCallID {
				matches++
			}
		}
		if matches != 1 {
			return fmt.Errorf("%w: tool message %d answers unknown call %q", ErrInvalidConversation, i, m.ToolCallID)
		}
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidConversation, m.Role)
	}
	return nil
}
