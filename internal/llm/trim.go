package llm

// TrimMessages trims a conversation to fit within a token budget.
//
// The budget should already account for tool definitions and a reserve for
// the model's output. Leading system messages are always kept and count
// against the budget.
//
// Strategy:
//  1. Group the remaining messages into logical units (a single user or
//     assistant message, or an assistant tool-call plus its tool results).
//  2. Always keep the most recent group (the active turn).
//  3. Drop the oldest groups first until the total fits within budget.
//
// Tool-call pairs are never split: either the whole exchange stays or goes.
func TrimMessages(messages []Message, maxTokens int) []Message {
	if len(messages) == 0 {
		return messages
	}

	head := 0
	for head < len(messages) && messages[head].Role == RoleSystem {
		head++
	}
	fixed := EstimateMessagesTokens(messages[:head])
	groups := groupMessages(messages[head:])

	total := fixed
	for _, g := range groups {
		total += g.tokens
	}
	if total <= maxTokens {
		return messages
	}

	kept := total
	dropUntil := 0
	for dropUntil < len(groups)-1 && kept > maxTokens {
		kept -= groups[dropUntil].tokens
		dropUntil++
	}

	trimmed := append([]Message(nil), messages[:head]...)
	for _, g := range groups[dropUntil:] {
		trimmed = append(trimmed, g.messages...)
	}
	return trimmed
}

// messageGroup is a logical unit of conversation that must be kept or
// dropped as a whole.
type messageGroup struct {
	messages []Message
	tokens   int
}

// groupMessages splits a message slice into logical groups:
//
//   - A user message is its own group.
//   - An assistant message with no tool calls is its own group.
//   - An assistant message with tool calls + the following tool
//     messages form a single group.
func groupMessages(messages []Message) []messageGroup {
	var groups []messageGroup
	i := 0
	for i < len(messages) {
		msg := messages[i]

		if msg.Role == RoleAssistant && len(msg.ToolCalls) > 0 {
			group := messageGroup{}
			group.messages = append(group.messages, msg)
			group.tokens += EstimateMessageTokens(msg)
			i++
			for i < len(messages) && messages[i].Role == RoleTool {
				group.messages = append(group.messages, messages[i])
				group.tokens += EstimateMessageTokens(messages[i])
				i++
			}
			groups = append(groups, group)
			continue
		}

		groups = append(groups, messageGroup{
			messages: []Message{msg},
			tokens:   EstimateMessageTokens(msg),
		})
		i++
	}
	return groups
}
