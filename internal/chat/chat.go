// Package chat is the plain streaming chatbot: no tools, just a system
// prompt, the widget's history and the new message.
package chat

import (
	"context"
	"iter"
	"strings"

	"github.com/chris/flightai/internal/llm"
)

const DefaultSystemPrompt = "You are a helpful assistant"

type Bot struct {
	client       llm.Client
	systemPrompt string
}

func New(client llm.Client, systemPrompt string) *Bot {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Bot{client: client, systemPrompt: systemPrompt}
}

// Messages builds the request: system prompt, user/assistant history, then
// the new message. Any other roles in history are dropped.
func (b *Bot) Messages(history []llm.Message, message string) []llm.Message {
	messages := []llm.Message{{Role: llm.RoleSystem, Content: b.systemPrompt}}
	for _, m := range history {
		if (m.Role == llm.RoleUser || m.Role == llm.RoleAssistant) && len(m.ToolCalls) == 0 {
			messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
		}
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: message})
}

// Stream yields the reply accumulated so far after every chunk, which is
// what the widget re-renders.
func (b *Bot) Stream(ctx context.Context, history []llm.Message, message string) iter.Seq2[string, error] {
	return Accumulate(b.client.Stream(ctx, b.Messages(history, message)))
}

// Accumulate turns a chunk stream into a stream of running totals.
func Accumulate(chunks iter.Seq2[string, error]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var sb strings.Builder
		for chunk, err := range chunks {
			if err != nil {
				yield(sb.String(), err)
				return
			}
			sb.WriteString(chunk)
			if !yield(sb.String(), nil) {
				return
			}
		}
	}
}

// Collect drains a stream and returns the last value.
func Collect(stream iter.Seq2[string, error]) (string, error) {
	var last string
	for text, err := range stream {
		if err != nil {
			return text, err
		}
		last = text
	}
	return last, nil
}
