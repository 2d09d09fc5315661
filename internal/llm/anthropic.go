package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 4096

type AnthropicClient struct {
	client anthropic.Client
	model  string
}

func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	opts = append(opts, option.WithMaxRetries(0))
	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

func (c *AnthropicClient) params(messages []Message, tools []Tool) anthropic.MessageNewParams {
	system, rest := splitSystem(messages)

	var anthMsgs []anthropic.MessageParam
	for _, m := range rest {
		switch m.Role {
		case RoleUser:
			anthMsgs = append(anthMsgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case RoleTool:
			anthMsgs = append(anthMsgs, anthropic.NewUserMessage(anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false)))
		case RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, argumentsOrEmpty(tc.Arguments), tc.Name))
			}
			anthMsgs = append(anthMsgs, anthropic.NewAssistantMessage(blocks...))
		}
	}

	var anthTools []anthropic.ToolUnionParam
	for _, t := range tools {
		schema := anthropic.ToolInputSchemaParam{Properties: map[string]any{}}
		if props, ok := t.Parameters["properties"].(map[string]any); ok {
			schema.Properties = props
		}
		if req, ok := t.Parameters["required"].([]string); ok {
			schema.Required = req
		}
		if extra, ok := t.Parameters["additionalProperties"]; ok {
			schema.ExtraFields = map[string]any{"additionalProperties": extra}
		}
		tool := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: schema,
		}
		anthTools = append(anthTools, anthropic.ToolUnionParam{OfTool: &tool})
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		Messages:  anthMsgs,
		Tools:     anthTools,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

func (c *AnthropicClient) Chat(ctx context.Context, messages []Message, tools []Tool) (Response, error) {
	msg, err := c.client.Messages.New(ctx, c.params(messages, tools))
	if err != nil {
		return nil, fmt.Errorf("anthropic chat: %w", err)
	}

	var text string
	var calls []ToolCall
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += b.Text
		case anthropic.ToolUseBlock:
			input, _ := json.Marshal(b.Input)
			calls = append(calls, ToolCall{ID: b.ID, Name: b.Name, Arguments: input})
		}
	}
	return decodeResponse("anthropic", text, calls), nil
}

func (c *AnthropicClient) Stream(ctx context.Context, messages []Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream := c.client.Messages.NewStreaming(ctx, c.params(messages, nil))
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			delta, ok := ev.Delta.AsAny().(anthropic.TextDelta)
			if !ok || delta.Text == "" {
				continue
			}
			if !yield(delta.Text, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", fmt.Errorf("anthropic stream: %w", err))
		}
	}
}
