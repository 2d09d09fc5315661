package llm

import (
	"context"
	"fmt"
	"iter"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

type OpenAIClient struct {
	client openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	// Retries are off: a failed exchange is surfaced, the user resubmits.
	opts = append(opts, option.WithMaxRetries(0))
	client := openai.NewClient(opts...)
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIClient{client: client, model: model}
}

func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, tools []Tool) (Response, error) {
	var oaiTools []openai.ChatCompletionToolUnionParam
	for _, t := range tools {
		oaiTools = append(oaiTools, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  openai.FunctionParameters(t.Parameters),
		}))
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: toOpenAIMessages(messages),
		Tools:    oaiTools,
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}

	if len(resp.Choices) == 0 {
		return PlainReply{}, nil
	}

	choice := resp.Choices[0]
	var calls []ToolCall
	for _, tc := range choice.Message.ToolCalls {
		ftc := tc.AsFunction()
		calls = append(calls, ToolCall{
			ID:        ftc.ID,
			Name:      ftc.Function.Name,
			Arguments: rawArguments(ftc.Function.Arguments),
		})
	}
	return decodeResponse("openai", choice.Message.Content, calls), nil
}

func (c *OpenAIClient) Stream(ctx context.Context, messages []Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream := c.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(c.model),
			Messages: toOpenAIMessages(messages),
		})
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(chunk.Choices[0].Delta.Content, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", fmt.Errorf("openai stream: %w", err))
		}
	}
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	var oaiMsgs []openai.ChatCompletionMessageParamUnion
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			oaiMsgs = append(oaiMsgs, openai.SystemMessage(m.Content))
		case RoleUser:
			oaiMsgs = append(oaiMsgs, openai.UserMessage(m.Content))
		case RoleTool:
			oaiMsgs = append(oaiMsgs, openai.ToolMessage(m.Content, m.ToolCallID))
		case RoleAssistant:
			if len(m.ToolCalls) == 0 {
				oaiMsgs = append(oaiMsgs, openai.AssistantMessage(m.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallUnionParam, len(m.ToolCalls))
			for j, tc := range m.ToolCalls {
				toolCalls[j] = openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: string(argumentsOrEmpty(tc.Arguments)),
						},
					},
				}
			}
			assistant := &openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
			if m.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: param.NewOpt(m.Content),
				}
			}
			oaiMsgs = append(oaiMsgs, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		}
	}
	return oaiMsgs
}
