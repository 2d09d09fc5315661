package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(apiKey, model string) (*GeminiClient, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) request(messages []Message, tools []Tool) ([]*genai.Content, *genai.GenerateContentConfig) {
	system, rest := splitSystem(messages)

	// Function responses are keyed by name; remember which call each id was.
	callNames := map[string]string{}
	var contents []*genai.Content
	for _, m := range rest {
		switch m.Role {
		case RoleUser:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: m.Content}}})
		case RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, &genai.Part{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				callNames[tc.ID] = tc.Name
				var args map[string]any
				_ = json.Unmarshal(argumentsOrEmpty(tc.Arguments), &args)
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args}})
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
		case RoleTool:
			var obj map[string]any
			if err := json.Unmarshal([]byte(m.Content), &obj); err != nil {
				obj = map[string]any{"output": m.Content}
			}
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{
				FunctionResponse: &genai.FunctionResponse{ID: m.ToolCallID, Name: callNames[m.ToolCallID], Response: obj},
			}}})
		}
	}

	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if len(tools) > 0 {
		var decls []*genai.FunctionDeclaration
		for _, t := range tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: t.Parameters,
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return contents, cfg
}

func (c *GeminiClient) Chat(ctx context.Context, messages []Message, tools []Tool) (Response, error) {
	contents, cfg := c.request(messages, tools)
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini chat: %w", err)
	}
	if resp == nil {
		return PlainReply{}, nil
	}

	var calls []ToolCall
	for _, fc := range resp.FunctionCalls() {
		args, _ := json.Marshal(fc.Args)
		id := fc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		calls = append(calls, ToolCall{ID: id, Name: fc.Name, Arguments: args})
	}
	return decodeResponse("gemini", candidateText(resp), calls), nil
}

func (c *GeminiClient) Stream(ctx context.Context, messages []Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		contents, cfg := c.request(messages, nil)
		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, cfg) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			text := candidateText(resp)
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			text += part.Text
		}
	}
	return text
}
