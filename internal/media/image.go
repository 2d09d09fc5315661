// Package media wraps the image generation and text-to-speech endpoints used
// by the multi-modal assistant.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/chris/flightai/internal/tools"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"google.golang.org/genai"
)

var ErrNoImage = errors.New("no image in response")

type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*tools.Artifact, error)
}

type OpenAIImages struct {
	client openai.Client
	model  string
}

func NewOpenAIImages(apiKey, model string) *OpenAIImages {
	if model == "" {
		model = string(openai.ImageModelDallE3)
	}
	return &OpenAIImages{client: openai.NewClient(option.WithAPIKey(apiKey)), model: model}
}

func (g *OpenAIImages) GenerateImage(ctx context.Context, prompt string) (*tools.Artifact, error) {
	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(g.model),
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize1024x1024,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrNoImage
	}
	return decodeImage(resp.Data[0].B64JSON)
}

func decodeImage(b64 string) (*tools.Artifact, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return &tools.Artifact{Kind: "image", MIMEType: http.DetectContentType(data), Data: data}, nil
}

type GeminiImages struct {
	client *genai.Client
	model  string
}

func NewGeminiImages(apiKey, model string) (*GeminiImages, error) {
	if model == "" {
		model = "gemini-2.5-flash-image"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiImages{client: client, model: model}, nil
}

func (g *GeminiImages) GenerateImage(ctx context.Context, prompt string) (*tools.Artifact, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini image: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, ErrNoImage
	}
	for _, part := range result.Candidates[0].Content.Parts {
		if part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mime := part.InlineData.MIMEType
		if mime == "" {
			mime = http.DetectContentType(part.InlineData.Data)
		}
		return &tools.Artifact{Kind: "image", MIMEType: mime, Data: part.InlineData.Data}, nil
	}
	return nil, ErrNoImage
}

// NewImageGenerator picks a backend by provider name.
func NewImageGenerator(provider, apiKey, model string) (ImageGenerator, error) {
	switch provider {
	case "openai", "":
		return NewOpenAIImages(apiKey, model), nil
	case "gemini":
		return NewGeminiImages(apiKey, model)
	default:
		return nil, fmt.Errorf("unknown image provider: %s", provider)
	}
}
