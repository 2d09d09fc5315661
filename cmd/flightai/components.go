package main

import (
	"fmt"
	"log/slog"

	"github.com/chris/flightai/config"
	"github.com/chris/flightai/internal/agent"
	"github.com/chris/flightai/internal/flight"
	"github.com/chris/flightai/internal/llm"
	"github.com/chris/flightai/internal/media"
)

func newClient(cfg *config.Config) (llm.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	client, err := llm.NewClient(llm.ProviderConfig{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.APIKey(),
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}
	return client, nil
}

// newEngine wires the airline assistant: the price tool, with destination
// images when enabled.
func newEngine(cfg *config.Config, client llm.Client) (*agent.Engine, error) {
	var artist flight.Artist
	if cfg.EnableImages {
		images, err := media.NewImageGenerator(cfg.ImageProvider, cfg.ImageAPIKey(), cfg.ImageModel)
		if err != nil {
			return nil, err
		}
		artist = images
		slog.Info("destination images enabled", "provider", cfg.ImageProvider)
	}

	registry, err := flight.NewRegistry(flight.DefaultPrices, artist)
	if err != nil {
		return nil, err
	}
	engine := agent.NewEngine(client, registry)
	engine.MaxContextTokens = cfg.MaxContextTokens
	return engine, nil
}

// newSpeaker returns nil when no OpenAI key is configured.
func newSpeaker(cfg *config.Config) media.Speaker {
	if cfg.OpenAIKey == "" {
		return nil
	}
	return media.NewOpenAISpeech(cfg.OpenAIKey, cfg.TTSModel, cfg.TTSVoice)
}
