package llm

import "fmt"

type ProviderConfig struct {
	Provider string // openai, ollama, anthropic, gemini
	APIKey   string
	Model    string
	BaseURL  string
}

const DefaultModel = "gpt-4o-mini"

func NewClient(cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case "openai", "":
		if cfg.Model == "" {
			cfg.Model = DefaultModel
		}
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case "ollama":
		if cfg.Model == "" {
			cfg.Model = "llama3.1"
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:11434/v1"
		}
		return NewOpenAIClient("ollama", cfg.Model, cfg.BaseURL), nil
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.Model), nil
	case "gemini":
		return NewGeminiClient(cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
