package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LLMProvider   string // openai, ollama, anthropic, gemini
	OpenAIKey     string
	AnthropicKey  string
	GeminiKey     string
	LLMModel      string
	LLMBaseURL    string
	ImageProvider string // openai, gemini
	ImageModel    string
	EnableImages  bool
	TTSModel      string
	TTSVoice      string

	HTTPAddr         string
	DatabasePath     string
	SessionTTL       time.Duration
	SessionPruneCron string
	MaxContextTokens int
	DiscordToken     string
	LogLevel         string
}

// ConfigDir is ~/.flightai, falling back to the working directory when the
// home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flightai"
	}
	return filepath.Join(home, ".flightai")
}

func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config")
}

// Load reads ./.env and ~/.flightai/config (neither is required) and then
// the environment. Variables already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()
	_ = godotenv.Load(ConfigFile())
	return FromEnv()
}

func FromEnv() *Config {
	return &Config{
		LLMProvider:   envOr("LLM_PROVIDER", "openai"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:  os.Getenv("ANTHROPIC_API_KEY"),
		GeminiKey:     os.Getenv("GEMINI_API_KEY"),
		LLMModel:      os.Getenv("LLM_MODEL"),
		LLMBaseURL:    os.Getenv("LLM_BASE_URL"),
		ImageProvider: envOr("IMAGE_PROVIDER", "openai"),
		ImageModel:    os.Getenv("IMAGE_MODEL"),
		EnableImages:  envBool("ENABLE_IMAGES", false),
		TTSModel:      envOr("TTS_MODEL", "tts-1"),
		TTSVoice:      envOr("TTS_VOICE", "alloy"),

		HTTPAddr:         envOr("HTTP_ADDR", ":7860"),
		DatabasePath:     envOr("DATABASE_PATH", filepath.Join(ConfigDir(), "sessions.db")),
		SessionTTL:       envDuration("SESSION_TTL", 2*time.Hour),
		SessionPruneCron: envOr("SESSION_PRUNE_CRON", "*/15 * * * *"),
		MaxContextTokens: envInt("MAX_CONTEXT_TOKENS", 0),
		DiscordToken:     os.Getenv("DISCORD_BOT_TOKEN"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
	}
}

// APIKey returns the key for the chat provider.
func (c *Config) APIKey() string {
	return c.keyFor(c.LLMProvider)
}

// ImageAPIKey returns the key for the image provider.
func (c *Config) ImageAPIKey() string {
	return c.keyFor(c.ImageProvider)
}

func (c *Config) keyFor(provider string) string {
	switch provider {
	case "anthropic":
		return c.AnthropicKey
	case "gemini":
		return c.GeminiKey
	case "ollama":
		return "ollama"
	default:
		return c.OpenAIKey
	}
}

// Validate reports configuration that would only fail later, at the first
// model call.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLMProvider {
	case "openai", "anthropic", "gemini", "ollama":
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	if c.APIKey() == "" {
		errs = append(errs, fmt.Errorf("no API key set for provider %q", c.LLMProvider))
	}
	if c.EnableImages && c.ImageAPIKey() == "" {
		errs = append(errs, fmt.Errorf("ENABLE_IMAGES is set but no API key for image provider %q", c.ImageProvider))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}
