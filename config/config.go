// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the full runtime configuration.
type Config struct {
	Port         int
	DatabasePath string

	// Provider selects the chat model backend: openai or anthropic.
	Provider  string
	ModelName string
	// BaseURL overrides the OpenAI endpoint, e.g. for OpenRouter.
	BaseURL         string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	JWTSecret string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            envInt("PORT", 8080),
		DatabasePath:    envStr("DATABASE_PATH", "unipath.db"),
		Provider:        envStr("MODEL_PROVIDER", ProviderOpenAI),
		ModelName:       os.Getenv("MODEL_NAME"),
		BaseURL:         os.Getenv("MODEL_BASE_URL"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		LogFormat:       envStr("LOG_FORMAT", "json"),
	}

	if cfg.Provider != ProviderOpenAI && cfg.Provider != ProviderAnthropic {
		return nil, fmt.Errorf("config: unsupported MODEL_PROVIDER %q", cfg.Provider)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}
	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
