package config

import (
	"errors"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no API key is configured.
var ErrNoAPIKey = errors.New("no API key configured")

// AnthropicAPIKey returns the Anthropic API key.
// It checks in order: environment variable, config file.
func AnthropicAPIKey(cfg *Config) (string, error) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key, nil
	}
	if cfg == nil {
		return "", ErrNoAPIKey
	}
	return resolveKey(cfg.Anthropic.APIKey)
}

// OpenAIAPIKey returns the OpenAI API key.
// It checks in order: environment variable, config file.
func OpenAIAPIKey(cfg *Config) (string, error) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key, nil
	}
	if cfg == nil {
		return "", ErrNoAPIKey
	}
	return resolveKey(cfg.OpenAI.APIKey)
}

// resolveKey expands env var references and rejects unresolved ones.
func resolveKey(configured string) (string, error) {
	if configured == "" {
		return "", ErrNoAPIKey
	}
	key := os.ExpandEnv(configured)
	if key == "" || strings.HasPrefix(key, "${") {
		return "", ErrNoAPIKey
	}
	return key, nil
}

// MaskAPIKey returns a masked version of an API key for display.
// Shows the first 7 characters and last 4 characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}

	if len(key) <= 15 {
		return "***"
	}

	return key[:7] + "..." + key[len(key)-4:]
}
