package main

import (
	"fmt"

	"github.com/danebolt/weft/internal/config"
	"github.com/danebolt/weft/internal/provider"
	"github.com/danebolt/weft/internal/router"
)

// buildRegistry constructs one provider handle per configured model.
func buildRegistry(cfg *config.Config) (*provider.Registry, error) {
	registry := provider.NewRegistry()

	for _, m := range cfg.Models {
		p, err := buildProvider(cfg, m)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", m.Name, err)
		}
		registry.Register(m.Name, p)
	}

	return registry, nil
}

func buildProvider(cfg *config.Config, m config.ModelConfig) (provider.ModelProvider, error) {
	switch m.Provider {
	case "anthropic", "":
		key, err := config.AnthropicAPIKey(cfg)
		if err != nil && !cfg.Anthropic.UseAWSBedrock {
			return nil, fmt.Errorf("anthropic: %w", err)
		}
		return provider.NewAnthropic(provider.AnthropicConfig{
			APIKey:        key,
			MaxTokens:     int64(m.MaxTokens),
			UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
			AWSRegion:     cfg.Anthropic.AWSRegion,
			AWSProfile:    cfg.Anthropic.AWSProfile,
		})
	case "openai", "local":
		baseURL := m.BaseURL
		if baseURL == "" {
			baseURL = cfg.OpenAI.BaseURL
		}
		// Local endpoints usually run without authentication.
		key, err := config.OpenAIAPIKey(cfg)
		if err != nil && m.Provider != "local" {
			return nil, fmt.Errorf("openai: %w", err)
		}
		return provider.NewOpenAI(provider.OpenAIConfig{
			APIKey:    key,
			BaseURL:   baseURL,
			MaxTokens: m.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown provider family %q", m.Provider)
	}
}

// buildRouter loads configuration and pipelines and wires the router.
func buildRouter() (*config.Config, *router.Router, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}

	pipelines, err := config.LoadPipelines(cfg.Defaults.PipelineDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load pipelines: %w", err)
	}

	return cfg, router.New(cfg, registry, pipelines), nil
}
