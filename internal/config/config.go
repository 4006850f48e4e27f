// Package config handles configuration loading and management for weft.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for weft.
type Config struct {
	Models    []ModelConfig            `mapstructure:"models"`
	Roles     map[string]RoleTable     `mapstructure:"roles"`
	Commands  map[string]CommandConfig `mapstructure:"commands"`
	Tasks     map[string]string        `mapstructure:"tasks"`
	Fallbacks []string                 `mapstructure:"fallbacks"`
	Defaults  DefaultsConfig           `mapstructure:"defaults"`
	Anthropic AnthropicConfig          `mapstructure:"anthropic"`
	OpenAI    OpenAIConfig             `mapstructure:"openai"`
}

// RoleTable maps a provider context to a model name for one role.
// Absence of a context key means the role is undefined for that context.
type RoleTable map[string]string

// ModelConfig declares one usable model and the provider family serving it.
type ModelConfig struct {
	// Name is the model identifier passed to the provider.
	Name string `mapstructure:"name"`
	// Provider is the provider family: "anthropic", "openai" or "local".
	Provider string `mapstructure:"provider"`
	// BaseURL overrides the endpoint for local/openai-compatible models.
	BaseURL string `mapstructure:"base_url"`
	// MaxTokens caps the response size per call.
	MaxTokens int `mapstructure:"max_tokens"`
}

// CommandConfig is an explicit per-command routing override.
// Pipeline takes precedence over Task, Task over Model.
type CommandConfig struct {
	Pipeline string `mapstructure:"pipeline"`
	Task     string `mapstructure:"task"`
	Model    string `mapstructure:"model"`
}

// DefaultsConfig holds default values for iterative runs.
type DefaultsConfig struct {
	// Provider is the default provider context for role resolution.
	Provider string `mapstructure:"provider"`
	// Concurrency bounds simultaneous file-level pipeline runs.
	Concurrency int `mapstructure:"concurrency"`
	// BatchSize bounds intermediate aggregation batches.
	BatchSize int `mapstructure:"batch_size"`
	// MaxFileSize is the per-file size cap in bytes; larger files are skipped.
	MaxFileSize int64 `mapstructure:"max_file_size"`
	// PipelineDir is where pipeline definition files live.
	PipelineDir string `mapstructure:"pipeline_dir"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey        string `mapstructure:"api_key"`
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// OpenAIConfig holds OpenAI-compatible endpoint settings.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, OPENAI_API_KEY)
// 2. Project config (.weft.yaml in current directory or a parent)
// 3. User config (~/.config/weft/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.OpenAI.APIKey = expandEnv(cfg.OpenAI.APIKey)

	return cfg, nil
}

// setDefaults installs built-in default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("defaults.provider", "anthropic")
	v.SetDefault("defaults.concurrency", 4)
	v.SetDefault("defaults.batch_size", 15)
	v.SetDefault("defaults.max_file_size", 200*1024)
	v.SetDefault("defaults.pipeline_dir", "pipelines")
}

// getUserConfigDir returns the XDG config directory for weft.
func getUserConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "weft")
}

// findProjectConfig searches the current directory and its parents for
// a .weft.yaml file.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".weft.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnv expands ${VAR} references in configuration values.
func expandEnv(value string) string {
	if strings.Contains(value, "${") {
		return os.ExpandEnv(value)
	}
	return value
}
