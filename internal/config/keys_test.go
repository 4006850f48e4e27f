package config

import (
	"errors"
	"testing"
)

func TestAnthropicAPIKeyEnvWins(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-from-env")

	cfg := &Config{Anthropic: AnthropicConfig{APIKey: "sk-ant-from-config"}}
	key, err := AnthropicAPIKey(cfg)
	if err != nil {
		t.Fatalf("AnthropicAPIKey: %v", err)
	}
	if key != "sk-ant-from-env" {
		t.Errorf("key = %q, want env value", key)
	}
}

func TestAnthropicAPIKeyFromConfig(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := &Config{Anthropic: AnthropicConfig{APIKey: "sk-ant-from-config"}}
	key, err := AnthropicAPIKey(cfg)
	if err != nil {
		t.Fatalf("AnthropicAPIKey: %v", err)
	}
	if key != "sk-ant-from-config" {
		t.Errorf("key = %q, want config value", key)
	}
}

func TestAnthropicAPIKeyMissing(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	if _, err := AnthropicAPIKey(&Config{}); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
	if _, err := AnthropicAPIKey(nil); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("nil config err = %v, want ErrNoAPIKey", err)
	}
}

func TestOpenAIAPIKeyEnvWins(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-oai-from-env")

	key, err := OpenAIAPIKey(&Config{})
	if err != nil {
		t.Fatalf("OpenAIAPIKey: %v", err)
	}
	if key != "sk-oai-from-env" {
		t.Errorf("key = %q, want env value", key)
	}
}

func TestResolveKeyExpandsReferences(t *testing.T) {
	t.Setenv("WEFT_KEYS_TEST", "sk-resolved")

	key, err := resolveKey("${WEFT_KEYS_TEST}")
	if err != nil {
		t.Fatalf("resolveKey: %v", err)
	}
	if key != "sk-resolved" {
		t.Errorf("key = %q, want %q", key, "sk-resolved")
	}
}

func TestResolveKeyRejectsUnresolved(t *testing.T) {
	if _, err := resolveKey("${WEFT_KEYS_UNSET_VAR}"); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("unset reference err = %v, want ErrNoAPIKey", err)
	}
	if _, err := resolveKey(""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("empty err = %v, want ErrNoAPIKey", err)
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"empty", "", "(not set)"},
		{"short", "sk-short", "***"},
		{"long", "sk-ant-REDACTED", "sk-ant-...1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskAPIKey(tt.key); got != tt.want {
				t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
