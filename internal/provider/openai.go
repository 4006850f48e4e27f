package provider

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig contains configuration for creating an OpenAI-compatible provider.
type OpenAIConfig struct {
	// APIKey is the API key. If empty, uses OPENAI_API_KEY env var. Local
	// endpoints generally accept any non-empty key.
	APIKey string
	// BaseURL overrides the endpoint. Set this for local OpenAI-compatible
	// servers (e.g. an ollama instance).
	BaseURL string
	// MaxTokens caps the response size per call (0 = provider default).
	MaxTokens int
}

// OpenAI is a ModelProvider backed by an OpenAI-compatible chat endpoint.
type OpenAI struct {
	client    *openai.Client
	maxTokens int
}

// NewOpenAI creates an OpenAI-compatible provider from the given configuration.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	if apiKey == "" {
		// Local endpoints ignore the key but the client requires one.
		apiKey = "local"
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		client:    openai.NewClientWithConfig(clientCfg),
		maxTokens: cfg.MaxTokens,
	}, nil
}

// StreamChat implements ModelProvider.
func (o *OpenAI) StreamChat(ctx context.Context, model string, messages []Message, tools []ToolDefinition, onText func(string)) (*Response, error) {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(messages),
	}
	if o.maxTokens > 0 {
		req.MaxCompletionTokens = o.maxTokens
	}
	if len(tools) > 0 {
		req.Tools = toOpenAITools(tools)
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	choice := resp.Choices[0].Message
	out := &Response{Content: choice.Content}
	if onText != nil && choice.Content != "" {
		onText(choice.Content)
	}
	for _, call := range choice.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:    call.ID,
			Name:  call.Function.Name,
			Input: []byte(call.Function.Arguments),
		})
	}
	return out, nil
}

// Chat implements ModelProvider.
func (o *OpenAI) Chat(ctx context.Context, model string, messages []Message) (*Response, error) {
	return o.StreamChat(ctx, model, messages, nil, nil)
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	var out []openai.ChatCompletionMessage
	for _, m := range messages {
		switch m.Role {
		case RoleAssistant:
			msg := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: m.Content,
			}
			for _, call := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: string(call.Input),
					},
				})
			}
			out = append(out, msg)
		case RoleTool:
			for _, result := range m.ToolResults {
				out = append(out, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    result.Content,
					ToolCallID: result.CallID,
				})
			}
		default:
			out = append(out, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: m.Content,
			})
		}
	}
	return out
}

func toOpenAITools(tools []ToolDefinition) []openai.Tool {
	var out []openai.Tool
	for _, d := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters: map[string]interface{}{
					"type":       "object",
					"properties": d.InputSchema,
					"required":   d.Required,
				},
			},
		})
	}
	return out
}
