// Package provider abstracts model backends behind a single chat interface.
// Adapters exist for the Anthropic API (direct and Bedrock) and for
// OpenAI-compatible endpoints, including local servers via a base URL.
package provider

import (
	"context"
	"encoding/json"
)

// Message roles in a provider-neutral transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of a chat transcript.
type Message struct {
	// Role is one of RoleUser, RoleAssistant or RoleTool.
	Role string
	// Content is the text content, if any.
	Content string
	// ToolCalls are tool invocations requested by an assistant message.
	ToolCalls []ToolCall
	// ToolResults carry executed tool output on a RoleTool message.
	ToolResults []ToolResult
}

// ToolCall is a model-requested tool invocation.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResult is the outcome of executing one tool call.
type ToolResult struct {
	// CallID ties the result back to the requesting ToolCall.
	CallID string
	// Content is the tool output or error text.
	Content string
	// IsError marks failed or denied executions. The transcript still
	// carries these so the model can adapt.
	IsError bool
}

// ToolDefinition describes one tool the model may call.
type ToolDefinition struct {
	Name        string
	Description string
	// InputSchema holds the JSON-schema properties of the tool input.
	InputSchema map[string]interface{}
	// Required lists the mandatory input properties.
	Required []string
	// RequiresConfirmation marks tools whose execution must be confirmed
	// by the caller before running (writes, shell commands).
	RequiresConfirmation bool
}

// Response is a single model turn.
type Response struct {
	// Content is the assistant text.
	Content string
	// ToolCalls are requested tool invocations. Empty when the model is done.
	ToolCalls []ToolCall
}

// ModelProvider is the capability handle used to invoke a model.
// Implementations must accept an empty or nil tool list.
type ModelProvider interface {
	// StreamChat sends the transcript and streams text fragments through
	// onText as they arrive. onText may be nil.
	StreamChat(ctx context.Context, model string, messages []Message, tools []ToolDefinition, onText func(string)) (*Response, error)
	// Chat sends the transcript without tools or streaming.
	Chat(ctx context.Context, model string, messages []Message) (*Response, error)
}

// UserMessage builds a single-entry transcript from a prompt.
func UserMessage(prompt string) []Message {
	return []Message{{Role: RoleUser, Content: prompt}}
}
