package pipeline

import (
	"context"
	"fmt"

	"github.com/danebolt/weft/internal/events"
	"github.com/danebolt/weft/internal/provider"
	"github.com/danebolt/weft/internal/router"
	"github.com/danebolt/weft/pkg/models"
)

// defaultMaxIterations bounds the agentic loop when the step does not set
// its own limit.
const defaultMaxIterations = 5

// runAgentic drives the tool-use loop for one step: invoke the model with
// tool definitions, execute requested calls, feed results back, and repeat
// until the model stops requesting tools or the iteration cap is reached.
// Hitting the cap returns the best available partial text, not an error.
func (e *Executor) runAgentic(ctx context.Context, step *models.PipelineStep, resolved *router.ResolvedModel, prompt string, defs []provider.ToolDefinition, opts Options, sink events.Sink) (string, error) {
	maxIterations := step.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}

	byName := make(map[string]provider.ToolDefinition, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}

	messages := provider.UserMessage(prompt)
	lastText := ""

	onText := func(text string) {
		sink.Emit(events.Event{Type: events.StepText, File: opts.File, Step: step.Name, Content: text})
	}

	for iteration := 0; iteration < maxIterations; iteration++ {
		resp, err := resolved.Provider.StreamChat(ctx, resolved.Model, messages, defs, onText)
		if err != nil {
			return "", err
		}
		if resp.Content != "" {
			lastText = resp.Content
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		messages = append(messages, provider.Message{
			Role:      provider.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		var results []provider.ToolResult
		for _, call := range resp.ToolCalls {
			sink.Emit(events.Event{Type: events.ToolCall, File: opts.File, Tool: call.Name, Input: call.Input})

			result := e.executeToolCall(ctx, call, byName, opts)
			results = append(results, result)

			var resultErr error
			if result.IsError {
				resultErr = fmt.Errorf("%s", result.Content)
			}
			sink.Emit(events.Event{Type: events.ToolResult, File: opts.File, Tool: call.Name, Content: result.Content, Err: resultErr})
		}

		messages = append(messages, provider.Message{
			Role:        provider.RoleTool,
			ToolResults: results,
		})
	}

	return lastText, nil
}

// executeToolCall gates confirmable tools through the caller's ConfirmFunc.
// A denial is not an error: the loop gets a synthetic error result so the
// model can adapt.
func (e *Executor) executeToolCall(ctx context.Context, call provider.ToolCall, byName map[string]provider.ToolDefinition, opts Options) provider.ToolResult {
	def, known := byName[call.Name]
	if known && def.RequiresConfirmation {
		if opts.ConfirmTool == nil || !opts.ConfirmTool(call.Name, call.Input) {
			return provider.ToolResult{
				CallID:  call.ID,
				Content: fmt.Sprintf("Tool %q was denied by the user. Continue without it.", call.Name),
				IsError: true,
			}
		}
	}
	return e.tools.Execute(ctx, call)
}
