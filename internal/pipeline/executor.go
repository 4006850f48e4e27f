// Package pipeline executes pipeline definitions: a sequence of
// prompt-producing steps per input, with optional agentic tool use.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danebolt/weft/internal/events"
	"github.com/danebolt/weft/internal/provider"
	"github.com/danebolt/weft/internal/router"
	"github.com/danebolt/weft/pkg/models"
)

// ToolRegistry supplies tool schemas and executes tool calls for agentic
// steps.
type ToolRegistry interface {
	Definitions() []provider.ToolDefinition
	Execute(ctx context.Context, call provider.ToolCall) provider.ToolResult
}

// ConfirmFunc gates execution of a tool that requires confirmation.
// It is awaited; returning false denies the call.
type ConfirmFunc func(tool string, input json.RawMessage) bool

// Options tune one Execute call.
type Options struct {
	// ProviderContext overrides the pipeline's default role-resolution
	// context.
	ProviderContext string
	// ModelOverride takes precedence over each step's role (but not over a
	// step's direct model reference). Used by triage-driven escalation.
	ModelOverride string
	// DisableTools makes agentic steps degrade to single-turn execution.
	DisableTools bool
	// ConfirmTool is consulted before running a tool whose definition
	// requires confirmation. When nil such calls are denied.
	ConfirmTool ConfirmFunc
	// Extra seeds additional context variables beyond {input}.
	Extra map[string]string
	// File labels emitted events with the unit of work being processed.
	File string
	// Sink receives progress events; nil discards them.
	Sink events.Sink
}

// Executor runs pipeline definitions against inputs, consulting the router
// for model resolution and the tool registry for agentic steps.
type Executor struct {
	router *router.Router
	tools  ToolRegistry
}

// NewExecutor creates an executor. tools may be nil, in which case every
// agentic step degrades to single-turn execution.
func NewExecutor(rt *router.Router, tools ToolRegistry) *Executor {
	return &Executor{router: rt, tools: tools}
}

// Execute runs one pipeline against one input string.
//
// Steps run strictly in order. A step whose condition evaluates false is
// skipped. Any step failure aborts the whole invocation; no partial result
// is returned. The final output is the result template substituted against
// the final context, or the last executed step's output when no template
// is given.
func (e *Executor) Execute(ctx context.Context, def *models.PipelineDefinition, input string, opts Options) (*models.PipelineResult, error) {
	sink := events.OrNop(opts.Sink)

	pctx := NewContext(input)
	for name, value := range opts.Extra {
		pctx.Set(name, value)
	}

	result := &models.PipelineResult{Steps: make(map[string]string)}
	lastOutput := ""

	for i := range def.Steps {
		step := &def.Steps[i]

		if !pctx.EvaluateCondition(step.Condition) {
			continue
		}

		resolved, err := e.resolveStepModel(step, def, opts)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", step.Name, err)
		}

		sink.Emit(events.Event{Type: events.StepStart, File: opts.File, Step: step.Name})

		prompt := pctx.Substitute(step.Prompt)
		output, err := e.runStep(ctx, step, resolved, prompt, opts, sink)
		if err != nil {
			sink.Emit(events.Event{Type: events.ErrorEvent, File: opts.File, Step: step.Name, Err: err})
			return nil, fmt.Errorf("step %q: %w", step.Name, err)
		}

		pctx.Set(step.Output, output)
		result.Steps[step.Name] = output
		lastOutput = output
		result.ModelsUsed = appendUnique(result.ModelsUsed, resolved.Model)

		sink.Emit(events.Event{Type: events.StepComplete, File: opts.File, Step: step.Name, Content: output})
	}

	if def.Result != "" {
		result.Output = pctx.Substitute(def.Result)
	} else {
		result.Output = lastOutput
	}
	return result, nil
}

// resolveStepModel picks the model for a step. A direct model reference
// takes precedence over everything; the caller's override beats the step's
// role; a role that does not resolve for the active provider context is a
// fatal step error when nothing else applies.
func (e *Executor) resolveStepModel(step *models.PipelineStep, def *models.PipelineDefinition, opts Options) (*router.ResolvedModel, error) {
	if step.Model != "" {
		return e.router.Resolve(step.Model)
	}
	if opts.ModelOverride != "" {
		return e.router.Resolve(opts.ModelOverride)
	}
	if step.Role != "" {
		providerContext := opts.ProviderContext
		if providerContext == "" {
			providerContext = def.Provider
		}
		if providerContext == "" {
			providerContext = e.router.DefaultProviderContext()
		}
		if resolved, ok := e.router.ResolveRole(step.Role, providerContext); ok {
			return resolved, nil
		}
		return nil, fmt.Errorf("role %q is not defined for provider context %q and the step has no fallback model", step.Role, providerContext)
	}

	model, err := e.router.DefaultModel()
	if err != nil {
		return nil, err
	}
	return e.router.Resolve(model)
}

// runStep invokes the model once, or via the agentic loop when the step
// allows tool use and its tool names resolve to definitions.
func (e *Executor) runStep(ctx context.Context, step *models.PipelineStep, resolved *router.ResolvedModel, prompt string, opts Options, sink events.Sink) (string, error) {
	if step.AllowToolUse && !opts.DisableTools {
		defs := e.resolveToolDefs(step.Tools)
		if len(defs) > 0 {
			return e.runAgentic(ctx, step, resolved, prompt, defs, opts, sink)
		}
		// No valid tool definitions: degrade silently to single-turn.
	}

	onText := func(text string) {
		sink.Emit(events.Event{Type: events.StepText, File: opts.File, Step: step.Name, Content: text})
	}
	resp, err := resolved.Provider.StreamChat(ctx, resolved.Model, provider.UserMessage(prompt), nil, onText)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// resolveToolDefs filters the registry's definitions down to the step's
// declared tool names.
func (e *Executor) resolveToolDefs(names []string) []provider.ToolDefinition {
	if e.tools == nil || len(names) == 0 {
		return nil
	}
	available := e.tools.Definitions()
	var defs []provider.ToolDefinition
	for _, name := range names {
		for _, d := range available {
			if d.Name == name {
				defs = append(defs, d)
				break
			}
		}
	}
	return defs
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
