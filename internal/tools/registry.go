// Package tools provides the tool registry consumed by agentic pipeline
// steps: schema definitions for the model and a local executor for the
// calls it makes.
package tools

import (
	"context"
	"fmt"

	"github.com/danebolt/weft/internal/exec"
	"github.com/danebolt/weft/internal/provider"
)

// Registry exposes tool definitions and executes tool calls inside a
// working directory. Read-only after construction.
type Registry struct {
	workDir string
	runner  exec.CommandRunner
	defs    []provider.ToolDefinition
}

// NewRegistry creates a registry rooted at the given working directory.
func NewRegistry(workDir string) *Registry {
	return &Registry{
		workDir: workDir,
		runner:  exec.NewRunner(),
		defs:    builtinDefinitions(),
	}
}

// Definitions returns the schemas of every registered tool. Destructive
// tools carry RequiresConfirmation so the executor can gate them without
// hardcoding a name set.
func (r *Registry) Definitions() []provider.ToolDefinition {
	return append([]provider.ToolDefinition{}, r.defs...)
}

// Definition returns the schema for one tool name.
func (r *Registry) Definition(name string) (provider.ToolDefinition, bool) {
	for _, d := range r.defs {
		if d.Name == name {
			return d, true
		}
	}
	return provider.ToolDefinition{}, false
}

// Execute runs a tool call and returns its result. Failures are reported
// inside the result, never as a Go error, so the agentic loop can feed
// them back to the model.
func (r *Registry) Execute(ctx context.Context, call provider.ToolCall) provider.ToolResult {
	ex := &executor{workDir: r.workDir, runner: r.runner}

	var out toolOutput
	switch call.Name {
	case "Read":
		out = ex.read(call.Input)
	case "ListDir":
		out = ex.listDir(call.Input)
	case "Grep":
		out = ex.grep(ctx, call.Input)
	case "Write":
		out = ex.write(call.Input)
	case "RunCommand":
		out = ex.runCommand(ctx, call.Input)
	default:
		out = toolOutput{content: fmt.Sprintf("Unknown tool: %s", call.Name), isError: true}
	}

	return provider.ToolResult{
		CallID:  call.ID,
		Content: out.content,
		IsError: out.isError,
	}
}
