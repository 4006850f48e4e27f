// Package models defines the shared data types used across weft components.
package models

// PipelineStep is one prompt-producing step of a pipeline.
type PipelineStep struct {
	// Name identifies the step within its pipeline.
	Name string `yaml:"name" json:"name"`
	// Prompt is the prompt template. {varName} placeholders are substituted
	// from the pipeline context before the model is invoked.
	Prompt string `yaml:"prompt" json:"prompt"`
	// Output is the context variable the step's result is stored under.
	Output string `yaml:"output" json:"output"`
	// Condition gates the step. "varName" runs the step when the variable
	// is non-empty after trimming; "!varName" negates. Empty means always run.
	Condition string `yaml:"condition,omitempty" json:"condition,omitempty"`
	// Model names a concrete model for this step. Takes precedence over Role.
	Model string `yaml:"model,omitempty" json:"model,omitempty"`
	// Role is an abstract capability label (e.g. "fast", "capable") resolved
	// per provider context.
	Role string `yaml:"role,omitempty" json:"role,omitempty"`
	// AllowToolUse enables the agentic tool loop for this step.
	AllowToolUse bool `yaml:"allow_tool_use,omitempty" json:"allow_tool_use,omitempty"`
	// Tools lists the tool names available to an agentic step.
	Tools []string `yaml:"tools,omitempty" json:"tools,omitempty"`
	// MaxIterations bounds the agentic loop (0 = default).
	MaxIterations int `yaml:"max_iterations,omitempty" json:"max_iterations,omitempty"`
}

// PipelineDefinition is a named, ordered sequence of steps.
// Definitions are immutable once loaded; the router and executor hold
// references, never copies.
type PipelineDefinition struct {
	// Name identifies the pipeline.
	Name string `yaml:"name" json:"name"`
	// Provider is the default role-resolution context for the pipeline.
	Provider string `yaml:"provider,omitempty" json:"provider,omitempty"`
	// Steps run strictly in order; step N's output may be referenced by
	// step N+1's prompt.
	Steps []PipelineStep `yaml:"steps" json:"steps"`
	// Result is an optional template for the final output. When empty the
	// last executed step's output is used.
	Result string `yaml:"result,omitempty" json:"result,omitempty"`
}

// PipelineResult is the outcome of executing one pipeline against one input.
// Immutable after return.
type PipelineResult struct {
	// Output is the final pipeline output.
	Output string `json:"output"`
	// Steps maps step name to that step's recorded output.
	Steps map[string]string `json:"steps"`
	// ModelsUsed lists the distinct models invoked, in first-use order.
	ModelsUsed []string `json:"models_used"`
}

// FileGroup is a partition of the file set used by grouped strategies.
type FileGroup struct {
	// Name identifies the group (typically a directory prefix).
	Name string `json:"name"`
	// Files are the member file paths.
	Files []string `json:"files"`
	// Description is an optional human-readable label.
	Description string `json:"description,omitempty"`
}
