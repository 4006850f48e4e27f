// Package router resolves abstract roles, tasks and commands to concrete
// models or pipelines. Resolution uses static configuration plus the model
// registry; the router is read-only after construction.
package router

import (
	"errors"
	"fmt"

	"github.com/danebolt/weft/internal/config"
	"github.com/danebolt/weft/internal/provider"
	"github.com/danebolt/weft/pkg/models"
)

// ErrNoModels indicates the configuration defines zero usable models.
var ErrNoModels = errors.New("configuration defines no models")

// ErrUnknownPipeline indicates a command override references a pipeline
// that is not loaded. This is a configuration error, never a fallback.
var ErrUnknownPipeline = errors.New("unknown pipeline reference")

// defaultCommandTasks is the static default-task table keyed by command name.
var defaultCommandTasks = map[string]string{
	"analyze":  "analysis",
	"review":   "review",
	"audit":    "review",
	"document": "docs",
	"explain":  "docs",
	"refactor": "refactor",
}

// ResolvedModel is a model identifier plus the capability handle used to
// invoke it. Consumed immediately, never cached beyond one step.
type ResolvedModel struct {
	Model    string
	Provider provider.ModelProvider
}

// Route is the outcome of routing a command: either a concrete model or a
// pipeline reference.
type Route struct {
	// Model is set when the command routes to a single model.
	Model string
	// Pipeline and PipelineName are set when the command routes to a pipeline.
	Pipeline     *models.PipelineDefinition
	PipelineName string
}

// Router maps roles, tasks and commands onto the configured models and
// pipelines.
type Router struct {
	cfg       *config.Config
	registry  *provider.Registry
	pipelines map[string]*models.PipelineDefinition
}

// New creates a Router over the given configuration, registry and loaded
// pipeline definitions.
func New(cfg *config.Config, registry *provider.Registry, pipelines map[string]*models.PipelineDefinition) *Router {
	if pipelines == nil {
		pipelines = map[string]*models.PipelineDefinition{}
	}
	return &Router{cfg: cfg, registry: registry, pipelines: pipelines}
}

// Pipeline returns a loaded pipeline definition by name.
func (r *Router) Pipeline(name string) (*models.PipelineDefinition, error) {
	if def, ok := r.pipelines[name]; ok {
		return def, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPipeline, name)
}

// RouteCommand resolves a command name to a model or a pipeline.
//
// Resolution priority:
//  1. explicit per-command override (pipeline > task > direct model);
//     an unknown pipeline reference is a configuration error
//  2. the static default-task table keyed by command name
//  3. the generic "code" task, if defined
//  4. the primary fallback chain
//  5. the first model defined in configuration, or ErrNoModels
func (r *Router) RouteCommand(name string) (*Route, error) {
	if override, ok := r.cfg.Commands[name]; ok {
		switch {
		case override.Pipeline != "":
			def, err := r.Pipeline(override.Pipeline)
			if err != nil {
				return nil, fmt.Errorf("command %q: %w", name, err)
			}
			return &Route{Pipeline: def, PipelineName: override.Pipeline}, nil
		case override.Task != "":
			model, err := r.RouteTask(override.Task)
			if err != nil {
				return nil, fmt.Errorf("command %q: %w", name, err)
			}
			return &Route{Model: model}, nil
		case override.Model != "":
			return &Route{Model: override.Model}, nil
		}
	}

	if task, ok := defaultCommandTasks[name]; ok {
		if model, ok := r.taskModel(task); ok {
			return &Route{Model: model}, nil
		}
	}

	if model, ok := r.taskModel("code"); ok {
		return &Route{Model: model}, nil
	}

	model, err := r.DefaultModel()
	if err != nil {
		return nil, err
	}
	return &Route{Model: model}, nil
}

// RouteTask resolves a task type to a model, falling back to the primary
// fallback chain and finally the first configured model.
func (r *Router) RouteTask(taskType string) (string, error) {
	if model, ok := r.taskModel(taskType); ok {
		return model, nil
	}
	return r.DefaultModel()
}

// taskModel looks up the task table entry and confirms the registry can
// serve it.
func (r *Router) taskModel(taskType string) (string, bool) {
	model, ok := r.cfg.Tasks[taskType]
	if !ok || model == "" {
		return "", false
	}
	if _, ok := r.registry.Resolve(model); !ok {
		return "", false
	}
	return model, true
}

// DefaultModel returns the first resolvable model of the fallback chain,
// or the first model defined in configuration. ErrNoModels when neither
// exists.
func (r *Router) DefaultModel() (string, error) {
	for _, model := range r.cfg.Fallbacks {
		if _, ok := r.registry.Resolve(model); ok {
			return model, nil
		}
	}
	if first := r.registry.First(); first != "" {
		return first, nil
	}
	return "", ErrNoModels
}

// ResolveRole looks up the two-level role table (role -> provider context
// -> model name). Absence at either level, or a model name the registry
// cannot resolve, yields ok=false rather than an error; callers must have
// a fallback path.
func (r *Router) ResolveRole(role, providerContext string) (*ResolvedModel, bool) {
	table, ok := r.cfg.Roles[role]
	if !ok {
		return nil, false
	}
	model, ok := table[providerContext]
	if !ok || model == "" {
		return nil, false
	}
	p, ok := r.registry.Resolve(model)
	if !ok {
		return nil, false
	}
	return &ResolvedModel{Model: model, Provider: p}, true
}

// Resolve returns the capability handle for a concrete model name.
func (r *Router) Resolve(model string) (*ResolvedModel, error) {
	p, err := r.registry.MustResolve(model)
	if err != nil {
		return nil, err
	}
	return &ResolvedModel{Model: model, Provider: p}, nil
}

// DefaultProviderContext returns the configured default provider context.
func (r *Router) DefaultProviderContext() string {
	return r.cfg.Defaults.Provider
}
