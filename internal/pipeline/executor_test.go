package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/danebolt/weft/internal/config"
	"github.com/danebolt/weft/internal/provider"
	"github.com/danebolt/weft/internal/router"
	"github.com/danebolt/weft/pkg/models"
)

// scriptedProvider replays canned responses and records the prompts it saw.
type scriptedProvider struct {
	responses []*provider.Response
	calls     int
	prompts   []string
}

func (s *scriptedProvider) StreamChat(ctx context.Context, model string, messages []provider.Message, tools []provider.ToolDefinition, onText func(string)) (*provider.Response, error) {
	if len(messages) > 0 {
		s.prompts = append(s.prompts, messages[0].Content)
	}
	if s.calls >= len(s.responses) {
		return nil, fmt.Errorf("unexpected call %d", s.calls)
	}
	resp := s.responses[s.calls]
	s.calls++
	if onText != nil && resp.Content != "" {
		onText(resp.Content)
	}
	return resp, nil
}

func (s *scriptedProvider) Chat(ctx context.Context, model string, messages []provider.Message) (*provider.Response, error) {
	return s.StreamChat(ctx, model, messages, nil, nil)
}

// recordingTools implements ToolRegistry with a fixed definition set.
type recordingTools struct {
	defs     []provider.ToolDefinition
	executed []string
}

func (r *recordingTools) Definitions() []provider.ToolDefinition { return r.defs }

func (r *recordingTools) Execute(ctx context.Context, call provider.ToolCall) provider.ToolResult {
	r.executed = append(r.executed, call.Name)
	return provider.ToolResult{CallID: call.ID, Content: "executed " + call.Name}
}

func testRouter(t *testing.T, p provider.ModelProvider, roles map[string]config.RoleTable) *router.Router {
	t.Helper()
	reg := provider.NewRegistry()
	reg.Register("test-model", p)
	cfg := &config.Config{
		Roles:     roles,
		Fallbacks: []string{"test-model"},
		Defaults:  config.DefaultsConfig{Provider: "anthropic"},
	}
	return router.New(cfg, reg, nil)
}

func TestExecuteSimplePipeline(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.Response{
		{Content: "summary text"},
		{Content: "final review"},
	}}
	exec := NewExecutor(testRouter(t, p, nil), nil)

	def := &models.PipelineDefinition{
		Name: "two-step",
		Steps: []models.PipelineStep{
			{Name: "summarize", Prompt: "Summarize: {input}", Output: "summary"},
			{Name: "review", Prompt: "Review: {summary}", Output: "review"},
		},
	}

	result, err := exec.Execute(context.Background(), def, "the code", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != "final review" {
		t.Errorf("output = %q, want %q", result.Output, "final review")
	}
	if result.Steps["summarize"] != "summary text" {
		t.Errorf("step output = %q, want %q", result.Steps["summarize"], "summary text")
	}
	if len(p.prompts) != 2 || !strings.Contains(p.prompts[1], "summary text") {
		t.Errorf("second prompt should reference first step output, got %q", p.prompts)
	}
	if len(result.ModelsUsed) != 1 || result.ModelsUsed[0] != "test-model" {
		t.Errorf("models used = %v", result.ModelsUsed)
	}
}

func TestExecuteConditionSkipsStep(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.Response{
		{Content: "only step"},
	}}
	exec := NewExecutor(testRouter(t, p, nil), nil)

	def := &models.PipelineDefinition{
		Name: "conditional",
		Steps: []models.PipelineStep{
			{Name: "run", Prompt: "{input}", Output: "out"},
			{Name: "skipped", Prompt: "never", Output: "never", Condition: "missing_var"},
		},
	}

	result, err := exec.Execute(context.Background(), def, "in", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := result.Steps["skipped"]; ok {
		t.Error("conditional step should have been skipped")
	}
	if result.Output != "only step" {
		t.Errorf("output = %q, want %q", result.Output, "only step")
	}
}

func TestExecuteResultTemplate(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.Response{
		{Content: "body"},
	}}
	exec := NewExecutor(testRouter(t, p, nil), nil)

	def := &models.PipelineDefinition{
		Name:   "templated",
		Result: "Report:\n{out}",
		Steps: []models.PipelineStep{
			{Name: "step", Prompt: "{input}", Output: "out"},
		},
	}

	result, err := exec.Execute(context.Background(), def, "in", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != "Report:\nbody" {
		t.Errorf("output = %q", result.Output)
	}
}

func TestExecuteUnresolvableRoleFails(t *testing.T) {
	p := &scriptedProvider{}
	exec := NewExecutor(testRouter(t, p, nil), nil)

	def := &models.PipelineDefinition{
		Name: "role-pipeline",
		Steps: []models.PipelineStep{
			{Name: "step", Prompt: "{input}", Output: "out", Role: "capable"},
		},
	}

	_, err := exec.Execute(context.Background(), def, "in", Options{})
	if err == nil {
		t.Fatal("expected error for unresolvable role")
	}
	if !strings.Contains(err.Error(), "capable") {
		t.Errorf("error should name the role, got %v", err)
	}
}

func TestExecuteRoleResolution(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.Response{
		{Content: "done"},
	}}
	roles := map[string]config.RoleTable{
		"fast": {"anthropic": "test-model"},
	}
	exec := NewExecutor(testRouter(t, p, roles), nil)

	def := &models.PipelineDefinition{
		Name: "role-pipeline",
		Steps: []models.PipelineStep{
			{Name: "step", Prompt: "{input}", Output: "out", Role: "fast"},
		},
	}

	result, err := exec.Execute(context.Background(), def, "in", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != "done" {
		t.Errorf("output = %q", result.Output)
	}
}

func TestExecuteStepFailureAborts(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.Response{
		{Content: "first"},
	}}
	exec := NewExecutor(testRouter(t, p, nil), nil)

	def := &models.PipelineDefinition{
		Name: "failing",
		Steps: []models.PipelineStep{
			{Name: "ok", Prompt: "{input}", Output: "a"},
			{Name: "boom", Prompt: "{a}", Output: "b"},
		},
	}

	result, err := exec.Execute(context.Background(), def, "in", Options{})
	if err == nil {
		t.Fatal("expected error from exhausted script")
	}
	if result != nil {
		t.Error("no partial result should be returned on failure")
	}
}

func TestAgenticLoopExecutesTools(t *testing.T) {
	input := json.RawMessage(`{"path":"main.ts"}`)
	p := &scriptedProvider{responses: []*provider.Response{
		{Content: "", ToolCalls: []provider.ToolCall{{ID: "c1", Name: "read_file", Input: input}}},
		{Content: "analyzed the file"},
	}}
	tools := &recordingTools{defs: []provider.ToolDefinition{
		{Name: "read_file", Description: "Read a file"},
	}}
	exec := NewExecutor(testRouter(t, p, nil), tools)

	def := &models.PipelineDefinition{
		Name: "agentic",
		Steps: []models.PipelineStep{
			{Name: "inspect", Prompt: "{input}", Output: "out", AllowToolUse: true, Tools: []string{"read_file"}},
		},
	}

	result, err := exec.Execute(context.Background(), def, "in", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != "analyzed the file" {
		t.Errorf("output = %q", result.Output)
	}
	if len(tools.executed) != 1 || tools.executed[0] != "read_file" {
		t.Errorf("executed tools = %v", tools.executed)
	}
}

func TestAgenticDenialInjectsErrorResult(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.Response{
		{ToolCalls: []provider.ToolCall{{ID: "c1", Name: "write_file", Input: json.RawMessage(`{}`)}}},
		{Content: "continued without writing"},
	}}
	tools := &recordingTools{defs: []provider.ToolDefinition{
		{Name: "write_file", Description: "Write a file", RequiresConfirmation: true},
	}}
	exec := NewExecutor(testRouter(t, p, nil), tools)

	def := &models.PipelineDefinition{
		Name: "agentic",
		Steps: []models.PipelineStep{
			{Name: "edit", Prompt: "{input}", Output: "out", AllowToolUse: true, Tools: []string{"write_file"}},
		},
	}

	// No ConfirmTool set: confirmable calls are denied.
	result, err := exec.Execute(context.Background(), def, "in", Options{})
	if err != nil {
		t.Fatalf("denial must not fail the step: %v", err)
	}
	if result.Output != "continued without writing" {
		t.Errorf("output = %q", result.Output)
	}
	if len(tools.executed) != 0 {
		t.Errorf("denied tool must not execute, got %v", tools.executed)
	}
}

func TestAgenticIterationCapReturnsPartialText(t *testing.T) {
	call := provider.ToolCall{ID: "c", Name: "read_file", Input: json.RawMessage(`{}`)}
	p := &scriptedProvider{responses: []*provider.Response{
		{Content: "thinking", ToolCalls: []provider.ToolCall{call}},
		{Content: "still thinking", ToolCalls: []provider.ToolCall{call}},
		{Content: "last words", ToolCalls: []provider.ToolCall{call}},
	}}
	tools := &recordingTools{defs: []provider.ToolDefinition{
		{Name: "read_file"},
	}}
	exec := NewExecutor(testRouter(t, p, nil), tools)

	def := &models.PipelineDefinition{
		Name: "capped",
		Steps: []models.PipelineStep{
			{Name: "loop", Prompt: "{input}", Output: "out", AllowToolUse: true, Tools: []string{"read_file"}, MaxIterations: 3},
		},
	}

	result, err := exec.Execute(context.Background(), def, "in", Options{})
	if err != nil {
		t.Fatalf("iteration cap must not be an error: %v", err)
	}
	if result.Output != "last words" {
		t.Errorf("output = %q, want last partial text", result.Output)
	}
}

func TestDisableToolsDegradesToSingleTurn(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.Response{
		{Content: "single turn"},
	}}
	tools := &recordingTools{defs: []provider.ToolDefinition{
		{Name: "read_file"},
	}}
	exec := NewExecutor(testRouter(t, p, nil), tools)

	def := &models.PipelineDefinition{
		Name: "agentic",
		Steps: []models.PipelineStep{
			{Name: "step", Prompt: "{input}", Output: "out", AllowToolUse: true, Tools: []string{"read_file"}},
		},
	}

	result, err := exec.Execute(context.Background(), def, "in", Options{DisableTools: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != "single turn" {
		t.Errorf("output = %q", result.Output)
	}
}
