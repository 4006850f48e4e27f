package iterate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/danebolt/weft/internal/config"
	"github.com/danebolt/weft/internal/pipeline"
	"github.com/danebolt/weft/internal/provider"
	"github.com/danebolt/weft/internal/router"
	"github.com/danebolt/weft/internal/triage"
	"github.com/danebolt/weft/pkg/models"
)

// echoProvider answers every call with a fixed marker and counts calls.
type echoProvider struct {
	streamCalls atomic.Int64
	chatCalls   atomic.Int64
}

func (e *echoProvider) StreamChat(ctx context.Context, model string, messages []provider.Message, tools []provider.ToolDefinition, onText func(string)) (*provider.Response, error) {
	e.streamCalls.Add(1)
	return &provider.Response{Content: "analysis"}, nil
}

func (e *echoProvider) Chat(ctx context.Context, model string, messages []provider.Message) (*provider.Response, error) {
	e.chatCalls.Add(1)
	return &provider.Response{Content: "aggregated"}, nil
}

func testDef() *models.PipelineDefinition {
	return &models.PipelineDefinition{
		Name: "analyze",
		Steps: []models.PipelineStep{
			{Name: "analyze", Prompt: "Analyze {file}:\n{input}", Output: "analysis"},
		},
	}
}

func testRunner(t *testing.T, p provider.ModelProvider, pipelines map[string]*models.PipelineDefinition) *Runner {
	t.Helper()
	reg := provider.NewRegistry()
	reg.Register("test-model", p)
	cfg := &config.Config{
		Fallbacks: []string{"test-model"},
		Defaults:  config.DefaultsConfig{Provider: "anthropic"},
	}
	rt := router.New(cfg, reg, pipelines)
	runner := NewRunner(rt, pipeline.NewExecutor(rt, nil))
	runner.Extractor = nil
	return runner
}

func writeFiles(t *testing.T, names ...string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("const x = 1\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir, names
}

func TestExecuteIterativeProcessesAllFiles(t *testing.T) {
	p := &echoProvider{}
	runner := testRunner(t, p, nil)
	dir, files := writeFiles(t, "a.ts", "b.ts", "c.ts")

	result, err := runner.ExecuteIterative(context.Background(), testDef(), files, Options{WorkDir: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FilesProcessed != 3 || result.TotalFiles != 3 {
		t.Errorf("processed %d/%d, want 3/3", result.FilesProcessed, result.TotalFiles)
	}
	if len(result.FileResults) != 3 {
		t.Errorf("file results = %d", len(result.FileResults))
	}
	if result.AggregatedOutput == "" {
		t.Error("expected aggregated output")
	}
	if result.RunID == "" {
		t.Error("expected a run ID")
	}
	if p.streamCalls.Load() != 3 {
		t.Errorf("stream calls = %d, want one per file", p.streamCalls.Load())
	}
}

func TestExecuteIterativeBatchedAggregation(t *testing.T) {
	p := &echoProvider{}
	runner := testRunner(t, p, nil)
	dir, files := writeFiles(t, "a.ts", "b.ts", "c.ts", "d.ts", "e.ts")

	result, err := runner.ExecuteIterative(context.Background(), testDef(), files, Options{
		WorkDir:   dir,
		BatchSize: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FilesProcessed != 5 {
		t.Errorf("processed = %d, want 5", result.FilesProcessed)
	}
	// Two full batches during the loop, the remainder batch at the end,
	// then one meta-synthesis over the three summaries.
	if p.chatCalls.Load() != 4 {
		t.Errorf("aggregation calls = %d, want 4", p.chatCalls.Load())
	}
}

func TestOversizedFileSkipped(t *testing.T) {
	p := &echoProvider{}
	runner := testRunner(t, p, nil)
	dir := t.TempDir()
	big := filepath.Join(dir, "big.ts")
	if err := os.WriteFile(big, []byte(strings.Repeat("x", 256)), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := runner.ExecuteIterative(context.Background(), testDef(), []string{"big.ts"}, Options{
		WorkDir:     dir,
		MaxFileSize: 100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FilesProcessed != 0 {
		t.Errorf("oversized file must not be processed")
	}
	if len(result.SkippedFiles) != 1 {
		t.Fatalf("skipped = %v", result.SkippedFiles)
	}
	if !strings.Contains(result.SkippedFiles[0].Reason, "file too large (256 bytes)") {
		t.Errorf("reason = %q", result.SkippedFiles[0].Reason)
	}
}

func TestMissingFileSkippedNotFatal(t *testing.T) {
	p := &echoProvider{}
	runner := testRunner(t, p, nil)
	dir, _ := writeFiles(t, "ok.ts")

	result, err := runner.ExecuteIterative(context.Background(), testDef(), []string{"ok.ts", "gone.ts"}, Options{WorkDir: dir})
	if err != nil {
		t.Fatalf("one unreadable file must not abort the run: %v", err)
	}
	if result.FilesProcessed != 1 {
		t.Errorf("processed = %d, want 1", result.FilesProcessed)
	}
	if len(result.SkippedFiles) != 1 || result.SkippedFiles[0].Path != "gone.ts" {
		t.Errorf("skipped = %v", result.SkippedFiles)
	}
}

func TestExecuteIterativeV2GroupsAndSummaries(t *testing.T) {
	p := &echoProvider{}
	runner := testRunner(t, p, nil)
	dir, files := writeFiles(t, "auth/login.ts", "auth/token.ts", "ui/button.ts")

	result, err := runner.ExecuteIterativeV2(context.Background(), testDef(), files, Options{WorkDir: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FilesProcessed != 3 {
		t.Errorf("processed = %d, want 3", result.FilesProcessed)
	}
	if len(result.Groups) != 2 {
		t.Fatalf("groups = %v", result.Groups)
	}
	for _, group := range result.Groups {
		if result.GroupSummaries[group.Name] == "" {
			t.Errorf("missing summary for group %q", group.Name)
		}
	}
	if result.AggregatedOutput == "" {
		t.Error("expected meta-aggregated output")
	}
}

func TestExecuteIterativeV3AllTiersRun(t *testing.T) {
	p := &echoProvider{}
	runner := testRunner(t, p, nil)
	dir, files := writeFiles(t, "critical.ts", "normal.ts", "boring.ts")

	runner.TriageFiles = func(ctx context.Context, samples []triage.FileSample, rt *router.Router, opts triage.Options) (*models.TriageResult, error) {
		tr := &models.TriageResult{Scores: []models.FileScore{
			{File: "critical.ts", Risk: 9, Complexity: 8, Importance: 9, Priority: 9},
			{File: "normal.ts", Risk: 5, Complexity: 5, Importance: 5, Priority: 5},
			{File: "boring.ts", Risk: 2, Complexity: 1, Importance: 1, Priority: 1},
		}}
		tr.Rebucket()
		return tr, nil
	}

	result, err := runner.ExecuteIterativeV3(context.Background(), testDef(), files, Options{WorkDir: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Skip-bucket files still get a pass: cheap, not ignored.
	if result.FilesProcessed != 3 {
		t.Errorf("processed = %d, want every bucket to run", result.FilesProcessed)
	}
	if result.Triage == nil || len(result.Triage.CriticalPaths) != 1 {
		t.Errorf("triage = %+v", result.Triage)
	}
	for _, file := range files {
		if result.FileResults[file] == nil {
			t.Errorf("missing result for %s", file)
		}
	}
}

func TestExecuteIterativeV4(t *testing.T) {
	p := &echoProvider{}
	pipelines := map[string]*models.PipelineDefinition{"analyze": testDef()}
	runner := testRunner(t, p, pipelines)
	dir, files := writeFiles(t, "a.ts", "b.ts")

	runner.TriageFiles = func(ctx context.Context, samples []triage.FileSample, rt *router.Router, opts triage.Options) (*models.TriageResult, error) {
		tr := &models.TriageResult{Scores: []models.FileScore{
			{File: "a.ts", Risk: 5, Complexity: 5, Importance: 5, Priority: 5},
			{File: "b.ts", Risk: 4, Complexity: 4, Importance: 4, Priority: 4},
		}}
		tr.Rebucket()
		return tr, nil
	}

	result, err := runner.ExecuteIterativeV4(context.Background(), "analyze", files, Options{WorkDir: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FilesProcessed != 2 {
		t.Errorf("processed = %d, want 2", result.FilesProcessed)
	}
	if result.Triage == nil {
		t.Error("expected triage result")
	}
	if result.Timing == nil || result.Timing.Total <= 0 {
		t.Error("expected timing")
	}
}

func TestExecuteIterativeV4UnknownPipeline(t *testing.T) {
	runner := testRunner(t, &echoProvider{}, nil)
	_, err := runner.ExecuteIterativeV4(context.Background(), "nope", nil, Options{})
	if err == nil {
		t.Fatal("expected unknown pipeline error")
	}
}

func TestStopRequestSkipsRemainingFiles(t *testing.T) {
	p := &echoProvider{}
	runner := testRunner(t, p, nil)
	dir, files := writeFiles(t, "a.ts", "b.ts", "c.ts")

	// Stop as soon as the first file's model call has happened.
	runner.ShouldStop = func() bool { return p.streamCalls.Load() >= 1 }

	result, err := runner.ExecuteIterative(context.Background(), testDef(), files, Options{WorkDir: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FilesProcessed != 1 {
		t.Errorf("processed = %d, want 1 before stop", result.FilesProcessed)
	}
	for _, skipped := range result.SkippedFiles {
		if skipped.Reason != "run stopped" {
			t.Errorf("reason = %q", skipped.Reason)
		}
	}
	if len(result.SkippedFiles) != 2 {
		t.Errorf("skipped = %v", result.SkippedFiles)
	}
}

func TestBoostScores(t *testing.T) {
	tri := &models.TriageResult{Scores: []models.FileScore{
		{File: "hub.ts", Risk: 4, Complexity: 4, Importance: 4, Priority: 4},
		{File: "leaf.ts", Risk: 4, Complexity: 4, Importance: 4, Priority: 4},
	}}
	tri.Rebucket()

	graph := &models.DependencyGraph{
		EntryPoints: []string{"hub.ts"},
		Cycles:      [][]string{{"hub.ts", "leaf.ts"}},
	}
	conn := map[string]*models.FileConnectivity{
		"hub.ts":  {InDegree: 6, TransitiveImporters: 12},
		"leaf.ts": {},
	}

	boosted := boostScores(tri, graph, conn)

	hub := boosted.Score("hub.ts")
	// importance 4 +2 (in-degree) +1 (transitive) +2 (entry) = 9,
	// complexity 4 +1 (cycle) = 5, priority = round((4+5+9)/3) = 6.
	if hub.Importance != 9 || hub.Complexity != 5 || hub.Priority != 6 {
		t.Errorf("hub = %+v", hub)
	}
	if len(boosted.CriticalPaths) != 1 || boosted.CriticalPaths[0] != "hub.ts" {
		t.Errorf("critical = %v", boosted.CriticalPaths)
	}

	// Original result untouched.
	if tri.Score("hub.ts").Importance != 4 {
		t.Error("boost must operate on a clone")
	}
	if len(tri.CriticalPaths) != 0 {
		t.Errorf("original buckets changed: %v", tri.CriticalPaths)
	}
}

func TestDependencySummariesTruncated(t *testing.T) {
	c := newCollector()
	c.add("dep.ts", &models.PipelineResult{Output: strings.Repeat("y", depSummaryLimit*2)})

	runner := &Runner{}
	conn := map[string]*models.FileConnectivity{
		"app.ts": {DirectDependencies: []string{"dep.ts", "missing.ts"}},
	}

	got := runner.dependencySummaries("app.ts", conn, c)
	if !strings.Contains(got, "### dep.ts") {
		t.Errorf("summary missing dependency header: %q", got)
	}
	if !strings.Contains(got, "...") {
		t.Error("long dependency output should be truncated")
	}
	if strings.Contains(got, "missing.ts") {
		t.Error("unprocessed dependency must not appear")
	}
	if len(got) > depSummaryLimit+100 {
		t.Errorf("summary too long: %d", len(got))
	}
}

func TestTruncateToRuneBoundary(t *testing.T) {
	// One ASCII byte up front puts every two-byte rune off the byte
	// limit, so a naive byte slice would split one.
	long := "x" + strings.Repeat("é", depSummaryLimit)
	got := truncateToRune(long, depSummaryLimit)
	if len(got) > depSummaryLimit {
		t.Errorf("truncated to %d bytes, limit %d", len(got), depSummaryLimit)
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a rune")
	}
	if short := truncateToRune("short", 10); short != "short" {
		t.Errorf("short input changed: %q", short)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "f.ts"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	content, skipReason, err := readFile(dir, "f.ts", 100)
	if err != nil || skipReason != "" {
		t.Fatalf("err=%v skip=%q", err, skipReason)
	}
	if content != "hello" {
		t.Errorf("content = %q", content)
	}

	_, skipReason, err = readFile(dir, "f.ts", 3)
	if err != nil {
		t.Fatalf("oversized read must not error: %v", err)
	}
	if skipReason != fmt.Sprintf("file too large (%d bytes)", 5) {
		t.Errorf("skip reason = %q", skipReason)
	}
}
