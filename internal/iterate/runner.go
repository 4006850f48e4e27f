package iterate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/danebolt/weft/internal/aggregate"
	"github.com/danebolt/weft/internal/events"
	"github.com/danebolt/weft/internal/grouping"
	"github.com/danebolt/weft/internal/pipeline"
	"github.com/danebolt/weft/internal/router"
	"github.com/danebolt/weft/internal/symbols"
	"github.com/danebolt/weft/internal/triage"
	"github.com/danebolt/weft/pkg/models"
)

// Defaults shared by the strategies.
const (
	// DefaultConcurrency bounds simultaneous file-level pipeline runs.
	DefaultConcurrency = 4
	// DefaultBatchSize triggers intermediate aggregation in V1.
	DefaultBatchSize = 15
	// DefaultMaxFileSize is the read cap; oversized files are skipped.
	DefaultMaxFileSize = 200 * 1024
	// criticalConcurrency bounds the critical tier in V3/V4. Deliberately
	// lower than the normal tier: depth over throughput for high-risk files.
	criticalConcurrency = 2
)

// GroupFunc partitions a file set; see grouping.GroupFiles.
type GroupFunc func(files []string, opts grouping.Options) []models.FileGroup

// TriageFunc scores and buckets a file set; see triage.TriageFiles.
type TriageFunc func(ctx context.Context, samples []triage.FileSample, rt *router.Router, opts triage.Options) (*models.TriageResult, error)

// StopFunc reports whether the run should stop early. Consulted between
// files and tiers, never mid-pipeline.
type StopFunc func() bool

// Options tune one iterative run.
type Options struct {
	// WorkDir is the project root that file paths are relative to.
	WorkDir string
	// ProviderContext overrides the role-resolution context.
	ProviderContext string
	// Concurrency bounds simultaneous pipeline runs in V2-V4 (default 4).
	Concurrency int
	// BatchSize bounds V1 batches and aggregation batches (default 15).
	BatchSize int
	// MaxFileSize is the per-file read cap in bytes (default 200 KiB).
	MaxFileSize int64
	// DisableTools turns agentic steps into single-turn execution.
	DisableTools bool
	// ConfirmTool gates tools that require confirmation; nil denies them.
	ConfirmTool pipeline.ConfirmFunc
	// Sink receives progress events; nil discards them.
	Sink events.Sink
}

func (o *Options) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return DefaultConcurrency
}

func (o *Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

func (o *Options) maxFileSize() int64 {
	if o.MaxFileSize > 0 {
		return o.MaxFileSize
	}
	return DefaultMaxFileSize
}

// Runner executes the iteration strategies. The grouping, triage and
// symbol-extraction collaborators are injectable for testing; NewRunner
// wires the real ones.
type Runner struct {
	router   *router.Router
	executor *pipeline.Executor
	agg      *aggregate.Aggregator

	// GroupFiles partitions files for V2.
	GroupFiles GroupFunc
	// TriageFiles scores files for V3/V4.
	TriageFiles TriageFunc
	// Extractor produces symbol info for V4; nil disables symbolication.
	Extractor symbols.Extractor
	// ShouldStop stops the run early between files; nil never stops.
	ShouldStop StopFunc
}

// NewRunner wires a runner with the production collaborators.
func NewRunner(rt *router.Router, exec *pipeline.Executor) *Runner {
	return &Runner{
		router:      rt,
		executor:    exec,
		agg:         aggregate.New(rt),
		GroupFiles:  grouping.GroupFiles,
		TriageFiles: triage.TriageFiles,
		Extractor:   symbols.NewTreeSitter(),
	}
}

func (r *Runner) stopRequested() bool {
	return r.ShouldStop != nil && r.ShouldStop()
}

// newResult seeds an IterativeResult for a run over files.
func newResult(files []string) *models.IterativeResult {
	return &models.IterativeResult{
		RunID:       uuid.NewString(),
		FileResults: make(map[string]*models.PipelineResult),
		TotalFiles:  len(files),
		Timing:      &models.RunTiming{},
	}
}

// collector gathers per-file outcomes from concurrent tasks.
type collector struct {
	mu      sync.Mutex
	results map[string]*models.PipelineResult
	models  []string
	skipped []models.SkippedFile
}

func newCollector() *collector {
	return &collector{results: make(map[string]*models.PipelineResult)}
}

func (c *collector) add(file string, res *models.PipelineResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[file] = res
	for _, m := range res.ModelsUsed {
		c.models = appendUnique(c.models, m)
	}
}

func (c *collector) skip(file, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipped = append(c.skipped, models.SkippedFile{Path: file, Reason: reason})
}

func (c *collector) result(file string) *models.PipelineResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results[file]
}

// fill copies the collected state into the run result. Skip order follows
// issuance order only in sequential runs; concurrent runs sort by path for
// determinism.
func (c *collector) fill(result *models.IterativeResult, sortSkipped bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result.FileResults = c.results
	result.FilesProcessed = len(c.results)
	result.ModelsUsed = c.models
	result.SkippedFiles = c.skipped
	if sortSkipped {
		sort.Slice(result.SkippedFiles, func(i, j int) bool {
			return result.SkippedFiles[i].Path < result.SkippedFiles[j].Path
		})
	}
}

// runFile reads one file and runs the pipeline against it, recording the
// outcome in the collector. A failed pipeline is recorded as skipped, not
// fatal: one bad file never aborts the run.
func (r *Runner) runFile(ctx context.Context, def *models.PipelineDefinition, file string, c *collector, opts Options, popts pipeline.Options) {
	sink := events.OrNop(opts.Sink)

	content, skipReason, err := readFile(opts.WorkDir, file, opts.maxFileSize())
	if err != nil {
		sink.Emit(events.Event{Type: events.ErrorEvent, File: file, Err: err})
		c.skip(file, fmt.Sprintf("read failed: %v", err))
		return
	}
	if skipReason != "" {
		c.skip(file, skipReason)
		return
	}

	sink.Emit(events.Event{Type: events.FileStart, File: file})
	debugLog("file start: %s", file)

	popts.File = file
	popts.Sink = opts.Sink
	if popts.Extra == nil {
		popts.Extra = map[string]string{}
	}
	popts.Extra["file"] = file

	input := fmt.Sprintf("File: %s\n\n%s", file, content)
	res, err := r.executor.Execute(ctx, def, input, popts)
	if err != nil {
		sink.Emit(events.Event{Type: events.ErrorEvent, File: file, Err: err})
		debugLog("file failed: %s: %v", file, err)
		c.skip(file, fmt.Sprintf("pipeline failed: %v", err))
		return
	}

	c.add(file, res)
	sink.Emit(events.Event{Type: events.FileComplete, File: file, Content: res.Output})
	debugLog("file complete: %s (%d chars)", file, len(res.Output))
}

// baseOptions builds the pipeline options shared by a run.
func (o *Options) baseOptions() pipeline.Options {
	return pipeline.Options{
		ProviderContext: o.ProviderContext,
		DisableTools:    o.DisableTools,
		ConfirmTool:     o.ConfirmTool,
	}
}

// items converts collected results into aggregation items, preserving the
// given file order.
func (c *collector) items(order []string) []aggregate.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []aggregate.Item
	for _, file := range order {
		if res, ok := c.results[file]; ok {
			out = append(out, aggregate.Item{Label: file, Content: res.Output})
		}
	}
	return out
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
