package iterate

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/danebolt/weft/internal/aggregate"
	"github.com/danebolt/weft/internal/events"
	"github.com/danebolt/weft/internal/grouping"
	"github.com/danebolt/weft/internal/pipeline"
	"github.com/danebolt/weft/pkg/models"
)

// ExecuteIterativeV2 runs the grouped-parallel strategy: files are
// partitioned into groups first, each group's files run with bounded
// concurrency, each group aggregates independently, then the group
// summaries are meta-aggregated.
func (r *Runner) ExecuteIterativeV2(ctx context.Context, def *models.PipelineDefinition, files []string, opts Options) (*models.IterativeResult, error) {
	start := time.Now()
	sink := events.OrNop(opts.Sink)
	result := newResult(files)
	c := newCollector()

	sink.Emit(events.Event{Type: events.GroupingStart, Total: len(files)})
	groups := r.GroupFiles(files, grouping.Options{})
	sink.Emit(events.Event{Type: events.GroupingDone, Count: len(groups)})
	result.Groups = groups
	result.GroupSummaries = make(map[string]string, len(groups))

	debugLog("v2 run %s: %d files in %d groups, concurrency %d",
		result.RunID, len(files), len(groups), opts.concurrency())

	for _, group := range groups {
		if r.stopRequested() {
			for _, file := range group.Files {
				c.skip(file, "run stopped")
			}
			continue
		}
		r.runConcurrent(ctx, def, group.Files, c, opts, func(string) pipeline.Options {
			return opts.baseOptions()
		})

		summary := r.aggregateItems(ctx, c.items(group.Files),
			"Synthesize the per-file analyses below, all from the "+group.Name+" area of the codebase, into one group summary.", opts)
		result.GroupSummaries[group.Name] = summary
	}
	result.Timing.Processing = time.Since(start)

	aggStart := time.Now()
	var summaries []aggregate.Item
	for _, group := range groups {
		if s := result.GroupSummaries[group.Name]; s != "" {
			summaries = append(summaries, aggregate.Item{Label: group.Name, Content: s})
		}
	}
	result.AggregatedOutput = r.aggregateItems(ctx, summaries,
		"The sections below summarize different areas of one codebase. Combine them into one final report, noting cross-area concerns.", opts)
	result.Timing.Aggregation = time.Since(aggStart)

	c.fill(result, true)
	result.Timing.Total = time.Since(start)
	debugLog("v2 run %s done: %d/%d processed", result.RunID, result.FilesProcessed, result.TotalFiles)
	return result, nil
}

// runConcurrent processes files with bounded concurrency. perFile supplies
// pipeline options for each file so tiers can vary model and tool choice.
// Acquisition order follows the file list; completion order does not.
func (r *Runner) runConcurrent(ctx context.Context, def *models.PipelineDefinition, files []string, c *collector, opts Options, perFile func(file string) pipeline.Options) {
	r.runConcurrentN(ctx, def, files, c, opts, opts.concurrency(), perFile)
}

func (r *Runner) runConcurrentN(ctx context.Context, def *models.PipelineDefinition, files []string, c *collector, opts Options, concurrency int, perFile func(file string) pipeline.Options) {
	if concurrency < 1 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))
	for _, file := range files {
		if r.stopRequested() {
			c.skip(file, "run stopped")
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			c.skip(file, "run cancelled")
			continue
		}
		go func() {
			defer sem.Release(1)
			r.runFile(ctx, def, file, c, opts, perFile(file))
		}()
	}
	// Drain: all slots reacquired means all workers finished.
	if err := sem.Acquire(context.Background(), int64(concurrency)); err == nil {
		sem.Release(int64(concurrency))
	}
}
