package iterate

import (
	"context"
	"fmt"
	"time"

	"github.com/danebolt/weft/internal/aggregate"
	"github.com/danebolt/weft/pkg/models"
)

const fileAggregationInstruction = "Synthesize the per-file analysis results below into one coherent report. Merge overlapping findings, keep file references, and order findings by severity."

// ExecuteIterative runs the sequential strategy (V1): one file at a time,
// with an intermediate batch aggregation every batch-size files so very
// large file sets never accumulate unbounded context. Batch summaries are
// meta-aggregated at the end.
func (r *Runner) ExecuteIterative(ctx context.Context, def *models.PipelineDefinition, files []string, opts Options) (*models.IterativeResult, error) {
	start := time.Now()
	result := newResult(files)
	c := newCollector()
	batchSize := opts.batchSize()

	debugLog("v1 run %s: %d files, batch size %d", result.RunID, len(files), batchSize)

	var batchItems []aggregate.Item
	var batchSummaries []aggregate.Item

	flushBatch := func() {
		if len(batchItems) == 0 {
			return
		}
		summary := r.agg.Aggregate(ctx, batchItems, fileAggregationInstruction, aggregate.Options{
			ProviderContext: opts.ProviderContext,
			BatchSize:       batchSize,
			Sink:            opts.Sink,
		})
		batchSummaries = append(batchSummaries, aggregate.Item{
			Label:   fmt.Sprintf("Files %d-%d", len(batchSummaries)*batchSize+1, len(batchSummaries)*batchSize+len(batchItems)),
			Content: summary,
		})
		batchItems = batchItems[:0]
	}

	for _, file := range files {
		if r.stopRequested() {
			c.skip(file, "run stopped")
			continue
		}
		r.runFile(ctx, def, file, c, opts, opts.baseOptions())
		if res := c.result(file); res != nil {
			batchItems = append(batchItems, aggregate.Item{Label: file, Content: res.Output})
		}
		if len(batchItems) >= batchSize {
			flushBatch()
		}
	}
	result.Timing.Processing = time.Since(start)

	aggStart := time.Now()
	switch {
	case len(batchSummaries) == 0:
		// Everything fit in one batch.
		result.AggregatedOutput = r.aggregateItems(ctx, batchItems, fileAggregationInstruction, opts)
	default:
		flushBatch()
		if len(batchSummaries) == 1 {
			result.AggregatedOutput = batchSummaries[0].Content
		} else {
			result.AggregatedOutput = r.aggregateItems(ctx, batchSummaries,
				"The sections below summarize consecutive batches of files from one codebase analysis. Combine them into one final report.", opts)
		}
	}
	result.Timing.Aggregation = time.Since(aggStart)

	c.fill(result, false)
	result.Timing.Total = time.Since(start)
	debugLog("v1 run %s done: %d/%d processed", result.RunID, result.FilesProcessed, result.TotalFiles)
	return result, nil
}

func (r *Runner) aggregateItems(ctx context.Context, items []aggregate.Item, instruction string, opts Options) string {
	if len(items) == 0 {
		return ""
	}
	return r.agg.Aggregate(ctx, items, instruction, aggregate.Options{
		ProviderContext: opts.ProviderContext,
		BatchSize:       opts.batchSize(),
		Sink:            opts.Sink,
	})
}
