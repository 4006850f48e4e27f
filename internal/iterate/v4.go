package iterate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danebolt/weft/internal/depgraph"
	"github.com/danebolt/weft/internal/events"
	"github.com/danebolt/weft/internal/pipeline"
	"github.com/danebolt/weft/internal/symbols"
	"github.com/danebolt/weft/internal/symbolstore"
	"github.com/danebolt/weft/internal/triage"
	"github.com/danebolt/weft/pkg/models"
)

// depSummaryLimit bounds how much of each dependency's analysis is fed
// into a dependent file's prompt.
const depSummaryLimit = 500

// Connectivity boost thresholds for re-scoring triage priorities.
const (
	highInDegree        = 5
	highTransitiveCount = 10
)

// ExecuteIterativeV4 runs the symbolication-enhanced strategy: a
// codebase-structure pass (symbol extraction plus dependency graph) runs
// once before triage, triage scores are boosted by connectivity, and
// processing follows a dependency-respecting tier order so each file's
// prompt can be enriched with its dependencies' already-computed analyses.
func (r *Runner) ExecuteIterativeV4(ctx context.Context, pipelineName string, files []string, opts Options) (*models.IterativeResult, error) {
	def, err := r.router.Pipeline(pipelineName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sink := events.OrNop(opts.Sink)
	result := newResult(files)
	c := newCollector()

	symStart := time.Now()
	filesInfo := r.symbolicate(ctx, files, opts)
	graph := depgraph.Build(filesInfo)
	conn := depgraph.Connectivity(filesInfo, graph)
	result.Timing.Symbolication = time.Since(symStart)

	debugLog("v4 run %s: %d files symbolized, %d edges, %d cycles, %d entry points",
		result.RunID, len(filesInfo), len(graph.Edges), len(graph.Cycles), len(graph.EntryPoints))

	triageStart := time.Now()
	tri, err := r.runTriage(ctx, files, opts)
	if err != nil {
		return nil, err
	}
	tri = boostScores(tri, graph, conn)
	result.Triage = tri
	result.Timing.Triage = time.Since(triageStart)

	priorities := make(map[string]int, len(tri.Scores))
	for _, score := range tri.Scores {
		priorities[score.File] = score.Priority
	}
	order := depgraph.ProcessingOrder(graph, files, priorities)

	sink.Emit(events.Event{Type: events.GroupingDone, Count: len(order.Tiers)})
	debugLog("v4 run %s: %d processing tiers", result.RunID, len(order.Tiers))

	procStart := time.Now()
	capableModel := r.roleModel("capable", opts.ProviderContext)
	fastModel := r.roleModel("fast", opts.ProviderContext)
	critical := pathSet(tri.CriticalPaths)
	skip := pathSet(tri.SkipPaths)

	for _, tier := range order.Tiers {
		if r.stopRequested() {
			for _, file := range tier {
				c.skip(file, "run stopped")
			}
			continue
		}
		r.runConcurrent(ctx, def, tier, c, opts, func(file string) pipeline.Options {
			p := opts.baseOptions()
			switch {
			case critical[file]:
				p.ModelOverride = r.suggestedOr(tri, file, capableModel)
			case skip[file]:
				p.DisableTools = true
				p.ModelOverride = r.suggestedOr(tri, file, fastModel)
			default:
				p.DisableTools = true
				p.ModelOverride = r.suggestedOr(tri, file, "")
			}
			p.Extra = map[string]string{
				"dependency_summaries": r.dependencySummaries(file, conn, c),
			}
			return p
		})
	}
	result.Timing.Processing = time.Since(procStart)

	aggStart := time.Now()
	result.AggregatedOutput = r.aggregateItems(ctx, c.items(order.Files),
		criticalWeightedInstruction(tri.CriticalPaths), opts)
	result.Timing.Aggregation = time.Since(aggStart)

	c.fill(result, true)
	result.Timing.Total = time.Since(start)
	debugLog("v4 run %s done: %d/%d processed", result.RunID, result.FilesProcessed, result.TotalFiles)
	return result, nil
}

// symbolicate extracts symbol info for every supported file, consulting the
// on-disk cache keyed by content hash. Failures degrade to an empty entry
// for that file; the graph just sees fewer edges.
func (r *Runner) symbolicate(ctx context.Context, files []string, opts Options) map[string]*models.FileSymbolInfo {
	sink := events.OrNop(opts.Sink)
	sink.Emit(events.Event{Type: events.SymbolsStart, Total: len(files)})

	store, err := symbolstore.Open(symbolstore.DefaultPath(opts.WorkDir))
	if err != nil {
		debugLog("symbol cache unavailable: %v", err)
		store = nil
	} else {
		defer store.Close()
	}

	filesInfo := make(map[string]*models.FileSymbolInfo, len(files))
	done := 0
	for _, file := range files {
		done++
		if r.Extractor == nil || !symbols.Supported(file) {
			continue
		}
		content, skipReason, err := readFile(opts.WorkDir, file, opts.maxFileSize())
		if err != nil || skipReason != "" {
			continue
		}

		hash := symbolstore.Hash([]byte(content))
		if store != nil {
			if info, ok, err := store.Get(file, hash); err == nil && ok {
				filesInfo[file] = info
				sink.Emit(events.Event{Type: events.SymbolsFile, File: file, Count: done, Total: len(files)})
				continue
			}
		}

		info, err := r.Extractor.Extract(ctx, []byte(content), file)
		if err != nil {
			debugLog("symbol extraction failed for %s: %v", file, err)
			continue
		}
		filesInfo[file] = info
		if store != nil {
			if err := store.Put(file, hash, info); err != nil {
				debugLog("symbol cache write failed for %s: %v", file, err)
			}
		}
		sink.Emit(events.Event{Type: events.SymbolsFile, File: file, Count: done, Total: len(files)})
	}

	sink.Emit(events.Event{Type: events.SymbolsDone, Count: len(filesInfo)})
	return filesInfo
}

// boostScores re-scores a triage result using graph connectivity and
// re-buckets by the fixed priority thresholds. Operates on a clone; the
// original triage pass stays intact.
func boostScores(tri *models.TriageResult, graph *models.DependencyGraph, conn map[string]*models.FileConnectivity) *models.TriageResult {
	boosted := tri.Clone()
	entry := pathSet(graph.EntryPoints)

	for i := range boosted.Scores {
		score := &boosted.Scores[i]
		if fc := conn[score.File]; fc != nil {
			if fc.InDegree >= highInDegree {
				score.Importance += 2
			}
			if fc.TransitiveImporters >= highTransitiveCount {
				score.Importance++
			}
		}
		if entry[score.File] {
			score.Importance += 2
		}
		if graph.InCycle(score.File) {
			score.Complexity++
		}
		if score.Importance > 10 {
			score.Importance = 10
		}
		if score.Complexity > 10 {
			score.Complexity = 10
		}
		score.Priority = triage.PriorityFor(score.Risk, score.Complexity, score.Importance)
	}

	sort.SliceStable(boosted.Scores, func(i, j int) bool {
		return boosted.Scores[i].Priority > boosted.Scores[j].Priority
	})
	boosted.Rebucket()
	return boosted
}

// dependencySummaries collects the already-computed analyses of a file's
// direct dependencies. Tier ordering makes these available when possible;
// cycle members may see an empty section.
func (r *Runner) dependencySummaries(file string, conn map[string]*models.FileConnectivity, c *collector) string {
	fc := conn[file]
	if fc == nil || len(fc.DirectDependencies) == 0 {
		return ""
	}

	var b strings.Builder
	for _, dep := range fc.DirectDependencies {
		res := c.result(dep)
		if res == nil {
			continue
		}
		summary := res.Output
		if len(summary) > depSummaryLimit {
			summary = truncateToRune(summary, depSummaryLimit) + "..."
		}
		fmt.Fprintf(&b, "### %s\n%s\n\n", dep, summary)
	}
	return strings.TrimSpace(b.String())
}

// truncateToRune shortens s to at most limit bytes without splitting a
// multi-byte rune.
func truncateToRune(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func pathSet(paths []string) map[string]bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return set
}
