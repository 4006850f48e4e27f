package iterate

import (
	"context"
	"strings"
	"time"

	"github.com/danebolt/weft/internal/pipeline"
	"github.com/danebolt/weft/internal/triage"
	"github.com/danebolt/weft/pkg/models"
)

// ExecuteIterativeV3 runs the triage-adaptive strategy: a fast triage pass
// buckets every file into critical/normal/skip, and each bucket gets a
// pass matched to its stakes. Critical files run tool-enabled on a capable
// model at low concurrency; normal files run at standard concurrency; skip
// files get a cheap fast-model pass at double concurrency. Every bucket
// runs; "skip" means cheap, not ignored.
func (r *Runner) ExecuteIterativeV3(ctx context.Context, def *models.PipelineDefinition, files []string, opts Options) (*models.IterativeResult, error) {
	start := time.Now()
	result := newResult(files)
	c := newCollector()

	triageStart := time.Now()
	tri, err := r.runTriage(ctx, files, opts)
	if err != nil {
		return nil, err
	}
	result.Triage = tri
	result.Timing.Triage = time.Since(triageStart)

	debugLog("v3 run %s: %d critical, %d normal, %d skip",
		result.RunID, len(tri.CriticalPaths), len(tri.NormalPaths), len(tri.SkipPaths))

	procStart := time.Now()
	r.runTiers(ctx, def, tri, c, opts)
	result.Timing.Processing = time.Since(procStart)

	aggStart := time.Now()
	order := append(append(append([]string{}, tri.CriticalPaths...), tri.NormalPaths...), tri.SkipPaths...)
	result.AggregatedOutput = r.aggregateItems(ctx, c.items(order),
		criticalWeightedInstruction(tri.CriticalPaths), opts)
	result.Timing.Aggregation = time.Since(aggStart)

	c.fill(result, true)
	result.Timing.Total = time.Since(start)
	debugLog("v3 run %s done: %d/%d processed", result.RunID, result.FilesProcessed, result.TotalFiles)
	return result, nil
}

func (r *Runner) runTriage(ctx context.Context, files []string, opts Options) (*models.TriageResult, error) {
	samples := sampleFiles(ctx, opts.WorkDir, files, opts.maxFileSize())
	return r.TriageFiles(ctx, samples, r.router, triage.Options{
		ProviderContext: opts.ProviderContext,
		Sink:            opts.Sink,
	})
}

// runTiers processes the three triage buckets in order of stakes.
func (r *Runner) runTiers(ctx context.Context, def *models.PipelineDefinition, tri *models.TriageResult, c *collector, opts Options) {
	capableModel := r.roleModel("capable", opts.ProviderContext)
	fastModel := r.roleModel("fast", opts.ProviderContext)

	r.runConcurrentN(ctx, def, tri.CriticalPaths, c, opts, criticalConcurrency, func(file string) pipeline.Options {
		p := opts.baseOptions()
		p.ModelOverride = r.suggestedOr(tri, file, capableModel)
		return p
	})

	r.runConcurrent(ctx, def, tri.NormalPaths, c, opts, func(file string) pipeline.Options {
		p := opts.baseOptions()
		p.DisableTools = true
		p.ModelOverride = r.suggestedOr(tri, file, "")
		return p
	})

	r.runConcurrentN(ctx, def, tri.SkipPaths, c, opts, opts.concurrency()*2, func(file string) pipeline.Options {
		p := opts.baseOptions()
		p.DisableTools = true
		p.ModelOverride = r.suggestedOr(tri, file, fastModel)
		return p
	})
}

// roleModel resolves a role to a model name, or "" when the role is not
// defined for the context. An empty override lets each step's own
// resolution apply.
func (r *Runner) roleModel(role, providerContext string) string {
	if providerContext == "" {
		providerContext = r.router.DefaultProviderContext()
	}
	if resolved, ok := r.router.ResolveRole(role, providerContext); ok {
		return resolved.Model
	}
	return ""
}

// suggestedOr returns the triage's suggested model for a file when it
// resolves to a registered model, else the tier default.
func (r *Runner) suggestedOr(tri *models.TriageResult, file, tierModel string) string {
	if score := tri.Score(file); score != nil && score.SuggestedModel != "" {
		if _, err := r.router.Resolve(score.SuggestedModel); err == nil {
			return score.SuggestedModel
		}
	}
	return tierModel
}

func criticalWeightedInstruction(criticalPaths []string) string {
	instruction := fileAggregationInstruction
	if len(criticalPaths) > 0 {
		instruction += "\n\nWeight findings from these critical files most heavily and surface them first: " +
			strings.Join(criticalPaths, ", ") + "."
	}
	return instruction
}
