package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/danebolt/weft/internal/events"
	"github.com/danebolt/weft/internal/iterate"
	"github.com/danebolt/weft/internal/pipeline"
	"github.com/danebolt/weft/internal/router"
	"github.com/danebolt/weft/internal/signals"
	"github.com/danebolt/weft/internal/tools"
	"github.com/danebolt/weft/pkg/models"
)

var (
	runMode        string
	runPipeline    string
	runModel       string
	runConcurrency int
	runBatchSize   int
	runNoTools     bool
	runYes         bool
	runVerbose     bool
	runJSON        bool
)

var runCmd = &cobra.Command{
	Use:   "run <command> <file>...",
	Short: "Run an analysis command across files",
	Long: `Run an analysis command across the given files.

The command name is routed via configuration: an explicit per-command
override wins, then the built-in command-to-task table (analyze, review,
audit, document, explain, refactor), then the default task, then the
model fallback chain.

Strategy selection (--mode):
  v1: one file at a time, batched aggregation (default)
  v2: grouped by directory, bounded parallelism per group
  v3: fast triage first; critical files get a deeper, tool-enabled pass
  v4: symbol extraction + dependency graph; files processed in
      dependency order with connectivity-aware triage (requires a
      named pipeline)

Tools that modify files or run commands ask for confirmation unless
--yes is given. Touch .weft/signals/stop to stop a run between files.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAnalysis,
}

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", "v1", "Iteration strategy: v1, v2, v3 or v4")
	runCmd.Flags().StringVar(&runPipeline, "pipeline", "", "Pipeline name override")
	runCmd.Flags().StringVar(&runModel, "model", "", "Model override for every step")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "Max simultaneous file runs (v2-v4)")
	runCmd.Flags().IntVar(&runBatchSize, "batch-size", 0, "Files per aggregation batch")
	runCmd.Flags().BoolVar(&runNoTools, "no-tools", false, "Disable agentic tool use")
	runCmd.Flags().BoolVar(&runYes, "yes", false, "Auto-confirm destructive tool calls")
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "Stream step output")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Emit progress events and the result as JSON lines")
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	command := args[0]
	files := args[1:]

	cfg, rt, err := buildRouter()
	if err != nil {
		return err
	}

	def, err := resolveRun(rt, command)
	if err != nil {
		return err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, finishing in-flight work...")
		cancel()
	}()

	logger := iterate.NewDebugLoggerForProject(workDir)
	defer logger.Close()

	monitor, err := signals.NewMonitor(workDir)
	if err == nil {
		defer monitor.Close()
	}

	registry := tools.NewRegistry(workDir)
	runner := iterate.NewRunner(rt, pipeline.NewExecutor(rt, registry))
	if monitor != nil {
		runner.ShouldStop = monitor.ShouldStop
	}

	sink, drain := progressSink()

	opts := iterate.Options{
		WorkDir:      workDir,
		Concurrency:  pick(runConcurrency, cfg.Defaults.Concurrency),
		BatchSize:    pick(runBatchSize, cfg.Defaults.BatchSize),
		MaxFileSize:  cfg.Defaults.MaxFileSize,
		DisableTools: runNoTools,
		ConfirmTool:  confirmTool,
		Sink:         sink,
	}

	start := time.Now()
	var result *models.IterativeResult
	switch runMode {
	case "v1":
		result, err = runner.ExecuteIterative(ctx, def, files, opts)
	case "v2":
		result, err = runner.ExecuteIterativeV2(ctx, def, files, opts)
	case "v3":
		result, err = runner.ExecuteIterativeV3(ctx, def, files, opts)
	case "v4":
		if def.Name == "" {
			return fmt.Errorf("mode v4 requires a named pipeline (use --pipeline or a command routed to one)")
		}
		result, err = runner.ExecuteIterativeV4(ctx, def.Name, files, opts)
	default:
		return fmt.Errorf("unknown mode %q (expected v1, v2, v3 or v4)", runMode)
	}
	drain()
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if runJSON {
		return printResultJSON(result, time.Since(start))
	}
	printResult(result, time.Since(start))
	return nil
}

// resolveRun picks the pipeline to execute: an explicit --pipeline flag,
// then command routing. A command routed to a bare model gets a one-step
// pipeline around it; --model overrides whatever was routed.
func resolveRun(rt *router.Router, command string) (*models.PipelineDefinition, error) {
	if runPipeline != "" {
		return rt.Pipeline(runPipeline)
	}

	route, err := rt.RouteCommand(command)
	if err != nil {
		return nil, err
	}
	if route.Pipeline != nil {
		return route.Pipeline, nil
	}

	model := route.Model
	if runModel != "" {
		model = runModel
	}
	return &models.PipelineDefinition{
		Name: "",
		Steps: []models.PipelineStep{{
			Name:   command,
			Prompt: "Analyze the following file.\n\n{input}",
			Output: "analysis",
			Model:  model,
		}},
	}, nil
}

// confirmTool prompts on stdin before a destructive tool call runs.
func confirmTool(tool string, input json.RawMessage) bool {
	if runYes {
		return true
	}
	fmt.Printf("\n%s wants to run %s with input:\n  %s\nAllow? [y/N] ",
		color.YellowString("⚠"), color.New(color.Bold).Sprint(tool), string(input))
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// progressSink builds the run's event sink plus a drain function to call
// once the run finishes. JSON mode consumes through a buffered Emitter so
// a slow terminal never stalls the strategies; draining flushes whatever
// is still queued.
func progressSink() (events.Sink, func()) {
	if runJSON {
		emitter := events.NewEmitter(256)
		done := make(chan struct{})
		enc := json.NewEncoder(os.Stdout)
		go func() {
			defer close(done)
			for ev := range emitter.Events() {
				enc.Encode(jsonEvent(ev))
			}
		}()
		return emitter, func() {
			emitter.Close()
			<-done
		}
	}
	return consoleSink(), func() {}
}

// eventLine is the JSON shape of one progress event.
type eventLine struct {
	Type    string          `json:"type"`
	File    string          `json:"file,omitempty"`
	Step    string          `json:"step,omitempty"`
	Tool    string          `json:"tool,omitempty"`
	Input   json.RawMessage `json:"input,omitempty"`
	Content string          `json:"content,omitempty"`
	Count   int             `json:"count,omitempty"`
	Total   int             `json:"total,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func jsonEvent(ev events.Event) eventLine {
	line := eventLine{
		Type:    string(ev.Type),
		File:    ev.File,
		Step:    ev.Step,
		Tool:    ev.Tool,
		Input:   ev.Input,
		Content: ev.Content,
		Count:   ev.Count,
		Total:   ev.Total,
	}
	if ev.Err != nil {
		line.Error = ev.Err.Error()
	}
	return line
}

// consoleSink prints run progress to stdout.
func consoleSink() events.Sink {
	return &events.Callbacks{
		OnFileStart: func(file string) {
			fmt.Printf("%s %s\n", color.CyanString("→"), file)
		},
		OnFileComplete: func(file, _ string) {
			fmt.Printf("%s %s\n", color.GreenString("✓"), file)
		},
		OnTriageStart: func(total int) {
			fmt.Printf("Triaging %d files...\n", total)
		},
		OnTriageDone: func(scored int) {
			fmt.Printf("Triage complete: %d files scored\n", scored)
		},
		OnGroupingDone: func(groups int) {
			fmt.Printf("Scheduled %d groups\n", groups)
		},
		OnSymbols: func(file string, done, total int) {
			if file != "" && runVerbose {
				fmt.Printf("  symbols: %s (%d/%d)\n", file, done, total)
			}
		},
		OnStepText: func(_, _, text string) {
			if runVerbose {
				fmt.Print(text)
			}
		},
		OnToolCall: func(tool string, _ json.RawMessage) {
			fmt.Printf("  %s %s\n", color.MagentaString("tool:"), tool)
		},
		OnError: func(file string, err error) {
			fmt.Printf("%s %s: %v\n", color.RedString("✗"), file, err)
		},
	}
}

func printResult(result *models.IterativeResult, elapsed time.Duration) {
	if result.AggregatedOutput != "" {
		fmt.Println()
		fmt.Println(result.AggregatedOutput)
	}

	fmt.Printf("\n%s Processed %d/%d files", color.GreenString("✓"),
		result.FilesProcessed, result.TotalFiles)
	if len(result.SkippedFiles) > 0 {
		fmt.Printf(" (%d skipped)", len(result.SkippedFiles))
	}
	fmt.Printf(" in %s\n", elapsed.Round(100*time.Millisecond))

	if len(result.ModelsUsed) > 0 {
		fmt.Printf("Models: %s\n", strings.Join(result.ModelsUsed, ", "))
	}
	for _, skipped := range result.SkippedFiles {
		fmt.Printf("  skipped %s: %s\n", skipped.Path, skipped.Reason)
	}
}

// printResultJSON emits the full run result as one final JSON line, after
// the event stream.
func printResultJSON(result *models.IterativeResult, elapsed time.Duration) error {
	out := struct {
		*models.IterativeResult
		Elapsed string `json:"elapsed"`
	}{result, elapsed.Round(time.Millisecond).String()}
	return json.NewEncoder(os.Stdout).Encode(out)
}

func pick(flag, configured int) int {
	if flag > 0 {
		return flag
	}
	return configured
}
