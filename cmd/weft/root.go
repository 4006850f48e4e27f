package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "Pipeline-driven codebase analysis",
	Long: `Weft runs configurable analysis pipelines across a codebase using
AI model providers.

Commands are routed to models or multi-step pipelines via configuration.
File sets are processed with one of four strategies:
  v1: sequential with batched aggregation
  v2: grouped by directory, processed in parallel
  v3: triage-adaptive (critical files get deeper, tool-enabled analysis)
  v4: symbolication-enhanced (dependency-ordered processing with
      connectivity-boosted triage)`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}
