package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/danebolt/weft/internal/depgraph"
	"github.com/danebolt/weft/internal/symbols"
	"github.com/danebolt/weft/pkg/models"
)

var graphShowEdges bool

var graphCmd = &cobra.Command{
	Use:   "graph <file>...",
	Short: "Extract and print the dependency graph of the given files",
	Long: `Extract import/export symbols from the given files and print the
resulting dependency graph: entry points, cycles, and the files nothing
depends on. Useful for previewing what mode v4 will see.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().BoolVar(&graphShowEdges, "edges", false, "Print every resolved edge")
}

func runGraph(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	extractor := symbols.NewTreeSitter()

	filesInfo := make(map[string]*models.FileSymbolInfo)
	for _, file := range args {
		if !symbols.Supported(file) {
			fmt.Printf("%s %s: unsupported file type\n", color.YellowString("-"), file)
			continue
		}
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		info, err := extractor.Extract(ctx, content, file)
		if err != nil {
			fmt.Printf("%s %s: %v\n", color.RedString("✗"), file, err)
			continue
		}
		filesInfo[file] = info
	}

	graph := depgraph.Build(filesInfo)
	conn := depgraph.Connectivity(filesInfo, graph)

	fmt.Printf("%d files, %d edges\n\n", len(filesInfo), len(graph.Edges))

	if len(graph.EntryPoints) > 0 {
		fmt.Println(color.New(color.Bold).Sprint("Entry points:"))
		for _, ep := range graph.EntryPoints {
			fmt.Printf("  %s\n", ep)
		}
		fmt.Println()
	}

	if len(graph.Cycles) > 0 {
		fmt.Println(color.New(color.Bold).Sprint("Cycles:"))
		for _, cycle := range graph.Cycles {
			fmt.Printf("  %s\n", color.YellowString(strings.Join(cycle, " ↔ ")))
		}
		fmt.Println()
	}

	if len(graph.Sources) > 0 {
		fmt.Println(color.New(color.Bold).Sprint("Nothing depends on:"))
		for _, src := range graph.Sources {
			fmt.Printf("  %s\n", src)
		}
		fmt.Println()
	}

	fmt.Println(color.New(color.Bold).Sprint("Connectivity:"))
	for _, file := range graph.Sinks {
		fmt.Printf("  %s (imports nothing)\n", file)
	}
	paths := make([]string, 0, len(conn))
	for file := range conn {
		paths = append(paths, file)
	}
	sort.Strings(paths)
	for _, file := range paths {
		fc := conn[file]
		if fc.InDegree == 0 && fc.OutDegree == 0 {
			continue
		}
		marker := ""
		if fc.IsCriticalPath {
			marker = color.RedString(" [critical path]")
		}
		fmt.Printf("  %s: %d dependents, %d dependencies, %d transitive importers%s\n",
			file, fc.InDegree, fc.OutDegree, fc.TransitiveImporters, marker)
	}

	if graphShowEdges && len(graph.Edges) > 0 {
		fmt.Println()
		fmt.Println(color.New(color.Bold).Sprint("Edges:"))
		for _, edge := range graph.Edges {
			fmt.Printf("  %s → %s (%s)\n", edge.From, edge.To, edge.Kind)
		}
	}

	return nil
}
