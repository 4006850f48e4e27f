package depgraph

import (
	"sort"

	"github.com/danebolt/weft/pkg/models"
)

// Connectivity derives per-file connectivity metrics from the graph.
// Recompute after any graph change; nothing here is cached.
func Connectivity(files map[string]*models.FileSymbolInfo, graph *models.DependencyGraph) map[string]*models.FileConnectivity {
	dependencies := make(map[string][]string) // file -> files it imports
	dependents := make(map[string][]string)   // file -> files importing it
	for _, edge := range graph.Edges {
		dependencies[edge.From] = append(dependencies[edge.From], edge.To)
		dependents[edge.To] = append(dependents[edge.To], edge.From)
	}
	for file := range dependencies {
		dependencies[file] = dedupeSorted(dependencies[file])
	}
	for file := range dependents {
		dependents[file] = dedupeSorted(dependents[file])
	}

	critical := criticalPathSet(graph.EntryPoints, dependencies)

	out := make(map[string]*models.FileConnectivity, len(files))
	for file := range files {
		out[file] = &models.FileConnectivity{
			InDegree:            len(dependents[file]),
			OutDegree:           len(dependencies[file]),
			TransitiveImporters: countTransitiveImporters(file, dependents),
			IsCriticalPath:      critical[file],
			DirectDependents:    append([]string{}, dependents[file]...),
			DirectDependencies:  append([]string{}, dependencies[file]...),
		}
	}
	return out
}

// countTransitiveImporters walks the importer relation breadth-first from
// the file, excluding the start node itself.
func countTransitiveImporters(start string, dependents map[string][]string) int {
	visited := map[string]bool{start: true}
	queue := append([]string{}, dependents[start]...)
	count := 0
	for len(queue) > 0 {
		file := queue[0]
		queue = queue[1:]
		if visited[file] {
			continue
		}
		visited[file] = true
		count++
		queue = append(queue, dependents[file]...)
	}
	return count
}

// criticalPathSet marks every file reachable from an entry point through
// the dependency relation. Entry points themselves are on the path.
func criticalPathSet(entryPoints []string, dependencies map[string][]string) map[string]bool {
	critical := make(map[string]bool)
	var queue []string
	for _, entry := range entryPoints {
		if !critical[entry] {
			critical[entry] = true
			queue = append(queue, entry)
		}
	}
	for len(queue) > 0 {
		file := queue[0]
		queue = queue[1:]
		for _, dep := range dependencies[file] {
			if !critical[dep] {
				critical[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return critical
}

func dedupeSorted(list []string) []string {
	sort.Strings(list)
	out := list[:0]
	var prev string
	for i, s := range list {
		if i == 0 || s != prev {
			out = append(out, s)
		}
		prev = s
	}
	return out
}
