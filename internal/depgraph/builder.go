// Package depgraph builds and analyzes the import/export graph of a
// codebase from symbol-extraction output. Pure graph algorithms; no model
// calls and no dependency on other core components.
package depgraph

import (
	"path"
	"sort"
	"strings"

	"github.com/danebolt/weft/pkg/models"
)

// resolveExtensions are tried, in order, when an import specifier does not
// name an indexed file directly.
var resolveExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// entryPointNames are base names (before extension) that mark a file as a
// likely program entry.
var entryPointNames = map[string]bool{
	"index":  true,
	"main":   true,
	"app":    true,
	"server": true,
	"cli":    true,
}

// entryPointMaxDepth is the directory depth at or below which a file with
// no importers also counts as an entry point.
const entryPointMaxDepth = 2

// Build resolves every import and re-export of the given file set into a
// dependency graph. Specifiers that do not resolve to an indexed file
// (external packages, unmatched paths) are dropped, never errors, so every
// edge endpoint is a key of the file set.
func Build(files map[string]*models.FileSymbolInfo) *models.DependencyGraph {
	graph := &models.DependencyGraph{
		Resolutions: make(map[string]string),
	}

	type edgeKey struct {
		from, to string
		kind     models.ImportKind
	}
	edges := make(map[edgeKey]*models.DependencyEdge)

	for from, info := range files {
		for _, imp := range info.Imports {
			to, ok := resolve(from, imp.Module, files)
			if !ok {
				continue
			}
			graph.Resolutions[from+":"+imp.Module] = to

			key := edgeKey{from: from, to: to, kind: imp.Kind}
			if existing, seen := edges[key]; seen {
				existing.Symbols = mergeSymbols(existing.Symbols, imp.Symbols)
				existing.TypeOnly = existing.TypeOnly && imp.TypeOnly
				continue
			}
			edge := &models.DependencyEdge{
				From:     from,
				To:       to,
				Kind:     imp.Kind,
				Symbols:  append([]string{}, imp.Symbols...),
				TypeOnly: imp.TypeOnly,
			}
			edges[key] = edge
		}
	}

	inDegree := make(map[string]int)
	outDegree := make(map[string]int)
	for _, edge := range edges {
		graph.Edges = append(graph.Edges, *edge)
		outDegree[edge.From]++
		inDegree[edge.To]++
	}
	sort.Slice(graph.Edges, func(i, j int) bool {
		a, b := graph.Edges[i], graph.Edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})

	for file := range files {
		if outDegree[file] == 0 {
			graph.Sinks = append(graph.Sinks, file)
		}
		if inDegree[file] == 0 {
			graph.Sources = append(graph.Sources, file)
		}
	}
	sort.Strings(graph.Sinks)
	sort.Strings(graph.Sources)

	graph.EntryPoints = detectEntryPoints(files, inDegree)
	graph.Cycles = findCycles(files, graph.Edges)

	return graph
}

// resolve maps an import specifier to an indexed file. Tries the specifier
// directly, relative to the importing file for ./ and ../ paths, relative
// to the project root otherwise, then with the known extensions and index
// file conventions.
func resolve(from, specifier string, files map[string]*models.FileSymbolInfo) (string, bool) {
	var base string
	if strings.HasPrefix(specifier, ".") {
		base = path.Clean(path.Join(path.Dir(from), specifier))
	} else {
		base = path.Clean(specifier)
	}

	candidates := []string{base}
	for _, ext := range resolveExtensions {
		candidates = append(candidates, base+ext)
	}
	for _, ext := range resolveExtensions {
		candidates = append(candidates, path.Join(base, "index"+ext))
	}

	for _, candidate := range candidates {
		if _, ok := files[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

// detectEntryPoints returns likely program entries: files whose base name
// matches the allowlist, plus shallow files nothing depends on.
// Deduplicated and sorted shallowest-first.
func detectEntryPoints(files map[string]*models.FileSymbolInfo, inDegree map[string]int) []string {
	seen := make(map[string]bool)
	var entries []string

	add := func(file string) {
		if !seen[file] {
			seen[file] = true
			entries = append(entries, file)
		}
	}

	for file := range files {
		name := path.Base(file)
		if ext := path.Ext(name); ext != "" {
			name = strings.TrimSuffix(name, ext)
		}
		if entryPointNames[name] {
			add(file)
		}
	}

	for file := range files {
		if inDegree[file] == 0 && pathDepth(file) <= entryPointMaxDepth {
			add(file)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		di, dj := pathDepth(entries[i]), pathDepth(entries[j])
		if di != dj {
			return di < dj
		}
		return entries[i] < entries[j]
	})
	return entries
}

// pathDepth counts the path segments of a slash-separated relative path.
func pathDepth(file string) int {
	return strings.Count(path.Clean(file), "/") + 1
}

func mergeSymbols(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[s] = true
	}
	for _, s := range extra {
		if !seen[s] {
			seen[s] = true
			existing = append(existing, s)
		}
	}
	return existing
}
