package models

// ImportKind classifies how a module reference enters a file.
type ImportKind string

const (
	// ImportStatic is a plain import statement.
	ImportStatic ImportKind = "import"
	// ImportDynamic is a runtime import() call.
	ImportDynamic ImportKind = "dynamic-import"
	// ImportReExport is an export-from statement.
	ImportReExport ImportKind = "re-export"
)

// ImportRef is one module reference extracted from a source file.
type ImportRef struct {
	// Module is the specifier as written in the source (e.g. "./util").
	Module string `json:"module"`
	// Symbols are the named bindings imported, if any.
	Symbols []string `json:"symbols,omitempty"`
	// Kind distinguishes static imports, dynamic imports and re-exports.
	Kind ImportKind `json:"kind"`
	// TypeOnly marks type-only imports, which carry no runtime dependency.
	TypeOnly bool `json:"type_only,omitempty"`
}

// ExportRef is one exported binding of a source file.
type ExportRef struct {
	Name string `json:"name"`
	// Kind is the declaration kind (function, class, const, type, default).
	Kind string `json:"kind,omitempty"`
}

// SymbolInfo is one top-level declaration in a source file.
type SymbolInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Line int    `json:"line"`
}

// FileSymbolInfo is the symbol-extraction output for one file.
type FileSymbolInfo struct {
	Path    string       `json:"path"`
	Imports []ImportRef  `json:"imports"`
	Exports []ExportRef  `json:"exports"`
	Symbols []SymbolInfo `json:"symbols"`
}

// DependencyEdge is a directed dependency between two indexed files.
// One edge exists per observed (From, To, Kind) triple.
type DependencyEdge struct {
	// From is the importing file.
	From string `json:"from"`
	// To is the imported file. Always a key of the indexed file set;
	// references outside the set are dropped during resolution.
	To string `json:"to"`
	// Kind is the reference kind that produced the edge.
	Kind ImportKind `json:"kind"`
	// Symbols are the named bindings carried by the edge.
	Symbols []string `json:"symbols,omitempty"`
	// TypeOnly marks edges that exist only in the type system.
	TypeOnly bool `json:"type_only,omitempty"`
}

// DependencyGraph is the resolved import/export graph of a file set.
//
// Naming note: some dependency tooling calls the Sinks list "roots" and the
// Sources list "leaves". The field names here follow edge direction instead;
// the semantics are identical and downstream tiering relies on them.
type DependencyGraph struct {
	// Edges are all resolved dependencies.
	Edges []DependencyEdge `json:"edges"`
	// Sinks are files with no outgoing edges: they import nothing in the set.
	Sinks []string `json:"sinks"`
	// Sources are files with no incoming edges: nothing in the set depends
	// on them.
	Sources []string `json:"sources"`
	// Cycles holds the non-trivial strongly connected components (size > 1).
	Cycles [][]string `json:"cycles"`
	// EntryPoints are likely program entries, sorted shallowest-first.
	EntryPoints []string `json:"entry_points"`
	// Resolutions maps raw import specifiers to the file they resolved to.
	Resolutions map[string]string `json:"resolutions"`
}

// InCycle reports whether the file is a member of any detected cycle.
func (g *DependencyGraph) InCycle(file string) bool {
	for _, cycle := range g.Cycles {
		for _, member := range cycle {
			if member == file {
				return true
			}
		}
	}
	return false
}

// FileConnectivity summarizes one file's position in the dependency graph.
// Derived entirely from the graph; recomputed whenever the graph changes.
type FileConnectivity struct {
	// InDegree is the number of files that import this file directly.
	InDegree int `json:"in_degree"`
	// OutDegree is the number of files this file imports directly.
	OutDegree int `json:"out_degree"`
	// TransitiveImporters counts every file that reaches this one through
	// the importer relation, excluding the file itself.
	TransitiveImporters int `json:"transitive_importers"`
	// IsCriticalPath is true when the file is reachable from an entry point
	// through the dependency relation.
	IsCriticalPath bool `json:"is_critical_path"`
	// DirectDependents are the files importing this file.
	DirectDependents []string `json:"direct_dependents"`
	// DirectDependencies are the files this file imports.
	DirectDependencies []string `json:"direct_dependencies"`
}
