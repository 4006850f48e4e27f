package depgraph

import (
	"reflect"
	"testing"

	"github.com/danebolt/weft/pkg/models"
)

func fileInfo(imports ...models.ImportRef) *models.FileSymbolInfo {
	return &models.FileSymbolInfo{Imports: imports}
}

func staticImport(module string, symbols ...string) models.ImportRef {
	return models.ImportRef{Module: module, Symbols: symbols, Kind: models.ImportStatic}
}

func TestBuildResolvesImports(t *testing.T) {
	files := map[string]*models.FileSymbolInfo{
		"src/app.ts":         fileInfo(staticImport("./util", "helper"), staticImport("lodash")),
		"src/util.ts":        fileInfo(),
		"src/widgets/btn.ts": fileInfo(staticImport("../util")),
	}

	graph := Build(files)

	if len(graph.Edges) != 2 {
		t.Fatalf("expected 2 edges (external import dropped), got %d: %v", len(graph.Edges), graph.Edges)
	}
	for _, edge := range graph.Edges {
		if edge.To != "src/util.ts" {
			t.Errorf("edge %s -> %s, want target src/util.ts", edge.From, edge.To)
		}
	}
	if got := graph.Resolutions["src/app.ts:./util"]; got != "src/util.ts" {
		t.Errorf("resolution = %q, want src/util.ts", got)
	}
	if _, ok := graph.Resolutions["src/app.ts:lodash"]; ok {
		t.Error("external specifier must not be recorded as resolved")
	}
}

func TestBuildResolvesIndexConvention(t *testing.T) {
	files := map[string]*models.FileSymbolInfo{
		"src/app.ts":          fileInfo(staticImport("./widgets")),
		"src/widgets/index.ts": fileInfo(),
	}

	graph := Build(files)

	if len(graph.Edges) != 1 || graph.Edges[0].To != "src/widgets/index.ts" {
		t.Errorf("expected edge to src/widgets/index.ts, got %v", graph.Edges)
	}
}

func TestBuildSinksAndSources(t *testing.T) {
	files := map[string]*models.FileSymbolInfo{
		"a.ts": fileInfo(staticImport("./b")),
		"b.ts": fileInfo(staticImport("./c")),
		"c.ts": fileInfo(),
	}

	graph := Build(files)

	// Sinks import nothing; sources have no importers.
	if !reflect.DeepEqual(graph.Sinks, []string{"c.ts"}) {
		t.Errorf("sinks = %v, want [c.ts]", graph.Sinks)
	}
	if !reflect.DeepEqual(graph.Sources, []string{"a.ts"}) {
		t.Errorf("sources = %v, want [a.ts]", graph.Sources)
	}
}

func TestBuildMergesDuplicateEdges(t *testing.T) {
	files := map[string]*models.FileSymbolInfo{
		"a.ts": fileInfo(
			models.ImportRef{Module: "./b", Symbols: []string{"x"}, Kind: models.ImportStatic, TypeOnly: true},
			models.ImportRef{Module: "./b", Symbols: []string{"y"}, Kind: models.ImportStatic},
		),
		"b.ts": fileInfo(),
	}

	graph := Build(files)

	if len(graph.Edges) != 1 {
		t.Fatalf("expected merged edge, got %d", len(graph.Edges))
	}
	edge := graph.Edges[0]
	if len(edge.Symbols) != 2 {
		t.Errorf("symbols = %v, want both x and y", edge.Symbols)
	}
	if edge.TypeOnly {
		t.Error("edge with one non-type-only import must not be type-only")
	}
}

func TestDetectEntryPoints(t *testing.T) {
	files := map[string]*models.FileSymbolInfo{
		"src/index.ts":           fileInfo(staticImport("./deep/nested/impl")),
		"src/deep/nested/impl.ts": fileInfo(),
		"tools/gen.ts":           fileInfo(),
	}

	graph := Build(files)

	want := map[string]bool{"src/index.ts": true, "tools/gen.ts": true}
	if len(graph.EntryPoints) != len(want) {
		t.Fatalf("entry points = %v", graph.EntryPoints)
	}
	for _, ep := range graph.EntryPoints {
		if !want[ep] {
			t.Errorf("unexpected entry point %q", ep)
		}
	}
}

func TestFindCycles(t *testing.T) {
	files := map[string]*models.FileSymbolInfo{
		"a.ts": fileInfo(staticImport("./b")),
		"b.ts": fileInfo(staticImport("./c")),
		"c.ts": fileInfo(staticImport("./a")),
		"d.ts": fileInfo(staticImport("./a")),
	}

	graph := Build(files)

	if len(graph.Cycles) != 1 {
		t.Fatalf("expected exactly one cycle, got %v", graph.Cycles)
	}
	if !reflect.DeepEqual(graph.Cycles[0], []string{"a.ts", "b.ts", "c.ts"}) {
		t.Errorf("cycle = %v, want [a.ts b.ts c.ts]", graph.Cycles[0])
	}
	if graph.InCycle("d.ts") {
		t.Error("d.ts is not a cycle member")
	}
	if !graph.InCycle("b.ts") {
		t.Error("b.ts is a cycle member")
	}
}

func TestFindCyclesAcyclic(t *testing.T) {
	files := map[string]*models.FileSymbolInfo{
		"a.ts": fileInfo(staticImport("./b")),
		"b.ts": fileInfo(),
	}

	graph := Build(files)

	if len(graph.Cycles) != 0 {
		t.Errorf("acyclic graph must report no cycles, got %v", graph.Cycles)
	}
}

func TestSelfImportIsNotACycle(t *testing.T) {
	files := map[string]*models.FileSymbolInfo{
		"a.ts": fileInfo(staticImport("./a")),
	}

	graph := Build(files)

	// Single-node components are filtered; only size > 1 counts.
	if len(graph.Cycles) != 0 {
		t.Errorf("self-import must not count as a cycle, got %v", graph.Cycles)
	}
}
