package symbols

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/danebolt/weft/pkg/models"
)

// TreeSitter is an Extractor backed by tree-sitter grammars.
// Safe for concurrent use: each Extract call creates its own parser.
type TreeSitter struct{}

// NewTreeSitter creates a tree-sitter backed extractor.
func NewTreeSitter() *TreeSitter {
	return &TreeSitter{}
}

// Extract implements Extractor.
func (t *TreeSitter) Extract(ctx context.Context, content []byte, filePath string) (*models.FileSymbolInfo, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(languageFor(filePath))

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	defer tree.Close()

	info := &models.FileSymbolInfo{Path: filePath}
	root := tree.RootNode()
	if root == nil {
		return info, nil
	}

	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "import_statement":
			if imp, ok := readImport(child, content); ok {
				info.Imports = append(info.Imports, imp)
			}
		case "export_statement":
			readExport(child, content, info)
		default:
			if sym, ok := readDeclaration(child, content); ok {
				info.Symbols = append(info.Symbols, sym)
			}
		}
	}

	// Dynamic import() calls can appear anywhere in the file.
	collectDynamicImports(root, content, info)

	return info, nil
}

// languageFor picks the grammar by file extension. TSX needs its own
// grammar; plain TypeScript rejects JSX syntax.
func languageFor(filePath string) *sitter.Language {
	lower := strings.ToLower(filePath)
	switch {
	case strings.HasSuffix(lower, ".tsx"):
		return tsx.GetLanguage()
	case strings.HasSuffix(lower, ".ts"):
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// readImport decodes an import_statement node.
func readImport(node *sitter.Node, content []byte) (models.ImportRef, bool) {
	imp := models.ImportRef{Kind: models.ImportStatic}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type":
			imp.TypeOnly = true
		case "import_clause":
			imp.Symbols = readImportClause(child, content)
		case "string":
			imp.Module = stringContent(child, content)
		}
	}

	return imp, imp.Module != ""
}

// readImportClause collects the bound names of an import clause: default
// imports, namespace imports and named import lists.
func readImportClause(node *sitter.Node, content []byte) []string {
	var names []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			names = append(names, nodeText(child, content))
		case "namespace_import":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				if gc.Type() == "identifier" {
					names = append(names, nodeText(gc, content))
				}
			}
		case "named_imports":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				if gc.Type() == "import_specifier" {
					if name := firstIdentifier(gc, content); name != "" {
						names = append(names, name)
					}
				}
			}
		}
	}
	return names
}

// readExport decodes an export_statement. A statement with a source string
// is a re-export and produces an import reference as well as exports.
func readExport(node *sitter.Node, content []byte, info *models.FileSymbolInfo) {
	var source string
	var names []string
	typeOnly := false

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type":
			typeOnly = true
		case "string":
			source = stringContent(child, content)
		case "export_clause":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				if gc.Type() == "export_specifier" {
					if name := firstIdentifier(gc, content); name != "" {
						names = append(names, name)
					}
				}
			}
		default:
			if sym, ok := readDeclaration(child, content); ok {
				info.Symbols = append(info.Symbols, sym)
				info.Exports = append(info.Exports, models.ExportRef{Name: sym.Name, Kind: sym.Kind})
			}
		}
	}

	if source != "" {
		info.Imports = append(info.Imports, models.ImportRef{
			Module:   source,
			Symbols:  names,
			Kind:     models.ImportReExport,
			TypeOnly: typeOnly,
		})
	}
	for _, name := range names {
		info.Exports = append(info.Exports, models.ExportRef{Name: name})
	}
}

// readDeclaration turns a top-level declaration node into a symbol.
func readDeclaration(node *sitter.Node, content []byte) (models.SymbolInfo, bool) {
	var kind string
	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		kind = "function"
	case "class_declaration", "abstract_class_declaration":
		kind = "class"
	case "interface_declaration":
		kind = "interface"
	case "type_alias_declaration":
		kind = "type"
	case "enum_declaration":
		kind = "enum"
	case "lexical_declaration", "variable_declaration":
		return readVariableDeclaration(node, content)
	default:
		return models.SymbolInfo{}, false
	}

	name := node.ChildByFieldName("name")
	if name == nil {
		return models.SymbolInfo{}, false
	}
	return models.SymbolInfo{
		Name: nodeText(name, content),
		Kind: kind,
		Line: int(node.StartPoint().Row) + 1,
	}, true
}

// readVariableDeclaration extracts the first declarator name of a
// top-level const/let/var statement.
func readVariableDeclaration(node *sitter.Node, content []byte) (models.SymbolInfo, bool) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		name := child.ChildByFieldName("name")
		if name == nil {
			continue
		}
		return models.SymbolInfo{
			Name: nodeText(name, content),
			Kind: "variable",
			Line: int(node.StartPoint().Row) + 1,
		}, true
	}
	return models.SymbolInfo{}, false
}

// collectDynamicImports walks the whole tree for import() calls.
func collectDynamicImports(node *sitter.Node, content []byte, info *models.FileSymbolInfo) {
	if node.Type() == "call_expression" {
		fn := node.ChildByFieldName("function")
		if fn != nil && fn.Type() == "import" {
			args := node.ChildByFieldName("arguments")
			if args != nil {
				for i := 0; i < int(args.ChildCount()); i++ {
					arg := args.Child(i)
					if arg.Type() == "string" {
						info.Imports = append(info.Imports, models.ImportRef{
							Module: stringContent(arg, content),
							Kind:   models.ImportDynamic,
						})
						break
					}
				}
			}
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectDynamicImports(node.Child(i), content, info)
	}
}

// firstIdentifier returns the text of the node's first identifier child,
// or the empty string when there is none.
func firstIdentifier(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" {
			return nodeText(child, content)
		}
	}
	return ""
}

func nodeText(node *sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}

// stringContent extracts the value of a string literal node.
func stringContent(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "string_fragment" {
			return nodeText(child, content)
		}
	}
	return strings.Trim(nodeText(node, content), `"'`)
}
