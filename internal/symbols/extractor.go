// Package symbols extracts imports, exports and top-level declarations
// from JavaScript and TypeScript sources. The output feeds the dependency
// graph builder.
package symbols

import (
	"context"
	"path"
	"strings"

	"github.com/danebolt/weft/pkg/models"
)

// Extractor produces symbol information for one source file.
type Extractor interface {
	Extract(ctx context.Context, content []byte, filePath string) (*models.FileSymbolInfo, error)
}

// supportedExtensions are the file extensions the tree-sitter extractor
// handles.
var supportedExtensions = map[string]bool{
	".ts":  true,
	".tsx": true,
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
}

// Supported reports whether the extractor can handle the given file path.
func Supported(filePath string) bool {
	return supportedExtensions[strings.ToLower(path.Ext(filePath))]
}
