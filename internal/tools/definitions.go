package tools

import "github.com/danebolt/weft/internal/provider"

// builtinDefinitions returns the tool schemas offered to agentic steps.
func builtinDefinitions() []provider.ToolDefinition {
	return []provider.ToolDefinition{
		{
			Name:        "Read",
			Description: "Read a file from the working directory. Returns file contents with line numbers.",
			InputSchema: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the file, relative to the working directory",
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "Line number to start reading from (1-indexed, optional)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of lines to read (optional)",
				},
			},
			Required: []string{"file_path"},
		},
		{
			Name:        "ListDir",
			Description: "List the entries of a directory.",
			InputSchema: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Directory path, relative to the working directory",
				},
			},
			Required: []string{"path"},
		},
		{
			Name:        "Grep",
			Description: "Search file contents with a regular expression. Returns matching lines with line numbers.",
			InputSchema: map[string]interface{}{
				"pattern": map[string]interface{}{
					"type":        "string",
					"description": "Regular expression to search for",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "File or directory to search (optional, defaults to the working directory)",
				},
				"glob": map[string]interface{}{
					"type":        "string",
					"description": "Glob filter on file names, e.g. *.ts (optional)",
				},
			},
			Required: []string{"pattern"},
		},
		{
			Name:        "Write",
			Description: "Write content to a file. Creates parent directories if needed.",
			InputSchema: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the file, relative to the working directory",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Content to write to the file",
				},
			},
			Required:             []string{"file_path", "content"},
			RequiresConfirmation: true,
		},
		{
			Name:        "RunCommand",
			Description: "Run a shell command in the working directory and return its combined output.",
			InputSchema: map[string]interface{}{
				"command": map[string]interface{}{
					"type":        "string",
					"description": "Shell command to execute",
				},
				"timeout": map[string]interface{}{
					"type":        "integer",
					"description": "Timeout in milliseconds (optional, default 2 minutes)",
				},
			},
			Required:             []string{"command"},
			RequiresConfirmation: true,
		},
	}
}
