package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/danebolt/weft/internal/exec"
)

// maxToolOutput caps tool output fed back into the model transcript.
const maxToolOutput = 30000

// executor carries the working directory for one batch of tool calls.
type executor struct {
	workDir string
	runner  exec.CommandRunner
}

type toolOutput struct {
	content string
	isError bool
}

func errOutput(format string, args ...interface{}) toolOutput {
	return toolOutput{content: fmt.Sprintf(format, args...), isError: true}
}

// resolvePath resolves a possibly-relative path against the working directory.
func (e *executor) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.workDir, path)
}

func (e *executor) read(input json.RawMessage) toolOutput {
	var params struct {
		FilePath string `json:"file_path"`
		Offset   int    `json:"offset"`
		Limit    int    `json:"limit"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return errOutput("Invalid parameters: %v", err)
	}

	content, err := os.ReadFile(e.resolvePath(params.FilePath))
	if err != nil {
		return errOutput("Failed to read file: %v", err)
	}

	lines := strings.Split(string(content), "\n")

	start := 0
	if params.Offset > 0 {
		start = params.Offset - 1 // Convert to 0-indexed
		if start >= len(lines) {
			return errOutput("Offset beyond end of file")
		}
	}

	end := len(lines)
	if params.Limit > 0 {
		end = min(start+params.Limit, len(lines))
	}

	// Format with line numbers (cat -n style)
	var result strings.Builder
	for i := start; i < end; i++ {
		fmt.Fprintf(&result, "%6d\t%s\n", i+1, lines[i])
	}

	return toolOutput{content: truncate(result.String())}
}

func (e *executor) listDir(input json.RawMessage) toolOutput {
	var params struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return errOutput("Invalid parameters: %v", err)
	}

	entries, err := os.ReadDir(e.resolvePath(params.Path))
	if err != nil {
		return errOutput("Failed to read directory: %v", err)
	}

	var result strings.Builder
	for _, entry := range entries {
		if entry.IsDir() {
			fmt.Fprintf(&result, "d %s/\n", entry.Name())
			continue
		}
		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(&result, "- %s\n", entry.Name())
			continue
		}
		fmt.Fprintf(&result, "- %s (%d bytes)\n", entry.Name(), info.Size())
	}
	return toolOutput{content: result.String()}
}

func (e *executor) grep(ctx context.Context, input json.RawMessage) toolOutput {
	var params struct {
		Pattern string `json:"pattern"`
		Path    string `json:"path"`
		Glob    string `json:"glob"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return errOutput("Invalid parameters: %v", err)
	}

	re, err := regexp.Compile(params.Pattern)
	if err != nil {
		return errOutput("Invalid pattern: %v", err)
	}

	searchPath := e.workDir
	if params.Path != "" {
		searchPath = e.resolvePath(params.Path)
	}

	var result strings.Builder
	walkErr := filepath.WalkDir(searchPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != searchPath {
				return filepath.SkipDir
			}
			return nil
		}
		if params.Glob != "" {
			if matched, _ := filepath.Match(params.Glob, d.Name()); !matched {
				return nil
			}
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(searchPath, path)
		for i, line := range strings.Split(string(content), "\n") {
			if re.MatchString(line) {
				fmt.Fprintf(&result, "%s:%d:%s\n", rel, i+1, line)
			}
			if result.Len() > maxToolOutput {
				return filepath.SkipAll
			}
		}
		return nil
	})
	if walkErr != nil && walkErr != filepath.SkipAll {
		return errOutput("Search failed: %v", walkErr)
	}

	if result.Len() == 0 {
		return toolOutput{content: "No matches found"}
	}
	return toolOutput{content: truncate(result.String())}
}

func (e *executor) write(input json.RawMessage) toolOutput {
	var params struct {
		FilePath string `json:"file_path"`
		Content  string `json:"content"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return errOutput("Invalid parameters: %v", err)
	}

	path := e.resolvePath(params.FilePath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errOutput("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(params.Content), 0644); err != nil {
		return errOutput("Failed to write file: %v", err)
	}
	return toolOutput{content: fmt.Sprintf("Successfully wrote %d bytes to %s", len(params.Content), params.FilePath)}
}

func (e *executor) runCommand(ctx context.Context, input json.RawMessage) toolOutput {
	var params struct {
		Command string `json:"command"`
		Timeout int    `json:"timeout"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return errOutput("Invalid parameters: %v", err)
	}

	timeout := 120 * time.Second
	if params.Timeout > 0 {
		timeout = time.Duration(params.Timeout) * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output, err := e.runner.RunShell(ctx, e.workDir, params.Command)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errOutput("Command timed out after %v:\n%s", timeout, string(output))
		}
		return errOutput("%s\nError: %v", string(output), err)
	}
	return toolOutput{content: truncate(string(output))}
}

func truncate(s string) string {
	if len(s) > maxToolOutput {
		return s[:maxToolOutput] + "\n... (output truncated)"
	}
	return s
}
