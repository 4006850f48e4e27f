// Package exec is the seam between tool execution and the host shell.
// The RunCommand tool and anything else that shells out goes through
// CommandRunner so tests can substitute a fake.
package exec

import (
	"context"
)

// CommandRunner runs external commands rooted in a working directory.
type CommandRunner interface {
	// Run executes a command and returns combined stdout/stderr.
	// workDir is used as the command's directory when non-empty.
	Run(ctx context.Context, workDir string, name string, args ...string) (output []byte, err error)

	// RunShell executes a command line through "sh -c".
	RunShell(ctx context.Context, workDir string, command string) (output []byte, err error)

	// Exists reports whether a path exists relative to workDir.
	Exists(ctx context.Context, workDir string, path string) bool
}
