package iterate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danebolt/weft/internal/triage"
)

// readFile reads a file under workDir, enforcing the size cap. Oversized
// files return a skip reason rather than a truncated read: silently feeding
// partial content to a model is worse than skipping.
func readFile(workDir, file string, maxSize int64) (content string, skipReason string, err error) {
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, file)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", "", err
	}
	if info.Size() > maxSize {
		return "", fmt.Sprintf("file too large (%d bytes)", info.Size()), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return string(data), "", nil
}

// sampleFiles reads file heads for the triage pass. Unreadable or oversized
// files still get a sample entry (empty content) so triage covers the whole
// set; the processing phase re-checks and records the real skip reason.
func sampleFiles(ctx context.Context, workDir string, files []string, maxSize int64) []triage.FileSample {
	samples := make([]triage.FileSample, 0, len(files))
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		content, skipReason, err := readFile(workDir, file, maxSize)
		if err != nil || skipReason != "" {
			samples = append(samples, triage.FileSample{Path: file})
			continue
		}
		samples = append(samples, triage.FileSample{Path: file, Content: content})
	}
	return samples
}
