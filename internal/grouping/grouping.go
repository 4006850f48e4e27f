// Package grouping partitions a file set into groups for the
// grouped-parallel strategy. Files are grouped by directory hierarchy.
package grouping

import (
	"fmt"
	"path"
	"sort"

	"github.com/danebolt/weft/pkg/models"
)

// Options tune GroupFiles.
type Options struct {
	// Depth is how many leading path segments form a group key (default 1).
	Depth int
	// MaxGroupSize splits oversized groups (0 = no splitting).
	MaxGroupSize int
}

// GroupFiles partitions files by their leading directory segments.
// Root-level files land in a "(root)" group. Group order is deterministic
// (sorted by name) and every input file appears in exactly one group.
func GroupFiles(files []string, opts Options) []models.FileGroup {
	depth := opts.Depth
	if depth <= 0 {
		depth = 1
	}

	byKey := make(map[string][]string)
	for _, file := range files {
		byKey[groupKey(file, depth)] = append(byKey[groupKey(file, depth)], file)
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var groups []models.FileGroup
	for _, key := range keys {
		members := byKey[key]
		if opts.MaxGroupSize > 0 && len(members) > opts.MaxGroupSize {
			for i, part := range split(members, opts.MaxGroupSize) {
				groups = append(groups, models.FileGroup{
					Name:        fmt.Sprintf("%s #%d", key, i+1),
					Files:       part,
					Description: fmt.Sprintf("files under %s (part %d)", key, i+1),
				})
			}
			continue
		}
		groups = append(groups, models.FileGroup{
			Name:        key,
			Files:       members,
			Description: fmt.Sprintf("files under %s", key),
		})
	}
	return groups
}

// groupKey returns the leading path segments of a file, or "(root)" for
// files with no directory.
func groupKey(file string, depth int) string {
	dir := path.Dir(path.Clean(file))
	if dir == "." || dir == "/" {
		return "(root)"
	}
	segments := splitPath(dir)
	if len(segments) > depth {
		segments = segments[:depth]
	}
	return path.Join(segments...)
}

func splitPath(dir string) []string {
	var segments []string
	for dir != "." && dir != "/" && dir != "" {
		segments = append([]string{path.Base(dir)}, segments...)
		dir = path.Dir(dir)
	}
	return segments
}

func split(list []string, size int) [][]string {
	var parts [][]string
	for len(list) > size {
		parts = append(parts, list[:size])
		list = list[size:]
	}
	if len(list) > 0 {
		parts = append(parts, list)
	}
	return parts
}
