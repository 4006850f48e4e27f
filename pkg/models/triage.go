package models

// FileScore is the triage assessment of a single file.
// Risk, Complexity, Importance and Priority are on a 1-10 scale.
type FileScore struct {
	// File is the scored file path.
	File string `json:"file"`
	// Risk estimates the likelihood of defects in the file.
	Risk int `json:"risk"`
	// Complexity estimates how hard the file is to analyze.
	Complexity int `json:"complexity"`
	// Importance estimates how central the file is to the codebase.
	Importance int `json:"importance"`
	// Priority drives bucketing and processing order.
	Priority int `json:"priority"`
	// SuggestedModel optionally names a model for this file's analysis.
	SuggestedModel string `json:"suggested_model,omitempty"`
	// Reasoning is the triage model's short justification.
	Reasoning string `json:"reasoning,omitempty"`
}

// Priority thresholds used when bucketing scored files.
const (
	// PriorityCritical and above routes a file to the critical bucket.
	PriorityCritical = 6
	// PrioritySkip and below routes a file to the skip bucket.
	PrioritySkip = 3
)

// TriageResult is the outcome of a fast triage pass over a file set.
// Every scored file appears in exactly one of the three path buckets.
type TriageResult struct {
	// Scores holds one entry per triaged file, sorted by descending priority.
	Scores []FileScore `json:"scores"`
	// CriticalPaths are files needing the deepest analysis.
	CriticalPaths []string `json:"critical_paths"`
	// NormalPaths are files processed at standard depth.
	NormalPaths []string `json:"normal_paths"`
	// SkipPaths are files that still get a pass, just a cheap one.
	SkipPaths []string `json:"skip_paths"`
	// Summary is the triage model's narrative overview.
	Summary string `json:"summary,omitempty"`
}

// Score returns the FileScore for the given file, or nil if absent.
func (tr *TriageResult) Score(file string) *FileScore {
	for i := range tr.Scores {
		if tr.Scores[i].File == file {
			return &tr.Scores[i]
		}
	}
	return nil
}

// Rebucket rebuilds the three path buckets from the current scores using
// the fixed priority thresholds. Bucket order follows score order.
func (tr *TriageResult) Rebucket() {
	tr.CriticalPaths = tr.CriticalPaths[:0]
	tr.NormalPaths = tr.NormalPaths[:0]
	tr.SkipPaths = tr.SkipPaths[:0]
	for _, s := range tr.Scores {
		switch {
		case s.Priority >= PriorityCritical:
			tr.CriticalPaths = append(tr.CriticalPaths, s.File)
		case s.Priority <= PrioritySkip:
			tr.SkipPaths = append(tr.SkipPaths, s.File)
		default:
			tr.NormalPaths = append(tr.NormalPaths, s.File)
		}
	}
}

// Clone returns a deep copy of the triage result. Connectivity-based
// re-scoring operates on a copy so the original pass stays intact.
func (tr *TriageResult) Clone() *TriageResult {
	out := &TriageResult{
		Scores:        append([]FileScore{}, tr.Scores...),
		CriticalPaths: append([]string{}, tr.CriticalPaths...),
		NormalPaths:   append([]string{}, tr.NormalPaths...),
		SkipPaths:     append([]string{}, tr.SkipPaths...),
		Summary:       tr.Summary,
	}
	return out
}
