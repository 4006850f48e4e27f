package models

import "time"

// SkippedFile records a file that an iterative run did not analyze.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// RunTiming records per-phase durations of an iterative run.
type RunTiming struct {
	Triage        time.Duration `json:"triage,omitempty"`
	Symbolication time.Duration `json:"symbolication,omitempty"`
	Processing    time.Duration `json:"processing"`
	Aggregation   time.Duration `json:"aggregation"`
	Total         time.Duration `json:"total"`
}

// IterativeResult is the aggregate outcome of a whole iterative run.
type IterativeResult struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`
	// FileResults maps file path to that file's pipeline result.
	// A failed or skipped file has no entry here.
	FileResults map[string]*PipelineResult `json:"file_results"`
	// AggregatedOutput is the final synthesized narrative, if aggregation ran.
	AggregatedOutput string `json:"aggregated_output,omitempty"`
	// FilesProcessed counts files that produced a result.
	FilesProcessed int `json:"files_processed"`
	// TotalFiles is the size of the requested file set.
	TotalFiles int `json:"total_files"`
	// ModelsUsed lists the distinct models invoked across all files.
	ModelsUsed []string `json:"models_used"`
	// SkippedFiles lists files not analyzed, with reasons.
	SkippedFiles []SkippedFile `json:"skipped_files,omitempty"`
	// Groups holds the file partition used by grouped strategies.
	Groups []FileGroup `json:"groups,omitempty"`
	// GroupSummaries maps group name to its independent aggregation.
	GroupSummaries map[string]string `json:"group_summaries,omitempty"`
	// Triage holds the triage pass result for adaptive strategies.
	Triage *TriageResult `json:"triage,omitempty"`
	// Timing records per-phase durations.
	Timing *RunTiming `json:"timing,omitempty"`
}
