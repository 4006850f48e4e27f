// Package events carries progress notifications out of the orchestration
// core. Strategies and the executor emit tagged events into a single Sink
// instead of taking one optional callback per phase.
package events

import "encoding/json"

// Type tags an event variant.
type Type string

// Event types emitted across a run. All are fire-and-forget; nothing in
// the core waits on a subscriber.
const (
	FileStart     Type = "file_start"
	FileComplete  Type = "file_complete"
	GroupingStart Type = "grouping_start"
	GroupingDone  Type = "grouping_complete"
	TriageStart   Type = "triage_start"
	TriageDone    Type = "triage_complete"
	StepStart     Type = "step_start"
	StepText      Type = "step_text"
	StepComplete  Type = "step_complete"
	AggregateBeg  Type = "aggregation_start"
	ToolCall      Type = "tool_call"
	ToolResult    Type = "tool_result"
	SymbolsStart  Type = "symbolication_start"
	SymbolsFile   Type = "symbolication_progress"
	SymbolsDone   Type = "symbolication_complete"
	ErrorEvent    Type = "error"
)

// Event is one tagged progress notification.
type Event struct {
	Type Type
	// File is the file path for file-scoped events.
	File string
	// Step is the pipeline step name for step-scoped events.
	Step string
	// Tool is the tool name for tool events.
	Tool string
	// Input carries the raw tool input on ToolCall events.
	Input json.RawMessage
	// Content carries text fragments, outputs and summaries.
	Content string
	// Count and Total report progress for enumerable phases.
	Count int
	Total int
	// Err carries the failure on ErrorEvent.
	Err error
}

// Sink receives events. Implementations must not block the caller for long;
// emission never influences control flow.
type Sink interface {
	Emit(Event)
}

// NopSink discards all events.
type NopSink struct{}

// Emit implements Sink.
func (NopSink) Emit(Event) {}

// OrNop returns the sink unchanged, or a NopSink when nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return NopSink{}
	}
	return s
}
