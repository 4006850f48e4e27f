package events

import "encoding/json"

// Callbacks adapts the tagged event stream back to the named-callback
// surface CLI callers expect. Every field is optional.
type Callbacks struct {
	OnFileStart     func(file string)
	OnFileComplete  func(file string, output string)
	OnGroupingStart func(total int)
	OnGroupingDone  func(groups int)
	OnTriageStart   func(total int)
	OnTriageDone    func(scored int)
	OnStepStart     func(file, step string)
	OnStepText      func(file, step, text string)
	OnStepComplete  func(file, step, output string)
	OnAggregation   func(label string, inputs int)
	OnToolCall      func(tool string, input json.RawMessage)
	OnToolResult    func(tool string, content string, isError bool)
	OnSymbols       func(file string, done, total int)
	OnError         func(file string, err error)
}

// Emit implements Sink by dispatching to whichever callback is set.
func (c *Callbacks) Emit(ev Event) {
	switch ev.Type {
	case FileStart:
		if c.OnFileStart != nil {
			c.OnFileStart(ev.File)
		}
	case FileComplete:
		if c.OnFileComplete != nil {
			c.OnFileComplete(ev.File, ev.Content)
		}
	case GroupingStart:
		if c.OnGroupingStart != nil {
			c.OnGroupingStart(ev.Total)
		}
	case GroupingDone:
		if c.OnGroupingDone != nil {
			c.OnGroupingDone(ev.Count)
		}
	case TriageStart:
		if c.OnTriageStart != nil {
			c.OnTriageStart(ev.Total)
		}
	case TriageDone:
		if c.OnTriageDone != nil {
			c.OnTriageDone(ev.Count)
		}
	case StepStart:
		if c.OnStepStart != nil {
			c.OnStepStart(ev.File, ev.Step)
		}
	case StepText:
		if c.OnStepText != nil {
			c.OnStepText(ev.File, ev.Step, ev.Content)
		}
	case StepComplete:
		if c.OnStepComplete != nil {
			c.OnStepComplete(ev.File, ev.Step, ev.Content)
		}
	case AggregateBeg:
		if c.OnAggregation != nil {
			c.OnAggregation(ev.Content, ev.Count)
		}
	case ToolCall:
		if c.OnToolCall != nil {
			c.OnToolCall(ev.Tool, ev.Input)
		}
	case ToolResult:
		if c.OnToolResult != nil {
			c.OnToolResult(ev.Tool, ev.Content, ev.Err != nil)
		}
	case SymbolsStart, SymbolsFile, SymbolsDone:
		if c.OnSymbols != nil {
			c.OnSymbols(ev.File, ev.Count, ev.Total)
		}
	case ErrorEvent:
		if c.OnError != nil {
			c.OnError(ev.File, ev.Err)
		}
	}
}
