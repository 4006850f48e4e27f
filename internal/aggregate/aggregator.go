// Package aggregate folds many partial analysis results into one final
// narrative. Synthesis is model-driven but degrades to plain concatenation
// on any failure, so aggregation can lower output quality but never abort
// a run.
package aggregate

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/danebolt/weft/internal/events"
	"github.com/danebolt/weft/internal/provider"
	"github.com/danebolt/weft/internal/router"
)

// DefaultBatchSize bounds how many items go into one synthesis call before
// hierarchical batching kicks in.
const DefaultBatchSize = 15

// Item is one labeled partial result to fold into the synthesis.
type Item struct {
	Label   string
	Content string
}

// Options tune a single Aggregate call.
type Options struct {
	// ProviderContext selects the role-resolution context for the
	// synthesis model.
	ProviderContext string
	// BatchSize overrides DefaultBatchSize when positive.
	BatchSize int
	// Sink receives aggregation progress events; nil discards them.
	Sink events.Sink
}

// Aggregator merges pipeline outputs into a final synthesis.
type Aggregator struct {
	router *router.Router
}

// New returns an Aggregator resolving its synthesis model through rt.
func New(rt *router.Router) *Aggregator {
	return &Aggregator{router: rt}
}

// Aggregate produces a best-effort synthesis of all items. Large item sets
// are split into batches that aggregate independently before one final
// meta-synthesis call combines the batch summaries. The result is never
// empty when items is non-empty.
func (a *Aggregator) Aggregate(ctx context.Context, items []Item, instruction string, opts Options) string {
	if len(items) == 0 {
		return ""
	}
	sink := events.OrNop(opts.Sink)
	sink.Emit(events.Event{Type: events.AggregateBeg, Count: len(items)})

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if len(items) <= batchSize {
		return a.synthesize(ctx, items, instruction, opts.ProviderContext)
	}

	// Hierarchical pass: batches synthesize in parallel, then one
	// meta-synthesis combines the batch summaries.
	batches := splitBatches(items, batchSize)
	summaries := make([]Item, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		g.Go(func() error {
			summary := a.synthesize(gctx, batch, instruction, opts.ProviderContext)
			summaries[i] = Item{
				Label:   fmt.Sprintf("Batch %d (%d items)", i+1, len(batch)),
				Content: summary,
			}
			return nil
		})
	}
	g.Wait() // no goroutine returns an error

	meta := fmt.Sprintf("The sections below are summaries of independent batches. Combine them into one coherent result.\n\n%s", instruction)
	return a.synthesize(ctx, summaries, meta, opts.ProviderContext)
}

// synthesize runs one model-driven synthesis over the items, falling back
// to concatenation when no model is available or the call fails.
func (a *Aggregator) synthesize(ctx context.Context, items []Item, instruction string, providerContext string) string {
	if providerContext == "" {
		providerContext = a.router.DefaultProviderContext()
	}
	resolved, ok := a.router.ResolveRole("capable", providerContext)
	if !ok {
		model, err := a.router.DefaultModel()
		if err != nil {
			return Concat(items)
		}
		resolved, err = a.router.Resolve(model)
		if err != nil {
			return Concat(items)
		}
	}

	prompt := fmt.Sprintf("%s\n\n%s", instruction, Concat(items))
	resp, err := resolved.Provider.Chat(ctx, resolved.Model, provider.UserMessage(prompt))
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		return Concat(items)
	}
	return resp.Content
}

// Concat joins items as labeled markdown sections. This is both the
// synthesis prompt body and the degraded output on model failure.
func Concat(items []Item) string {
	sections := make([]string, 0, len(items))
	for _, item := range items {
		sections = append(sections, fmt.Sprintf("## %s\n\n%s", item.Label, item.Content))
	}
	return strings.Join(sections, "\n\n")
}

func splitBatches(items []Item, size int) [][]Item {
	var batches [][]Item
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
