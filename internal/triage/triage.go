// Package triage runs the fast pre-pass that scores files by risk,
// complexity and importance, driving the adaptive depth of later analysis.
// Scoring is model-driven with a heuristic fallback when the model output
// cannot be parsed.
package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/danebolt/weft/internal/events"
	"github.com/danebolt/weft/internal/provider"
	"github.com/danebolt/weft/internal/router"
	"github.com/danebolt/weft/pkg/models"
)

// sampleLimit bounds how much of each file is shown to the triage model.
const sampleLimit = 1200

// FileSample pairs a path with (possibly truncated) content for scoring.
type FileSample struct {
	Path    string
	Content string
}

// Options tune TriageFiles.
type Options struct {
	// ProviderContext selects the role-resolution context for the fast model.
	ProviderContext string
	// Sink receives triage progress events; nil discards them.
	Sink events.Sink
}

// response is the JSON shape requested from the triage model.
type response struct {
	Summary string             `json:"summary"`
	Scores  []models.FileScore `json:"scores"`
}

// TriageFiles scores every sample and buckets the paths into
// critical/normal/skip. Every input file appears in exactly one bucket.
// A model failure degrades to heuristic scoring, never an error.
func TriageFiles(ctx context.Context, samples []FileSample, rt *router.Router, opts Options) (*models.TriageResult, error) {
	sink := events.OrNop(opts.Sink)
	sink.Emit(events.Event{Type: events.TriageStart, Total: len(samples)})

	result := &models.TriageResult{}

	parsed := modelScores(ctx, samples, rt, opts.ProviderContext)
	if parsed != nil {
		result.Summary = parsed.Summary
	}

	// Index whatever the model returned; fill gaps heuristically so the
	// buckets always cover the full file set.
	byFile := make(map[string]models.FileScore)
	if parsed != nil {
		for _, score := range parsed.Scores {
			byFile[score.File] = score
		}
	}
	for _, sample := range samples {
		score, ok := byFile[sample.Path]
		if !ok {
			score = heuristicScore(sample)
		}
		score.File = sample.Path
		clampScore(&score)
		result.Scores = append(result.Scores, score)
	}

	sort.SliceStable(result.Scores, func(i, j int) bool {
		return result.Scores[i].Priority > result.Scores[j].Priority
	})
	result.Rebucket()

	if result.Summary == "" {
		result.Summary = fmt.Sprintf("Heuristic triage of %d files: %d critical, %d normal, %d skip.",
			len(result.Scores), len(result.CriticalPaths), len(result.NormalPaths), len(result.SkipPaths))
	}

	sink.Emit(events.Event{Type: events.TriageDone, Count: len(result.Scores)})
	return result, nil
}

// modelScores asks the fast model for scores. Returns nil on any failure.
func modelScores(ctx context.Context, samples []FileSample, rt *router.Router, providerContext string) *response {
	if providerContext == "" {
		providerContext = rt.DefaultProviderContext()
	}
	resolved, ok := rt.ResolveRole("fast", providerContext)
	if !ok {
		model, err := rt.DefaultModel()
		if err != nil {
			return nil
		}
		resolved, err = rt.Resolve(model)
		if err != nil {
			return nil
		}
	}

	prompt := buildPrompt(samples)
	resp, err := resolved.Provider.Chat(ctx, resolved.Model, provider.UserMessage(prompt))
	if err != nil {
		return nil
	}
	return parseResponse(resp.Content)
}

func buildPrompt(samples []FileSample) string {
	var b strings.Builder
	b.WriteString("You are triaging a codebase for analysis. Score each file below on a 1-10 scale for risk (likelihood of defects), complexity, and importance (how central it is), and assign an overall priority (1-10).\n")
	b.WriteString("Respond with JSON only, in the shape {\"summary\": \"...\", \"scores\": [{\"file\": \"...\", \"risk\": N, \"complexity\": N, \"importance\": N, \"priority\": N, \"suggested_model\": \"\", \"reasoning\": \"...\"}]}.\n\n")
	for _, sample := range samples {
		content := sample.Content
		if len(content) > sampleLimit {
			content = truncateToRune(content, sampleLimit) + "\n... (truncated)"
		}
		fmt.Fprintf(&b, "### %s\n```\n%s\n```\n\n", sample.Path, content)
	}
	return b.String()
}

// truncateToRune shortens s to at most limit bytes without splitting a
// multi-byte rune.
func truncateToRune(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// parseResponse extracts the JSON object from the model output, tolerating
// prose or fences around it.
func parseResponse(content string) *response {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil
	}
	parsed := &response{}
	if err := json.Unmarshal([]byte(content[start:end+1]), parsed); err != nil {
		return nil
	}
	if len(parsed.Scores) == 0 {
		return nil
	}
	return parsed
}

// heuristicScore assigns scores from file name and size conventions.
func heuristicScore(sample FileSample) models.FileScore {
	score := models.FileScore{
		File:       sample.Path,
		Risk:       4,
		Complexity: 4,
		Importance: 4,
		Reasoning:  "heuristic fallback",
	}

	base := strings.ToLower(path.Base(sample.Path))
	name := strings.TrimSuffix(base, path.Ext(base))
	switch {
	case strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") || strings.HasSuffix(name, "_test"):
		score.Risk, score.Complexity, score.Importance = 2, 2, 2
	case name == "index" || name == "main" || name == "app" || name == "server" || name == "cli":
		score.Importance = 7
		score.Risk = 5
	}

	switch {
	case len(sample.Content) > 30000:
		score.Complexity = 8
	case len(sample.Content) > 10000:
		score.Complexity = 6
	}

	score.Priority = PriorityFor(score.Risk, score.Complexity, score.Importance)
	return score
}

// PriorityFor derives the overall priority from the three component
// scores: the rounded mean, clamped to [1, 10].
func PriorityFor(risk, complexity, importance int) int {
	priority := (risk + complexity + importance + 1) / 3 // rounded mean
	if priority < 1 {
		priority = 1
	}
	if priority > 10 {
		priority = 10
	}
	return priority
}

// clampScore bounds every component to [1, 10] and derives a missing
// priority from the components.
func clampScore(score *models.FileScore) {
	clamp := func(v *int) {
		if *v < 1 {
			*v = 1
		}
		if *v > 10 {
			*v = 10
		}
	}
	clamp(&score.Risk)
	clamp(&score.Complexity)
	clamp(&score.Importance)
	if score.Priority == 0 {
		score.Priority = PriorityFor(score.Risk, score.Complexity, score.Importance)
	}
	clamp(&score.Priority)
}
