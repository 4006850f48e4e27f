package depgraph

import (
	"sort"

	"github.com/danebolt/weft/pkg/models"
)

// Order is a dependency-respecting processing plan over a file subset.
type Order struct {
	// Files is the flattened processing order.
	Files []string
	// Tiers groups the order: every file in a tier has all of its
	// in-subset dependencies in earlier tiers. Files trapped in a cycle
	// land together in the final tier, never dropped.
	Tiers [][]string
}

// ProcessingOrder computes a tiered topological order over the given file
// subset. Dependencies outside the subset are ignored. Within a tier,
// files are ordered by descending priority with ties broken stably by
// input order.
func ProcessingOrder(graph *models.DependencyGraph, files []string, priorities map[string]int) *Order {
	inSubset := make(map[string]bool, len(files))
	inputIndex := make(map[string]int, len(files))
	for i, file := range files {
		inSubset[file] = true
		inputIndex[file] = i
	}

	// remaining counts in-subset dependencies not yet satisfied;
	// dependents is the reverse adjacency restricted to the subset.
	remaining := make(map[string]int, len(files))
	dependents := make(map[string][]string)
	seen := make(map[[2]string]bool)
	for _, edge := range graph.Edges {
		if !inSubset[edge.From] || !inSubset[edge.To] {
			continue
		}
		key := [2]string{edge.From, edge.To}
		if seen[key] {
			continue
		}
		seen[key] = true
		remaining[edge.From]++
		dependents[edge.To] = append(dependents[edge.To], edge.From)
	}

	order := &Order{}
	emitted := make(map[string]bool, len(files))

	tier := make([]string, 0, len(files))
	for _, file := range files {
		if remaining[file] == 0 {
			tier = append(tier, file)
		}
	}

	for len(tier) > 0 {
		sortTier(tier, priorities, inputIndex)
		order.Tiers = append(order.Tiers, tier)
		order.Files = append(order.Files, tier...)

		var next []string
		for _, file := range tier {
			emitted[file] = true
			for _, dependent := range dependents[file] {
				remaining[dependent]--
				if remaining[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		tier = next
	}

	// Anything never unblocked sits in a cycle; append it in one final tier.
	var blocked []string
	for _, file := range files {
		if !emitted[file] {
			blocked = append(blocked, file)
		}
	}
	if len(blocked) > 0 {
		sortTier(blocked, priorities, inputIndex)
		order.Tiers = append(order.Tiers, blocked)
		order.Files = append(order.Files, blocked...)
	}

	return order
}

// sortTier orders a tier by descending priority, stable on input order.
func sortTier(tier []string, priorities map[string]int, inputIndex map[string]int) {
	sort.SliceStable(tier, func(i, j int) bool {
		pi, pj := priorities[tier[i]], priorities[tier[j]]
		if pi != pj {
			return pi > pj
		}
		return inputIndex[tier[i]] < inputIndex[tier[j]]
	})
}
