package depgraph

import (
	"sort"

	"github.com/danebolt/weft/pkg/models"
)

// findCycles runs Tarjan's strongly-connected-components algorithm over
// the dependency edges and keeps only non-trivial components (size > 1).
func findCycles(files map[string]*models.FileSymbolInfo, edges []models.DependencyEdge) [][]string {
	adjacency := make(map[string][]string)
	for _, edge := range edges {
		adjacency[edge.From] = append(adjacency[edge.From], edge.To)
	}

	// Stable node ordering keeps the output deterministic.
	nodes := make([]string, 0, len(files))
	for file := range files {
		nodes = append(nodes, file)
	}
	sort.Strings(nodes)

	state := &tarjanState{
		adjacency: adjacency,
		index:     make(map[string]int),
		lowlink:   make(map[string]int),
		onStack:   make(map[string]bool),
	}
	for _, node := range nodes {
		if _, visited := state.index[node]; !visited {
			state.strongConnect(node)
		}
	}

	var cycles [][]string
	for _, component := range state.components {
		if len(component) > 1 {
			sort.Strings(component)
			cycles = append(cycles, component)
		}
	}
	return cycles
}

type tarjanState struct {
	adjacency  map[string][]string
	index      map[string]int
	lowlink    map[string]int
	onStack    map[string]bool
	stack      []string
	counter    int
	components [][]string
}

func (s *tarjanState) strongConnect(node string) {
	s.index[node] = s.counter
	s.lowlink[node] = s.counter
	s.counter++
	s.stack = append(s.stack, node)
	s.onStack[node] = true

	for _, next := range s.adjacency[node] {
		if _, visited := s.index[next]; !visited {
			s.strongConnect(next)
			s.lowlink[node] = min(s.lowlink[node], s.lowlink[next])
		} else if s.onStack[next] {
			s.lowlink[node] = min(s.lowlink[node], s.index[next])
		}
	}

	if s.lowlink[node] == s.index[node] {
		var component []string
		for {
			top := s.stack[len(s.stack)-1]
			s.stack = s.stack[:len(s.stack)-1]
			s.onStack[top] = false
			component = append(component, top)
			if top == node {
				break
			}
		}
		s.components = append(s.components, component)
	}
}
