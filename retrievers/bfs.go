package retrievers

import (
	"context"
	"fmt"
	"sort"

	"github.com/andreas-roehler/hindsight/pkg/index"
	"github.com/andreas-roehler/hindsight/pkg/retriever"
)

// BFSConfig holds configuration for the breadth-first retriever.
type BFSConfig struct {
	// MaxDepth caps the number of expansion rounds. Defaults to 4.
	MaxDepth int
}

// BFSRetriever explores the memory graph outward from the seed set in
// rounds. Each round's frontier is every unvisited neighbor of the
// current frontier. Edges are followed regardless of weight; the weight
// contributes to an additive activation, so nodes reachable by multiple
// paths score higher. Traversal halts when the budget (max non-seed
// nodes visited) is exhausted, the depth cap is reached, or the frontier
// empties. Deterministic for a fixed graph: seeds and neighbors are
// iterated in fact-ID order.
type BFSRetriever struct {
	maxDepth int
}

// NewBFS creates a breadth-first graph retriever with defaults.
func NewBFS() *BFSRetriever {
	return NewBFSWithConfig(BFSConfig{})
}

// NewBFSWithConfig creates a breadth-first graph retriever.
func NewBFSWithConfig(cfg BFSConfig) *BFSRetriever {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 4
	}
	return &BFSRetriever{maxDepth: cfg.MaxDepth}
}

// Strategy returns the algorithm tag.
func (r *BFSRetriever) Strategy() retriever.Strategy {
	return retriever.StrategyBFS
}

// Traverse implements retriever.GraphRetriever.
func (r *BFSRetriever) Traverse(ctx context.Context, graph index.MemoryGraph, seeds []string, budget int) (*retriever.Result, error) {
	result := &retriever.Result{
		Activations: make(map[string]float64),
		Depths:      make(map[string]int),
	}
	if len(seeds) == 0 || budget <= 0 {
		return result, nil
	}

	seedSet := make(map[string]bool, len(seeds))
	activation := make(map[string]float64, len(seeds))
	for _, s := range seeds {
		seedSet[s] = true
		activation[s] = 1.0
	}

	frontier := append([]string(nil), seeds...)
	sort.Strings(frontier)

	visited := make(map[string]bool)
	remaining := budget

	for depth := 1; depth <= r.maxDepth && len(frontier) > 0 && remaining > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next := make(map[string]bool)
		for _, u := range frontier {
			edges, err := graph.Neighbors(ctx, u)
			if err != nil {
				return nil, fmt.Errorf("neighbors of %s: %w", u, err)
			}
			sort.Slice(edges, func(i, j int) bool { return edges[i].FactID < edges[j].FactID })

			for _, e := range edges {
				v := e.FactID
				// Closed nodes (seeds and earlier rounds) are not
				// re-entered; cycles would double-count otherwise.
				if seedSet[v] || (visited[v] && !next[v]) {
					continue
				}
				if !visited[v] {
					if remaining <= 0 {
						continue
					}
					remaining--
					visited[v] = true
					next[v] = true
					result.Depths[v] = depth
				}
				// Every traversed incoming edge contributes.
				activation[v] += activation[u] * e.Weight
			}
		}

		frontier = frontier[:0]
		for v := range next {
			frontier = append(frontier, v)
		}
		sort.Strings(frontier)
	}

	for v := range visited {
		result.Activations[v] = activation[v]
	}
	result.Visited = len(visited)
	return result, nil
}
