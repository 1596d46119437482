package retrievers

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/andreas-roehler/hindsight/pkg/index"
	"github.com/andreas-roehler/hindsight/pkg/retriever"
)

// PPRConfig holds configuration for the personalized-PageRank retriever.
type PPRConfig struct {
	// Damping is the walk continuation probability. Defaults to 0.85.
	Damping float64

	// Tolerance is the L1 convergence threshold. Defaults to 1e-4.
	Tolerance float64

	// MaxIterations caps power iterations before the per-call budget is
	// applied. Defaults to 30.
	MaxIterations int

	// ExpandFactor bounds how many nodes the reachable subgraph may
	// contain per unit of budget. Defaults to 16.
	ExpandFactor int
}

// PPRRetriever approximates a random walk with restart from the seed set
// (uniform restart distribution over seeds). It iterates until scores
// converge within the tolerance or the iteration cap is hit; the per-call
// budget bounds the iteration cap. Nodes never reached by any walk are
// absent from the result, not zero-scored. Converges toward hub facts
// with many high-weight inbound paths.
type PPRRetriever struct {
	damping   float64
	tolerance float64
	maxIters  int
	expand    int
}

// NewPPR creates a personalized-PageRank retriever with defaults.
func NewPPR() *PPRRetriever {
	return NewPPRWithConfig(PPRConfig{})
}

// NewPPRWithConfig creates a personalized-PageRank retriever.
func NewPPRWithConfig(cfg PPRConfig) *PPRRetriever {
	if cfg.Damping <= 0 || cfg.Damping >= 1 {
		cfg.Damping = 0.85
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 1e-4
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 30
	}
	if cfg.ExpandFactor <= 0 {
		cfg.ExpandFactor = 16
	}
	return &PPRRetriever{
		damping:   cfg.Damping,
		tolerance: cfg.Tolerance,
		maxIters:  cfg.MaxIterations,
		expand:    cfg.ExpandFactor,
	}
}

// Strategy returns the algorithm tag.
func (r *PPRRetriever) Strategy() retriever.Strategy {
	return retriever.StrategyPPR
}

// Traverse implements retriever.GraphRetriever.
func (r *PPRRetriever) Traverse(ctx context.Context, graph index.MemoryGraph, seeds []string, budget int) (*retriever.Result, error) {
	result := &retriever.Result{
		Activations: make(map[string]float64),
		Depths:      make(map[string]int),
	}
	if len(seeds) == 0 || budget <= 0 {
		return result, nil
	}

	adj, depths, err := r.collect(ctx, graph, seeds, budget*r.expand)
	if err != nil {
		return nil, err
	}

	seedSet := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		seedSet[s] = true
	}

	// Restart distribution: uniform over seeds.
	restart := 1.0 / float64(len(seeds))

	rank := make(map[string]float64, len(adj))
	for _, s := range seeds {
		rank[s] = restart
	}

	iterCap := r.maxIters
	if budget < iterCap {
		iterCap = budget
	}

	for iter := 0; iter < iterCap; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next := make(map[string]float64, len(rank))
		dangling := 0.0
		for u, p := range rank {
			edges := adj[u]
			outW := 0.0
			for _, e := range edges {
				outW += e.Weight
			}
			if outW == 0 {
				dangling += p
				continue
			}
			for _, e := range edges {
				next[e.FactID] += r.damping * p * (e.Weight / outW)
			}
		}

		// Restart mass plus mass stranded on dangling nodes flows back
		// to the seeds.
		back := (1 - r.damping) + r.damping*dangling
		for _, s := range seeds {
			next[s] += back * restart
		}

		delta := l1Delta(rank, next)
		rank = next
		if delta < r.tolerance {
			break
		}
	}

	for v, p := range rank {
		if seedSet[v] || p == 0 {
			continue
		}
		result.Activations[v] = p
	}
	for v := range result.Activations {
		result.Depths[v] = depths[v]
	}
	result.Visited = len(result.Activations)
	return result, nil
}

// collect gathers the adjacency of the subgraph reachable from seeds,
// capped at maxNodes nodes.
func (r *PPRRetriever) collect(ctx context.Context, graph index.MemoryGraph, seeds []string, maxNodes int) (map[string][]index.Edge, map[string]int, error) {
	adj := make(map[string][]index.Edge)
	depths := make(map[string]int)

	frontier := append([]string(nil), seeds...)
	sort.Strings(frontier)

	seen := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		seen[s] = true
	}

	depth := 0
	for len(frontier) > 0 && len(seen) < maxNodes {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		depth++

		var next []string
		for _, u := range frontier {
			edges, err := graph.Neighbors(ctx, u)
			if err != nil {
				return nil, nil, fmt.Errorf("neighbors of %s: %w", u, err)
			}
			sort.Slice(edges, func(i, j int) bool { return edges[i].FactID < edges[j].FactID })
			adj[u] = edges

			for _, e := range edges {
				if seen[e.FactID] {
					continue
				}
				if len(seen) >= maxNodes {
					break
				}
				seen[e.FactID] = true
				depths[e.FactID] = depth
				next = append(next, e.FactID)
			}
		}
		sort.Strings(next)
		frontier = next
	}

	return adj, depths, nil
}

func l1Delta(a, b map[string]float64) float64 {
	delta := 0.0
	for k, v := range a {
		delta += math.Abs(v - b[k])
	}
	for k, v := range b {
		if _, ok := a[k]; !ok {
			delta += math.Abs(v)
		}
	}
	return delta
}
