// Package inmem provides thread-safe in-memory implementations of every
// collaborator contract the retrieval core consumes. They back local
// development and the test suites; production deployments swap in the
// chromem, qdrant, and redis implementations.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andreas-roehler/hindsight/pkg/index"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

// Store holds facts and the association graph in memory. It implements
// index.FactStore and index.MemoryGraph directly; the per-strategy index
// views are obtained via Semantic, Lexical, and Temporal.
type Store struct {
	mu    sync.RWMutex
	facts map[string]*types.Fact
	edges map[string][]index.Edge
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		facts: make(map[string]*types.Fact),
		edges: make(map[string][]index.Edge),
	}
}

// PutFact stores a fact, filling in ID and CreatedAt when absent, and
// returns the fact ID. Test/demo helper; ingestion proper lives outside
// the retrieval core.
func (s *Store) PutFact(f *types.Fact) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if f.OccurredAt.IsZero() {
		f.OccurredAt = f.CreatedAt
	}
	cp := *f
	s.facts[f.ID] = &cp
	return f.ID
}

// Link adds a directed association edge a→b with the given weight,
// replacing any existing edge between the pair.
func (s *Store) Link(a, b string, weight float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edges := s.edges[a]
	for i := range edges {
		if edges[i].FactID == b {
			edges[i].Weight = weight
			return
		}
	}
	s.edges[a] = append(edges, index.Edge{FactID: b, Weight: weight})
}

// Facts implements index.FactStore.
func (s *Store) Facts(ctx context.Context, ids []string) ([]*types.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Fact, 0, len(ids))
	for _, id := range ids {
		if f, ok := s.facts[id]; ok {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Agents implements index.FactStore.
func (s *Store) Agents(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var agents []string
	for _, f := range s.facts {
		if !seen[f.AgentID] {
			seen[f.AgentID] = true
			agents = append(agents, f.AgentID)
		}
	}
	sort.Strings(agents)
	return agents, nil
}

// Neighbors implements index.MemoryGraph.
func (s *Store) Neighbors(ctx context.Context, factID string) ([]index.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := s.edges[factID]
	out := make([]index.Edge, len(edges))
	copy(out, edges)
	return out, nil
}

// EdgeWeight implements index.MemoryGraph.
func (s *Store) EdgeWeight(ctx context.Context, a, b string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.edges[a] {
		if e.FactID == b {
			return e.Weight, nil
		}
	}
	return 0, nil
}

// matching returns copies of every fact in the agent/type scope.
// Callers hold no lock.
func (s *Store) matching(agentID string, factTypes []types.FactType) []*types.Fact {
	allowed := typeSet(factTypes)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.Fact
	for _, f := range s.facts {
		if agentID != "" && f.AgentID != agentID {
			continue
		}
		if allowed != nil && !allowed[f.Type] {
			continue
		}
		cp := *f
		out = append(out, &cp)
	}
	return out
}

func typeSet(factTypes []types.FactType) map[types.FactType]bool {
	if len(factTypes) == 0 {
		return nil
	}
	set := make(map[types.FactType]bool, len(factTypes))
	for _, t := range factTypes {
		set[t] = true
	}
	return set
}

// topK sorts hits by score descending with fact-ID ascending as the
// deterministic tie-break, and truncates to k.
func topK(hits []index.Hit, k int) []index.Hit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].FactID < hits[j].FactID
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
