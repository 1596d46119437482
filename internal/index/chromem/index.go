// Package chromem implements an embedded semantic index on top of
// chromem-go, a pure Go vector database. Each agent gets its own
// collection for namespace isolation.
package chromem

import (
	"context"
	"fmt"
	"sort"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/andreas-roehler/hindsight/pkg/index"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

// Index implements index.SemanticIndex over chromem-go collections.
type Index struct {
	db          *chromem.DB
	embedding   chromem.EmbeddingFunc
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
}

// NewIndex creates an embedded semantic index. The embedding func is
// used for both stored facts and queries; nil falls back to chromem's
// default (OpenAI, api key from environment).
func NewIndex(embedding chromem.EmbeddingFunc) *Index {
	return &Index{
		db:          chromem.NewDB(),
		embedding:   embedding,
		collections: make(map[string]*chromem.Collection),
	}
}

func (x *Index) collection(agentID string) (*chromem.Collection, error) {
	x.mu.RLock()
	col, ok := x.collections[agentID]
	x.mu.RUnlock()
	if ok {
		return col, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if col, ok := x.collections[agentID]; ok {
		return col, nil
	}

	name := "agent_" + agentID
	if agentID == "" {
		name = "global"
	}
	col, err := x.db.CreateCollection(name, nil, x.embedding)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	x.collections[agentID] = col
	return col, nil
}

// Add indexes a fact's text. Called by the ingestion side; retrieval
// only reads.
func (x *Index) Add(ctx context.Context, f *types.Fact) error {
	col, err := x.collection(f.AgentID)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:      f.ID,
		Content: f.Text,
		Metadata: map[string]string{
			"fact_type": string(f.Type),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Search implements index.SemanticIndex. chromem's metadata filter is
// single-value equality, so a multi-type filter issues one query per
// type and merges by similarity.
func (x *Index) Search(ctx context.Context, agentID, query string, factTypes []types.FactType, k int) ([]index.Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	col, err := x.collection(agentID)
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults larger than the collection.
	n := k
	if count := col.Count(); n > count {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	var results []chromem.Result
	if len(factTypes) == 0 {
		results, err = col.Query(ctx, query, n, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("chromem query: %w", err)
		}
	} else {
		for _, ft := range factTypes {
			where := map[string]string{"fact_type": string(ft)}
			res, err := col.Query(ctx, query, n, where, nil)
			if err != nil {
				return nil, fmt.Errorf("chromem query: %w", err)
			}
			results = append(results, res...)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > k {
		results = results[:k]
	}

	hits := make([]index.Hit, len(results))
	for i, r := range results {
		hits[i] = index.Hit{FactID: r.ID, Score: float64(r.Similarity)}
	}
	return hits, nil
}
