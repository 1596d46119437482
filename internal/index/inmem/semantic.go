package inmem

import (
	"context"

	"github.com/andreas-roehler/hindsight/internal/textscore"
	"github.com/andreas-roehler/hindsight/pkg/index"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

// SemanticIndex is a brute-force in-memory stand-in for an embedding
// index. Similarity is Jaccard word overlap, which is deterministic and
// close enough to "meaning" for tests and local runs.
type SemanticIndex struct {
	store *Store
}

// Semantic returns the semantic index view over the store.
func (s *Store) Semantic() *SemanticIndex {
	return &SemanticIndex{store: s}
}

// Search implements index.SemanticIndex.
func (x *SemanticIndex) Search(ctx context.Context, agentID, query string, factTypes []types.FactType, k int) ([]index.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var hits []index.Hit
	for _, f := range x.store.matching(agentID, factTypes) {
		score := textscore.TokenSimilarity(query, f.Text)
		if score <= 0 {
			continue
		}
		hits = append(hits, index.Hit{FactID: f.ID, Score: score})
	}
	return topK(hits, k), nil
}
