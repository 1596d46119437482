package inmem

import (
	"context"
	"math"
	"strings"

	"github.com/andreas-roehler/hindsight/pkg/index"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

// BM25 parameters, standard Okapi values.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// LexicalIndex scores facts with Okapi BM25 computed on the fly over
// the agent/type-scoped corpus. Fine at test sizes; a real deployment
// points the core at a dedicated lexical index instead.
type LexicalIndex struct {
	store *Store
}

// Lexical returns the lexical index view over the store.
func (s *Store) Lexical() *LexicalIndex {
	return &LexicalIndex{store: s}
}

// Search implements index.LexicalIndex.
func (x *LexicalIndex) Search(ctx context.Context, agentID, query string, factTypes []types.FactType, k int) ([]index.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	corpus := x.store.matching(agentID, factTypes)
	if len(corpus) == 0 {
		return nil, nil
	}

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	docs := make([]map[string]int, len(corpus))
	docLens := make([]int, len(corpus))
	totalLen := 0
	df := make(map[string]int)

	for i, f := range corpus {
		tf := termFrequencies(f.Text)
		docs[i] = tf
		for _, n := range tf {
			docLens[i] += n
		}
		totalLen += docLens[i]
		for term := range tf {
			df[term]++
		}
	}
	avgLen := float64(totalLen) / float64(len(corpus))
	n := float64(len(corpus))

	var hits []index.Hit
	for i, f := range corpus {
		score := 0.0
		for _, term := range queryTerms {
			tf := float64(docs[i][term])
			if tf == 0 {
				continue
			}
			idf := math.Log(1 + (n-float64(df[term])+0.5)/(float64(df[term])+0.5))
			norm := tf * (bm25K1 + 1) / (tf + bm25K1*(1-bm25B+bm25B*float64(docLens[i])/avgLen))
			score += idf * norm
		}
		if score <= 0 {
			continue
		}
		hits = append(hits, index.Hit{FactID: f.ID, Score: score})
	}
	return topK(hits, k), nil
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func termFrequencies(text string) map[string]int {
	tf := make(map[string]int)
	for _, term := range tokenize(text) {
		tf[term]++
	}
	return tf
}
