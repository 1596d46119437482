package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/andreas-roehler/hindsight/internal/textscore"
	"github.com/andreas-roehler/hindsight/pkg/index"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

// TemporalIndex orders facts by event time descending with an
// exponentially decayed recency score.
type TemporalIndex struct {
	store *Store
	now   func() time.Time
}

// Temporal returns the temporal index view over the store.
func (s *Store) Temporal() *TemporalIndex {
	return &TemporalIndex{store: s, now: time.Now}
}

// Recent implements index.TemporalIndex.
func (x *TemporalIndex) Recent(ctx context.Context, agentID string, factTypes []types.FactType, k int) ([]index.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	facts := x.store.matching(agentID, factTypes)
	sort.Slice(facts, func(i, j int) bool {
		if !facts[i].OccurredAt.Equal(facts[j].OccurredAt) {
			return facts[i].OccurredAt.After(facts[j].OccurredAt)
		}
		return facts[i].ID < facts[j].ID
	})
	if k > 0 && len(facts) > k {
		facts = facts[:k]
	}

	now := x.now()
	hits := make([]index.Hit, 0, len(facts))
	for _, f := range facts {
		hits = append(hits, index.Hit{
			FactID: f.ID,
			Score:  textscore.Recency(now, f.OccurredAt),
		})
	}
	return hits, nil
}
