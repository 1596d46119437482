// Package redis implements a Redis-backed temporal index. Event times
// live in sorted sets keyed by agent and fact type, scored by unix
// timestamp, so recency lookups are a reverse range read.
package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/andreas-roehler/hindsight/internal/textscore"
	"github.com/andreas-roehler/hindsight/pkg/index"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

// Index implements index.TemporalIndex using Redis sorted sets.
type Index struct {
	client goredis.UniversalClient
	prefix string

	now func() time.Time
}

// Config holds configuration for the Redis temporal index.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// New creates a Redis-backed temporal index with its own client.
func New(cfg Config) *Index {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(client, cfg.KeyPrefix)
}

// NewWithClient creates an index over an existing client.
func NewWithClient(client goredis.UniversalClient, prefix string) *Index {
	if prefix == "" {
		prefix = "hindsight"
	}
	return &Index{client: client, prefix: prefix, now: time.Now}
}

func (x *Index) key(agentID string, ft types.FactType) string {
	return fmt.Sprintf("%s:events:%s:%s", x.prefix, agentID, ft)
}

// Record registers a fact's event time. Called by the ingestion side;
// retrieval only reads.
func (x *Index) Record(ctx context.Context, f *types.Fact) error {
	return x.client.ZAdd(ctx, x.key(f.AgentID, f.Type), goredis.Z{
		Score:  float64(f.OccurredAt.Unix()),
		Member: f.ID,
	}).Err()
}

// Remove drops a fact from the index.
func (x *Index) Remove(ctx context.Context, f *types.Fact) error {
	return x.client.ZRem(ctx, x.key(f.AgentID, f.Type), f.ID).Err()
}

// Recent implements index.TemporalIndex. Facts are ordered by event
// time descending; the score is an exponential recency decay.
func (x *Index) Recent(ctx context.Context, agentID string, factTypes []types.FactType, k int) ([]index.Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(factTypes) == 0 {
		factTypes = types.AllFactTypes()
	}

	type entry struct {
		id   string
		unix int64
	}
	entries := make([]entry, 0, k*len(factTypes))
	for _, ft := range factTypes {
		zs, err := x.client.ZRevRangeWithScores(ctx, x.key(agentID, ft), 0, int64(k-1)).Result()
		if err != nil {
			return nil, fmt.Errorf("read temporal index: %w", err)
		}
		for _, z := range zs {
			id, ok := z.Member.(string)
			if !ok {
				continue
			}
			entries = append(entries, entry{id: id, unix: int64(z.Score)})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].unix != entries[j].unix {
			return entries[i].unix > entries[j].unix
		}
		return entries[i].id < entries[j].id
	})
	if len(entries) > k {
		entries = entries[:k]
	}

	now := x.now()
	hits := make([]index.Hit, len(entries))
	for i, e := range entries {
		hits[i] = index.Hit{
			FactID: e.id,
			Score:  textscore.Recency(now, time.Unix(e.unix, 0)),
		}
	}
	return hits, nil
}

// Close releases the underlying client.
func (x *Index) Close() error {
	return x.client.Close()
}
