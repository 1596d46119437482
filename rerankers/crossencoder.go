package rerankers

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/andreas-roehler/hindsight/internal/metrics"
	"github.com/andreas-roehler/hindsight/pkg/index"
	"github.com/andreas-roehler/hindsight/pkg/reranker"
	"github.com/andreas-roehler/hindsight/pkg/types"
)

// CrossEncoderConfig holds configuration for the cross-encoder reranker.
type CrossEncoderConfig struct {
	// BatchSize is the number of (query, text) pairs sent to the
	// scoring backend per call. Defaults to 8.
	BatchSize int

	// BatchTimeout bounds each scoring call, independently of the
	// retrieval fan-out timeout. Defaults to 2s.
	BatchTimeout time.Duration

	// CacheTTL keeps pair scores around so repeated queries skip the
	// backend. Zero disables the cache.
	CacheTTL time.Duration

	Logger *slog.Logger
}

// CrossEncoderReranker scores each (query, candidate-text) pair with a
// joint relevance model behind an index.ScoringBackend. A batch that
// fails or times out keeps its pre-rerank fused scores; the rest of the
// candidates still get model scores.
type CrossEncoderReranker struct {
	backend index.ScoringBackend
	batch   int
	timeout time.Duration
	cache   *gocache.Cache
	logger  *slog.Logger
}

// NewCrossEncoder creates a cross-encoder reranker over the given
// scoring backend.
func NewCrossEncoder(backend index.ScoringBackend, cfg CrossEncoderConfig) *CrossEncoderReranker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 8
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := &CrossEncoderReranker{
		backend: backend,
		batch:   cfg.BatchSize,
		timeout: cfg.BatchTimeout,
		logger:  cfg.Logger,
	}
	if cfg.CacheTTL > 0 {
		r.cache = gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return r
}

// Strategy returns the algorithm tag.
func (r *CrossEncoderReranker) Strategy() reranker.Strategy {
	return reranker.StrategyCrossEncoder
}

// Rerank implements reranker.Reranker.
func (r *CrossEncoderReranker) Rerank(ctx context.Context, query string, candidates []*types.FusedCandidate) error {
	for start := 0; start < len(candidates); start += r.batch {
		end := start + r.batch
		if end > len(candidates) {
			end = len(candidates)
		}
		r.rerankBatch(ctx, query, candidates[start:end])
	}
	return nil
}

func (r *CrossEncoderReranker) rerankBatch(ctx context.Context, query string, batch []*types.FusedCandidate) {
	// Cached scores apply without touching the backend.
	pending := make([]*types.FusedCandidate, 0, len(batch))
	texts := make([]string, 0, len(batch))
	for _, c := range batch {
		if c.Fact == nil || c.Fact.Text == "" {
			continue
		}
		if score, ok := r.cachedScore(query, c.FactID); ok {
			c.Fused = score
			continue
		}
		pending = append(pending, c)
		texts = append(texts, c.Fact.Text)
	}
	if len(pending) == 0 {
		return
	}

	bctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	scores, err := r.backend.Score(bctx, query, texts)
	if err != nil || len(scores) != len(pending) {
		// The batch keeps its pre-rerank fused scores.
		metrics.RerankBatchFailures.Inc()
		r.logger.Warn("cross-encoder batch degraded",
			"batch_size", len(pending),
			"error", err,
		)
		return
	}

	for i, c := range pending {
		c.Fused = scores[i]
		r.storeScore(query, c.FactID, scores[i])
	}
}

func (r *CrossEncoderReranker) cachedScore(query, factID string) (float64, bool) {
	if r.cache == nil {
		return 0, false
	}
	v, ok := r.cache.Get(cacheKey(query, factID))
	if !ok {
		return 0, false
	}
	score, ok := v.(float64)
	return score, ok
}

func (r *CrossEncoderReranker) storeScore(query, factID string, score float64) {
	if r.cache == nil {
		return
	}
	r.cache.SetDefault(cacheKey(query, factID), score)
}

func cacheKey(query, factID string) string {
	return query + "\x00" + factID
}
