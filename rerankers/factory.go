// Package rerankers provides the built-in rerank strategies: the cheap
// deterministic heuristic and the cross-encoder model reranker.
package rerankers

import (
	"fmt"

	"github.com/andreas-roehler/hindsight/pkg/index"
	"github.com/andreas-roehler/hindsight/pkg/reranker"
)

// New creates a reranker for the given strategy with default
// configuration. The cross-encoder strategy requires a scoring backend;
// passing nil for it is an error.
func New(strategy reranker.Strategy, backend index.ScoringBackend) (reranker.Reranker, error) {
	switch strategy {
	case reranker.StrategyHeuristic, "":
		return NewHeuristic(), nil
	case reranker.StrategyCrossEncoder:
		if backend == nil {
			return nil, fmt.Errorf("cross-encoder reranker requires a scoring backend")
		}
		return NewCrossEncoder(backend, CrossEncoderConfig{}), nil
	default:
		return nil, fmt.Errorf("unknown rerank strategy: %s", strategy)
	}
}

// AvailableStrategies returns all built-in rerank strategies.
func AvailableStrategies() []reranker.Strategy {
	return []reranker.Strategy{
		reranker.StrategyHeuristic,
		reranker.StrategyCrossEncoder,
	}
}

// IsValidStrategy checks if a strategy string is valid.
func IsValidStrategy(s string) bool {
	strategy := reranker.Strategy(s)
	for _, valid := range AvailableStrategies() {
		if strategy == valid {
			return true
		}
	}
	return false
}
