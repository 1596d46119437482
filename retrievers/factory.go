// Package retrievers provides the built-in graph retrieval strategies:
// breadth-first traversal and personalized PageRank.
package retrievers

import (
	"fmt"

	"github.com/andreas-roehler/hindsight/pkg/retriever"
)

// New creates a graph retriever for the given strategy with default
// configuration. Returns an error if the strategy is not recognized.
func New(strategy retriever.Strategy) (retriever.GraphRetriever, error) {
	switch strategy {
	case retriever.StrategyBFS, "":
		return NewBFS(), nil
	case retriever.StrategyPPR:
		return NewPPR(), nil
	default:
		return nil, fmt.Errorf("unknown graph retrieval strategy: %s", strategy)
	}
}

// MustNew creates a graph retriever and panics if the strategy is invalid.
func MustNew(strategy retriever.Strategy) retriever.GraphRetriever {
	r, err := New(strategy)
	if err != nil {
		panic(err)
	}
	return r
}

// AvailableStrategies returns all built-in graph retrieval strategies.
func AvailableStrategies() []retriever.Strategy {
	return []retriever.Strategy{
		retriever.StrategyBFS,
		retriever.StrategyPPR,
	}
}

// IsValidStrategy checks if a strategy string is valid.
func IsValidStrategy(s string) bool {
	strategy := retriever.Strategy(s)
	for _, valid := range AvailableStrategies() {
		if strategy == valid {
			return true
		}
	}
	return false
}
