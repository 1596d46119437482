// Package types defines the core data model shared across the hindsight
// retrieval pipeline: stored facts, per-strategy candidates, fused
// candidates, and the per-call trace.
package types

import (
	"time"
)

// FactType classifies a stored memory fact.
type FactType string

const (
	// FactWorld is an objective statement about the world.
	FactWorld FactType = "world"

	// FactAgent is a statement about the owning agent itself.
	FactAgent FactType = "agent"

	// FactOpinion is a belief the agent formed; it carries a confidence
	// and may be superseded by newer opinions (supersession happens in
	// the storage layer, never here).
	FactOpinion FactType = "opinion"
)

// AllFactTypes lists every valid fact type.
func AllFactTypes() []FactType {
	return []FactType{FactWorld, FactAgent, FactOpinion}
}

// Valid reports whether t is a known fact type.
func (t FactType) Valid() bool {
	switch t {
	case FactWorld, FactAgent, FactOpinion:
		return true
	}
	return false
}

// Fact is an atomic stored memory unit. The retrieval core only ever
// holds read references to facts; ownership stays with the storage layer.
type Fact struct {
	ID         string    `json:"id"`
	AgentID    string    `json:"agent_id"`
	Type       FactType  `json:"fact_type"`
	Text       string    `json:"text"`
	Context    string    `json:"context,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"` // opinions only
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Strategy tags a retrieval strategy.
type Strategy string

const (
	StrategySemantic Strategy = "semantic"
	StrategyLexical  Strategy = "lexical"
	StrategyGraph    Strategy = "graph"
	StrategyTemporal Strategy = "temporal"
)

// AllStrategies lists the four retrieval strategies in fan-out order.
func AllStrategies() []Strategy {
	return []Strategy{StrategySemantic, StrategyLexical, StrategyGraph, StrategyTemporal}
}

// Candidate is a transient per-query record produced by a single
// retrieval strategy. It lives only for the duration of one retrieve
// call and is owned by the orchestrator invocation that created it.
type Candidate struct {
	FactID string
	Score  float64 // raw, strategy-specific scale
	Source Strategy

	// Optional provenance.
	Depth    int     // graph: traversal depth
	WalkProb float64 // graph: walk probability / activation
}

// FusedCandidate merges every Candidate that shares a fact ID. A fact ID
// appears at most once in a fused set. Scores holds per-strategy
// normalized scores; strategies that did not surface the fact contribute
// no entry.
type FusedCandidate struct {
	FactID string
	Fact   *Fact
	Scores map[Strategy]float64
	Fused  float64
}

// SearchResult is a single ranked retrieval result.
type SearchResult struct {
	Fact  *Fact   `json:"fact"`
	Score float64 `json:"score"`

	// Sources carries the normalized per-strategy contributions that
	// produced the fused score, for explainability.
	Sources map[Strategy]float64 `json:"sources,omitempty"`
}

// DegradedStrategy records a strategy that contributed nothing to a call.
type DegradedStrategy struct {
	Strategy Strategy `json:"strategy"`
	Reason   string   `json:"reason"`
}

// Trace is the per-call diagnostic accumulator. It is created at call
// start, finalized at call end, and never persisted.
type Trace struct {
	SearchTime      time.Duration `json:"-"`
	SearchTimeSecs  float64       `json:"search_time_seconds"`
	TotalActivated  int           `json:"total_activated"`
	ResultsReturned int           `json:"results_returned"`

	// Per-strategy candidate counts before fusion.
	StrategyCandidates map[Strategy]int `json:"strategy_candidates,omitempty"`

	// Candidate counts after fusion and after reranking.
	FusedCandidates    int `json:"fused_candidates"`
	RerankedCandidates int `json:"reranked_candidates"`

	Degraded []DegradedStrategy `json:"degraded,omitempty"`
}

// Finalize stamps the wall time and derived fields.
func (t *Trace) Finalize(start time.Time) {
	t.SearchTime = time.Since(start)
	t.SearchTimeSecs = t.SearchTime.Seconds()
}

// IsDegraded reports whether the given strategy was marked degraded.
func (t *Trace) IsDegraded(s Strategy) bool {
	for _, d := range t.Degraded {
		if d.Strategy == s {
			return true
		}
	}
	return false
}
