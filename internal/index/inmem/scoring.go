package inmem

import (
	"context"
	"sync"

	"github.com/andreas-roehler/hindsight/internal/textscore"
	"github.com/andreas-roehler/hindsight/pkg/index"
)

// ScoringSim simulates a cross-encoder scoring backend. Scores are the
// deterministic token similarity between query and text, so tests can
// predict rankings. Individual texts or the whole backend can be
// programmed to fail.
type ScoringSim struct {
	mu        sync.Mutex
	failAll   error
	failTexts map[string]error
	calls     int
}

// NewScoringSim returns a healthy simulator.
func NewScoringSim() *ScoringSim {
	return &ScoringSim{failTexts: make(map[string]error)}
}

// FailAll makes every subsequent batch fail with err (nil restores
// health).
func (s *ScoringSim) FailAll(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll = err
}

// FailText makes any batch containing the given text fail with err.
func (s *ScoringSim) FailText(text string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failTexts[text] = err
}

// Calls reports how many batches were scored or rejected.
func (s *ScoringSim) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Score implements index.ScoringBackend.
func (s *ScoringSim) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.failAll != nil {
		return nil, s.failAll
	}
	for _, t := range texts {
		if err, ok := s.failTexts[t]; ok {
			return nil, err
		}
	}

	scores := make([]float64, len(texts))
	for i, t := range texts {
		scores[i] = textscore.TokenSimilarity(query, t)
	}
	return scores, nil
}

var _ index.ScoringBackend = (*ScoringSim)(nil)
