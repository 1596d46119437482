// Package textscore holds the cheap lexical and temporal scoring
// primitives shared by the heuristic reranker and the in-memory indexes.
package textscore

import (
	"math"
	"strings"
	"time"
)

// decayRate drives the exponential recency decay, per hour of age.
const decayRate = 0.01

// TokenSimilarity computes Jaccard similarity between two strings based
// on lowercased words.
func TokenSimilarity(s1, s2 string) float64 {
	s1 = strings.ToLower(strings.TrimSpace(s1))
	s2 = strings.ToLower(strings.TrimSpace(s2))

	if s1 == s2 {
		if s1 == "" {
			return 0
		}
		return 1
	}
	if s1 == "" || s2 == "" {
		return 0
	}

	set1 := make(map[string]struct{})
	for _, w := range strings.Fields(s1) {
		set1[w] = struct{}{}
	}

	intersection := 0
	set2 := make(map[string]struct{})
	for _, w := range strings.Fields(s2) {
		if _, ok := set2[w]; ok {
			continue
		}
		set2[w] = struct{}{}
		if _, ok := set1[w]; ok {
			intersection++
		}
	}

	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Recency maps an event time to (0,1], decaying exponentially with age.
func Recency(now, occurredAt time.Time) float64 {
	hours := now.Sub(occurredAt).Hours()
	if hours < 0 {
		hours = 0
	}
	return math.Exp(-decayRate * hours)
}
