package services

import (
	"sort"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
)

// SelectTopK filters scored candidates by a minimum-score threshold and
// returns the highest-scoring k.
//
// The threshold is strict: candidates with score equal to minScore are
// excluded. Sorting is stable, so candidates with identical scores keep
// their original relative order. Fewer than k survivors returns all of
// them; the result is never padded. Pure function, no side effects.
func SelectTopK(candidates []domain.ScoredCandidate, k int, minScore float64) []domain.ScoredCandidate {
	kept := make([]domain.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score > minScore {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})

	if k >= 0 && k < len(kept) {
		kept = kept[:k]
	}
	return kept
}
