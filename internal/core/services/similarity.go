package services

import "math"

// Scorer computes cosine similarity between one query vector and an ordered
// collection of candidate vectors. Both strategies must produce the same
// scores within floating-point tolerance; callers pick by candidate-set
// size.
//
// Zero-norm policy: any comparison involving a zero vector scores 0.0, so
// degenerate vectors sort below every genuine match. Both strategies apply
// the same rule.
type Scorer interface {
	// Score returns one similarity per candidate, in candidate order.
	Score(query []float32, candidates [][]float32) []float64

	// Name identifies the strategy, for logging.
	Name() string
}

// PairwiseScorer computes each cosine independently:
// dot(q, c) / (||q|| * ||c||). Accumulation is done in float64 so the two
// strategies agree to well under 1e-6.
type PairwiseScorer struct{}

// Score implements Scorer.
func (PairwiseScorer) Score(query []float32, candidates [][]float32) []float64 {
	scores := make([]float64, len(candidates))
	for i, cand := range candidates {
		scores[i] = cosine(query, cand)
	}
	return scores
}

// Name implements Scorer.
func (PairwiseScorer) Name() string { return "pairwise" }

// VectorizedScorer normalises the query and every candidate to unit L2 norm
// once, then computes all scores as dot products. This is the required
// strategy for large candidate sets: the per-candidate work drops to a
// single multiply-accumulate pass.
type VectorizedScorer struct{}

// Score implements Scorer.
func (VectorizedScorer) Score(query []float32, candidates [][]float32) []float64 {
	q := normalize(query)
	scores := make([]float64, len(candidates))
	if q == nil {
		// Zero query vector: everything scores 0.
		return scores
	}
	for i, cand := range candidates {
		c := normalize(cand)
		if c == nil || len(c) != len(q) {
			continue
		}
		var dot float64
		for j := range q {
			dot += q[j] * c[j]
		}
		scores[i] = dot
	}
	return scores
}

// Name implements Scorer.
func (VectorizedScorer) Name() string { return "vectorized" }

// cosine computes a single pairwise cosine similarity, 0.0 for zero-norm or
// mismatched-length inputs.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// normalize returns v scaled to unit L2 norm as float64, or nil for a
// zero vector.
func normalize(v []float32) []float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return nil
	}
	inv := 1.0 / math.Sqrt(sum)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x) * inv
	}
	return out
}
