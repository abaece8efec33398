package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
)

func scored(name string, score float64) domain.ScoredCandidate {
	return domain.ScoredCandidate{Name: name, Score: score}
}

func names(candidates []domain.ScoredCandidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Name
	}
	return out
}

func TestSelectTopK_SortsDescendingAndTruncates(t *testing.T) {
	in := []domain.ScoredCandidate{
		scored("low", 0.2),
		scored("high", 0.9),
		scored("mid", 0.5),
	}

	got := SelectTopK(in, 2, math.Inf(-1))
	assert.Equal(t, []string{"high", "mid"}, names(got))
}

func TestSelectTopK_ThresholdIsStrict(t *testing.T) {
	in := []domain.ScoredCandidate{
		scored("above", 0.51),
		scored("equal", 0.5),
		scored("below", 0.49),
	}

	got := SelectTopK(in, 10, 0.5)
	assert.Equal(t, []string{"above"}, names(got))
}

func TestSelectTopK_StableTies(t *testing.T) {
	in := []domain.ScoredCandidate{
		scored("first", 0.7),
		scored("second", 0.7),
		scored("third", 0.7),
		scored("top", 0.8),
	}

	got := SelectTopK(in, 10, 0.0)
	assert.Equal(t, []string{"top", "first", "second", "third"}, names(got))
}

func TestSelectTopK_FewerSurvivorsThanK(t *testing.T) {
	in := []domain.ScoredCandidate{
		scored("a", 0.9),
		scored("b", 0.1),
	}

	got := SelectTopK(in, 5, 0.5)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Name)
}

func TestSelectTopK_ZeroAndNegativeK(t *testing.T) {
	in := []domain.ScoredCandidate{scored("a", 0.9), scored("b", 0.8)}

	assert.Empty(t, SelectTopK(in, 0, 0.0))

	// A negative k means no truncation.
	got := SelectTopK(in, -1, 0.0)
	assert.Equal(t, []string{"a", "b"}, names(got))
}

func TestSelectTopK_EmptyInput(t *testing.T) {
	got := SelectTopK(nil, 5, 0.0)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSelectTopK_DoesNotMutateInput(t *testing.T) {
	in := []domain.ScoredCandidate{
		scored("low", 0.1),
		scored("high", 0.9),
	}

	_ = SelectTopK(in, 1, 0.0)
	assert.Equal(t, []string{"low", "high"}, names(in))
}

func TestSelectTopK_NegativeScoresNeedExplicitThreshold(t *testing.T) {
	in := []domain.ScoredCandidate{
		scored("anti", -0.9),
		scored("ortho", 0.0),
	}

	// The default threshold 0.0 strictly excludes both.
	assert.Empty(t, SelectTopK(in, 5, 0.0))

	got := SelectTopK(in, 5, math.Inf(-1))
	assert.Equal(t, []string{"ortho", "anti"}, names(got))
}
