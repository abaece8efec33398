package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
)

func TestNewEmbedder_MissingAPIKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "")

	_, err := NewEmbedder("")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), APIKeyEnv)
}

func TestNewEmbedder_ModelNameAndDimensions(t *testing.T) {
	t.Setenv(APIKeyEnv, "test-key")

	e, err := NewEmbedder("")
	require.NoError(t, err)
	assert.Equal(t, "openai-"+DefaultModel, e.ModelName())
	assert.Equal(t, 1536, e.Dimensions())

	large, err := NewEmbedder("text-embedding-3-large")
	require.NoError(t, err)
	assert.Equal(t, "openai-text-embedding-3-large", large.ModelName())
	assert.Equal(t, 3072, large.Dimensions())
}
