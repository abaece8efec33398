package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadChunks_JSONArray(t *testing.T) {
	path := writeTemp(t, "corpus.json", `[
		{"name": "1-0", "text": "first", "label": "pubtext", "pmid": "1"},
		{"name": "1-1", "text": "second", "label": "pubtext", "pmid": "1", "filename": "1.json"}
	]`)

	chunks, err := LoadChunks(path)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "1-0", chunks[0].Name)
	assert.Equal(t, "first", chunks[0].Text)
	assert.Equal(t, "1.json", chunks[1].Filename)
}

func TestLoadChunks_JSONLines(t *testing.T) {
	path := writeTemp(t, "corpus.jsonl", `{"name": "a", "text": "t1", "label": "pubtext"}

{"name": "b", "text": "t2", "label": "pubtext"}
`)

	chunks, err := LoadChunks(path)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].Name)
	assert.Equal(t, "b", chunks[1].Name)
}

func TestLoadChunks_DuplicateNames(t *testing.T) {
	path := writeTemp(t, "corpus.json", `[
		{"name": "dup", "text": "t1", "label": "pubtext"},
		{"name": "dup", "text": "t2", "label": "pubtext"}
	]`)

	_, err := LoadChunks(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "dup")
}

func TestLoadChunks_MissingRequiredFields(t *testing.T) {
	cases := map[string]string{
		"no name":  `[{"text": "t", "label": "pubtext"}]`,
		"no text":  `[{"name": "a", "label": "pubtext"}]`,
		"no label": `[{"name": "a", "text": "t"}]`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeTemp(t, "corpus.json", content)
			_, err := LoadChunks(path)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestLoadChunks_MissingFile(t *testing.T) {
	_, err := LoadChunks(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadChunks_MalformedLine(t *testing.T) {
	path := writeTemp(t, "corpus.jsonl", `{"name": "a", "text": "t", "label": "pubtext"}
not json at all`)

	_, err := LoadChunks(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadOntology_WithoutEmbeddings(t *testing.T) {
	path := writeTemp(t, "onto.tsv", "name\tlabel\nTP53\tGene\naspirin\tCompound\n")

	terms, err := LoadOntology(path)
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, "TP53", terms[0].Name)
	assert.Equal(t, "Gene", terms[0].Label)
	assert.Nil(t, terms[0].Embedding)
}

func TestLoadOntology_WithEmbeddingColumn(t *testing.T) {
	path := writeTemp(t, "onto.tsv",
		"name\tlabel\tembedding\nTP53\tGene\t0.1|0.2|0.3\nfresh\tSymptom\t\n")

	terms, err := LoadOntology(path)
	require.NoError(t, err)
	require.Len(t, terms, 2)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, terms[0].Embedding)
	// An empty embedding cell means "compute it".
	assert.Nil(t, terms[1].Embedding)
}

func TestLoadOntology_HeaderCaseInsensitive(t *testing.T) {
	path := writeTemp(t, "onto.tsv", "Name\tLabel\nTP53\tGene\n")

	terms, err := LoadOntology(path)
	require.NoError(t, err)
	require.Len(t, terms, 1)
}

func TestLoadOntology_MissingColumns(t *testing.T) {
	path := writeTemp(t, "onto.tsv", "id\tlabel\nx\tGene\n")
	_, err := LoadOntology(path)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	path = writeTemp(t, "onto2.tsv", "name\tcategory\nx\tGene\n")
	_, err = LoadOntology(path)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoadOntology_BadEmbeddingValue(t *testing.T) {
	path := writeTemp(t, "onto.tsv", "name\tlabel\tembedding\nTP53\tGene\t0.1|abc\n")

	_, err := LoadOntology(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TP53")
}

func TestLoadOntology_SkipsBlankNames(t *testing.T) {
	path := writeTemp(t, "onto.tsv", "name\tlabel\n\tGene\nTP53\tGene\n")

	terms, err := LoadOntology(path)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, "TP53", terms[0].Name)
}

func TestLoadAbstracts(t *testing.T) {
	path := writeTemp(t, "export.json", `[
		{"data": {"pmid": "38941787", "title": "A study", "abstract": "Background..."}},
		{"data": {"pmid": "", "title": "No id", "abstract": "Text"}}
	]`)

	records, err := LoadAbstracts(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "38941787", records[0].Data.PMID)
	assert.Equal(t, "A study", records[0].Data.Title)
	assert.Empty(t, records[1].Data.PMID)
}

func TestLoadAbstracts_Malformed(t *testing.T) {
	path := writeTemp(t, "export.json", `{"not": "an array"}`)
	_, err := LoadAbstracts(path)
	require.Error(t, err)
}
