// Package corpus reads and writes the pipeline's external file formats:
// corpus JSON (array or JSON-lines), ontology TSV, and the tab-separated
// retrieval results.
package corpus

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
)

// EmbeddingSeparator joins the floats of a precomputed embedding column in
// an ontology file.
const EmbeddingSeparator = "|"

// LoadChunks reads a corpus file holding either a JSON array of chunk
// records or one JSON object per line. Every record must carry text, a
// unique name, and a label.
func LoadChunks(path string) ([]domain.TextChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}

	chunks, err := decodeChunks(data)
	if err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("corpus %s: %w", path, err)
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate chunk name %q in %s", domain.ErrInvalidInput, c.Name, path)
		}
		seen[c.Name] = struct{}{}
	}
	return chunks, nil
}

// decodeChunks tries a JSON array first, then JSON-lines.
func decodeChunks(data []byte) ([]domain.TextChunk, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var chunks []domain.TextChunk
		if err := json.Unmarshal(trimmed, &chunks); err != nil {
			return nil, err
		}
		return chunks, nil
	}

	var chunks []domain.TextChunk
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var chunk domain.TextChunk
		if err := json.Unmarshal([]byte(text), &chunk); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		chunks = append(chunks, chunk)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// LoadOntology reads a tab-separated reference vocabulary with at least
// name and label columns and an optional embedding column holding
// "|"-joined floats.
func LoadOntology(path string) ([]domain.Term, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ontology %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read ontology header %s: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	nameIdx, ok := cols["name"]
	if !ok {
		return nil, fmt.Errorf("%w: ontology %s has no name column", domain.ErrInvalidInput, path)
	}
	labelIdx, ok := cols["label"]
	if !ok {
		return nil, fmt.Errorf("%w: ontology %s has no label column", domain.ErrInvalidInput, path)
	}
	embIdx, hasEmb := cols["embedding"]

	var terms []domain.Term
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ontology %s: %w", path, err)
		}

		term := domain.Term{
			Name:  strings.TrimSpace(record[nameIdx]),
			Label: strings.TrimSpace(record[labelIdx]),
		}
		if term.Name == "" {
			continue
		}

		if hasEmb && embIdx < len(record) && strings.TrimSpace(record[embIdx]) != "" {
			vec, err := parseEmbedding(record[embIdx])
			if err != nil {
				return nil, fmt.Errorf("ontology %s, term %q: %w", path, term.Name, err)
			}
			term.Embedding = vec
		}
		terms = append(terms, term)
	}
	return terms, nil
}

// parseEmbedding decodes a "|"-joined float string.
func parseEmbedding(s string) ([]float32, error) {
	fields := strings.Split(strings.TrimSpace(s), EmbeddingSeparator)
	vec := make([]float32, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("bad embedding value %q: %w", f, err)
		}
		vec = append(vec, float32(v))
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty embedding")
	}
	return vec, nil
}

// AbstractRecord is one entry of an exported publication list
// (prophet-studio export format).
type AbstractRecord struct {
	Data struct {
		PMID     string `json:"pmid"`
		Title    string `json:"title"`
		Abstract string `json:"abstract"`
	} `json:"data"`
}

// LoadAbstracts reads an exported JSON array of publication records.
func LoadAbstracts(path string) ([]AbstractRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export %s: %w", path, err)
	}
	var records []AbstractRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse export %s: %w", path, err)
	}
	return records, nil
}
