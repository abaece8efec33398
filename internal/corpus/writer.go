package corpus

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
)

// scoreHeader is the column order of a retrieval result file.
var scoreHeader = []string{"score", "category", "name", "target_text", "query", "pmid", "filename"}

// WriteScores writes retrieval results as tab-separated text, one row per
// candidate in the given order (callers pass them sorted by score
// descending). Newlines inside target_text are escaped so every record
// stays on one line.
func WriteScores(path string, results []domain.ScoredCandidate) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(scoreHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		row := []string{
			strconv.FormatFloat(r.Score, 'f', -1, 64),
			r.Category,
			r.Name,
			escapeNewlines(r.TargetText),
			escapeNewlines(r.Query),
			r.PMID,
			r.Filename,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row for %q: %w", r.Name, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush output %s: %w", path, err)
	}
	return nil
}

// WriteChunks writes a corpus file as a JSON array.
func WriteChunks(path string, chunks []domain.TextChunk) error {
	return writeJSON(path, chunks)
}

// writeJSON marshals v with indentation and writes it atomically
// (temp-then-rename) so an interrupted batch never leaves a truncated
// output behind.
func writeJSON(path string, v any) error {
	data, err := marshalIndent(v)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func escapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", "\\n")
}
