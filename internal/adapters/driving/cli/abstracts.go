package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/open-prophetdb/text2knowledge/internal/corpus"
	"github.com/open-prophetdb/text2knowledge/internal/logger"
)

var abstractsCmd = &cobra.Command{
	Use:   "abstracts [input-file] [output-dir]",
	Short: "Split an exported publication list into per-PMID abstract files",
	Long: `Reads a JSON export of publication records (prophet-studio format) and
writes each abstract to <output-dir>/<pmid>.txt. Records without a pmid or
without an abstract are reported and skipped.`,
	Args: cobra.ExactArgs(2),
	RunE: runAbstracts,
}

func init() {
	rootCmd.AddCommand(abstractsCmd)
}

func runAbstracts(cmd *cobra.Command, args []string) error {
	inputFile, outputDir := args[0], args[1]

	records, err := corpus.LoadAbstracts(inputFile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return fmt.Errorf("create output dir %s: %w", outputDir, err)
	}

	written := 0
	for _, rec := range records {
		pmid, abstract := rec.Data.PMID, rec.Data.Abstract
		if abstract == "" {
			continue
		}
		if pmid == "" {
			cmd.Printf("Record has an abstract but no pmid, skipping: %.60s...\n", abstract)
			continue
		}

		path := filepath.Join(outputDir, pmid+".txt")
		if err := os.WriteFile(path, []byte(abstract), 0600); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written++
	}

	logger.Info("Wrote %d of %d abstracts", written, len(records))
	cmd.Printf("Wrote %d abstracts to %s\n", written, outputDir)
	return nil
}
