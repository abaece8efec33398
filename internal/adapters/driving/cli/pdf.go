package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
	"github.com/open-prophetdb/text2knowledge/internal/corpus"
	"github.com/open-prophetdb/text2knowledge/internal/logger"
)

var (
	pdfDir    string
	pdfFile   string
	pdfOutDir string
	grobidURL string
	pdfWatch  bool
)

var pdf2textCmd = &cobra.Command{
	Use:   "pdf2text",
	Short: "Extract structured fulltext from PDFs via grobid",
	Long: `Uploads PDFs to a grobid service and writes one structured article JSON
per document at <output-dir>/<stem>/<stem>.json (title, abstract, body
sections). PDFs whose output already exists are skipped, so an interrupted
batch can simply be re-run.

With --watch the command keeps running and processes new PDFs as they
appear in the directory.`,
	RunE: runPdf2text,
}

func init() {
	pdf2textCmd.Flags().StringVar(&pdfDir, "pdf-dir", "", "directory of PDFs (recursive)")
	pdf2textCmd.Flags().StringVar(&pdfFile, "pdf-file", "", "single PDF file")
	pdf2textCmd.Flags().StringVarP(&pdfOutDir, "output-dir", "o", "", "output directory (required)")
	pdf2textCmd.Flags().StringVar(&grobidURL, "grobid-url", "", "grobid service URL (default from config, then http://localhost:8070)")
	pdf2textCmd.Flags().BoolVarP(&pdfWatch, "watch", "w", false, "keep watching --pdf-dir for new PDFs")
	_ = pdf2textCmd.MarkFlagRequired("output-dir")
	rootCmd.AddCommand(pdf2textCmd)
}

func runPdf2text(cmd *cobra.Command, _ []string) error {
	if factories.PDFParser == nil {
		return errors.New("pdf parser not configured")
	}
	if pdfDir == "" && pdfFile == "" {
		return errors.New("specify either --pdf-dir or --pdf-file")
	}
	if pdfWatch && pdfDir == "" {
		return errors.New("--watch requires --pdf-dir")
	}

	url := configString(grobidURL, driven.ConfigGrobidURL, "http://localhost:8070")
	parser, err := factories.PDFParser(url)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var pdfs []string
	if pdfFile != "" {
		pdfs = append(pdfs, pdfFile)
	}
	if pdfDir != "" {
		found, err := listPDFs(pdfDir)
		if err != nil {
			return err
		}
		pdfs = append(pdfs, found...)
	}

	for _, pdf := range pdfs {
		if err := processPDF(ctx, cmd, parser, pdf); err != nil {
			// One bad PDF must not sink the batch.
			cmd.Printf("Error processing %s: %v\n", pdf, err)
		}
	}

	if !pdfWatch {
		return nil
	}
	return watchPDFs(ctx, cmd, parser)
}

// processPDF extracts one PDF unless its output already exists.
func processPDF(ctx context.Context, cmd *cobra.Command, parser driven.PDFParser, pdf string) error {
	stem := strings.TrimSuffix(filepath.Base(pdf), filepath.Ext(pdf))
	outPath := filepath.Join(pdfOutDir, stem)
	outFile := filepath.Join(outPath, stem+".json")

	if err := os.MkdirAll(outPath, 0750); err != nil {
		return err
	}
	if _, err := os.Stat(outFile); err == nil {
		cmd.Printf("Output file (%s) already exists. Skipping...\n", outFile)
		return nil
	}

	cmd.Printf("Processing %s...\n", pdf)
	article, err := parser.ParseFulltext(ctx, pdf)
	if err != nil {
		return err
	}

	if err := corpus.WriteJSONFile(outFile, article); err != nil {
		return err
	}
	logger.Info("Wrote %s (%d sections)", outFile, len(article.Sections))
	return nil
}

// watchPDFs blocks and processes PDFs as they are created in pdfDir.
func watchPDFs(ctx context.Context, cmd *cobra.Command, parser driven.PDFParser) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(pdfDir); err != nil {
		return err
	}
	cmd.Printf("Watching %s for new PDFs...\n", pdfDir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !strings.HasSuffix(strings.ToLower(event.Name), ".pdf") {
				continue
			}
			if err := processPDF(ctx, cmd, parser, event.Name); err != nil {
				cmd.Printf("Error processing %s: %v\n", event.Name, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// listPDFs walks dir and returns every .pdf file under it.
func listPDFs(dir string) ([]string, error) {
	var pdfs []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".pdf") {
			pdfs = append(pdfs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pdfs, nil
}
