package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

var (
	extractRawText bool
	extractNoStore bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Run the full pipeline on a document",
	Long: `Extracts text from a document (OCR for images and scanned PDFs),
classifies it, extracts the fields of the detected type and stores the
result in the semantic index so later documents can learn from it.

Storage is best effort: a failed write is reported but does not fail
the command.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractRawText, "raw-text", false, "include the extracted text")
	extractCmd.Flags().BoolVar(&extractNoStore, "no-store", false, "do not add the document to the index")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	svc, err := getServices(cmd)
	if err != nil {
		return err
	}
	if svc.Pipeline == nil {
		return domain.ErrExtractionUnavailable
	}

	result, err := svc.Pipeline.Process(cmd.Context(), domain.ProcessRequest{
		Filename:       filepath.Base(path),
		Content:        content,
		IncludeRawText: extractRawText,
		SkipStore:      extractNoStore,
	})
	if err != nil {
		return fmt.Errorf("processing %s: %w", path, err)
	}

	if jsonOutput {
		return printJSON(cmd, result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "File:       %s\n", filepath.Base(path))
	fmt.Fprintf(w, "Type:       %s\n", result.DocumentType)
	fmt.Fprintf(w, "Confidence: %.3f\n", result.Confidence)
	if !result.Classification.IsOK() {
		fmt.Fprintf(w, "Classified: %s\n", result.Classification)
	}
	if !extractNoStore {
		fmt.Fprintf(w, "Stored:     %s\n", result.Storage)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Entities:")
	printEntities(w, result.Entities)
	printNeighbors(w, result.SimilarDocuments)
	fmt.Fprintf(w, "\nTook %s (text %s, classify %s, fields %s)\n",
		result.Stats.Total, result.Stats.TextExtraction,
		result.Stats.Classification, result.Stats.Extraction)
	if extractRawText {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Raw text:")
		fmt.Fprintln(w, result.RawText)
	}
	return nil
}
