package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var classifyFile string

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Classify text into a document type",
	Long: `Classifies text by voting over its nearest labelled neighbours in the
semantic index. When the index is empty or unreachable, keyword matching
decides instead. The result is never an error: if nothing fits, the type
is "unknown".`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyFile, "file", "f", "", "read text from a file (- for stdin)")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	text, err := readText(cmd, classifyFile, args)
	if err != nil {
		return err
	}

	svc, err := getServices(cmd)
	if err != nil {
		return err
	}

	result := svc.Classifier.Classify(cmd.Context(), text)

	if jsonOutput {
		return printJSON(cmd, result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Type:       %s\n", result.DocumentType)
	fmt.Fprintf(w, "Confidence: %.3f\n", result.Confidence)
	fmt.Fprintf(w, "Method:     %s\n", result.Method)
	if !result.Outcome.IsOK() {
		fmt.Fprintf(w, "Outcome:    %s\n", result.Outcome)
	}
	printNeighbors(w, result.SimilarDocuments)
	return nil
}
