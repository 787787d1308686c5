package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

var fieldsFile string

var fieldsCmd = &cobra.Command{
	Use:   "fields <type> [text]",
	Short: "Extract the fields of a known document type",
	Long: `Skips classification and extracts the fields declared for the given
document type. Requires a configured LLM provider.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFields,
}

func init() {
	fieldsCmd.Flags().StringVarP(&fieldsFile, "file", "f", "", "read text from a file (- for stdin)")
	rootCmd.AddCommand(fieldsCmd)
}

func runFields(cmd *cobra.Command, args []string) error {
	docType := args[0]
	text, err := readText(cmd, fieldsFile, args[1:])
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

	result, err := svc.Pipeline.ExtractFields(cmd.Context(), text, docType)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd, result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Fields for %s:\n", docType)
	printEntities(w, result.Entities)
	return nil
}
