package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
)

var (
	ingestType     string
	ingestID       string
	ingestFilename string
	ingestFile     string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [text]",
	Short: "Add a labelled observation to the index",
	Long: `Stores text with a known document type in the semantic index. Future
classifications vote with it. A write that fails is reported as degraded;
the command still succeeds.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestType, "type", "t", "", "document type (required)")
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "record ID (generated when empty)")
	ingestCmd.Flags().StringVar(&ingestFilename, "filename", "", "filename to record")
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "read text from a file (- for stdin)")
	_ = ingestCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	text, err := readText(cmd, ingestFile, args)
	if err != nil {
		return err
	}

	svc, err := getServices(cmd)
	if err != nil {
		return err
	}
	if svc.Ingest == nil {
		return domain.ErrIndexUnavailable
	}
	if ingestType != domain.UnknownType && svc.Types != nil && !knownType(svc.Types, ingestType) {
		return fmt.Errorf("%w: unknown document type %q", domain.ErrInvalidInput, ingestType)
	}

	filename := ingestFilename
	if filename == "" && ingestFile != "" && ingestFile != "-" {
		filename = filepath.Base(ingestFile)
	}

	outcome := svc.Ingest.Ingest(cmd.Context(), driving.IngestRequest{
		ID:           ingestID,
		Text:         text,
		DocumentType: ingestType,
		Filename:     filename,
		Metadata:     map[string]any{"source": "cli"},
	})

	if jsonOutput {
		return printJSON(cmd, map[string]any{
			"stored":  outcome.IsOK(),
			"outcome": outcome.String(),
		})
	}

	if outcome.IsOK() {
		fmt.Fprintf(cmd.OutOrStdout(), "Stored as %s\n", ingestType)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Not stored: %s\n", outcome)
	return nil
}

func knownType(types driving.TypeService, name string) bool {
	for _, dt := range types.Types() {
		if dt.Name == name {
			return true
		}
	}
	return false
}
