package cli

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

var indexResetYes bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and manage the semantic index",
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index readiness and document counts",
	RunE:  runIndexStatus,
}

var indexResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the index and everything in it",
	Long: `Deletes the semantic index. The next classification or warm-up
recreates it empty. Requires --yes.`,
	RunE: runIndexReset,
}

func init() {
	indexResetCmd.Flags().BoolVarP(&indexResetYes, "yes", "y", false, "confirm deletion")
	indexCmd.AddCommand(indexStatusCmd)
	indexCmd.AddCommand(indexResetCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexStatus(cmd *cobra.Command, _ []string) error {
	svc, err := getServices(cmd)
	if err != nil {
		return err
	}
	if svc.Index == nil {
		return domain.ErrIndexUnavailable
	}

	status := svc.Index.Status(cmd.Context())
	if jsonOutput {
		return printJSON(cmd, status)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Index:     %s (%s)\n", status.IndexName, status.Backend)
	fmt.Fprintf(w, "State:     %s\n", status.State)
	fmt.Fprintf(w, "Documents: %d\n", status.TotalDocuments)
	if len(status.Distribution) > 0 {
		fmt.Fprintln(w)
		for _, name := range slices.Sorted(maps.Keys(status.Distribution)) {
			fmt.Fprintf(w, "  %-20s %d\n", name, status.Distribution[name])
		}
	}
	fmt.Fprintf(w, "\nSupported types: %s\n", strings.Join(status.SupportedTypes, ", "))
	return nil
}

func runIndexReset(cmd *cobra.Command, _ []string) error {
	if !indexResetYes {
		return errors.New("refusing to delete the index without --yes")
	}

	svc, err := getServices(cmd)
	if err != nil {
		return err
	}
	if svc.Index == nil {
		return domain.ErrIndexUnavailable
	}

	if err := svc.Index.Reset(cmd.Context()); err != nil {
		return fmt.Errorf("resetting index: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Index deleted")
	return nil
}
