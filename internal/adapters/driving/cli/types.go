package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the known document types",
	RunE:  runTypes,
}

func init() {
	rootCmd.AddCommand(typesCmd)
}

func runTypes(cmd *cobra.Command, _ []string) error {
	svc, err := getServices(cmd)
	if err != nil {
		return err
	}
	if svc.Types == nil {
		return fmt.Errorf("%w: type catalog", domain.ErrNotFound)
	}

	types := svc.Types.Types()
	if jsonOutput {
		return printJSON(cmd, types)
	}

	w := cmd.OutOrStdout()
	for _, dt := range types {
		fmt.Fprintf(w, "%s\n", dt.Name)
		fmt.Fprintf(w, "  fields:   %s\n", strings.Join(dt.Fields, ", "))
		fmt.Fprintf(w, "  keywords: %s\n", strings.Join(dt.Keywords, ", "))
	}
	return nil
}
