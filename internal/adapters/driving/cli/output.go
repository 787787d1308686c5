package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// readText returns --file contents, stdin for "-", or the joined args.
func readText(cmd *cobra.Command, file string, args []string) (string, error) {
	switch {
	case file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return "", fmt.Errorf("%w: provide text or --file", domain.ErrInvalidInput)
	}
	return text, nil
}

func printNeighbors(w io.Writer, neighbors []domain.Neighbor) {
	if len(neighbors) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Similar documents:")
	for i, n := range neighbors {
		name := n.Filename
		if name == "" {
			name = n.ID
		}
		fmt.Fprintf(w, "  [%d] %s (%s, %.3f)\n", i+1, name, n.DocumentType, n.Score)
		fmt.Fprintf(w, "      %s\n", oneLine(n.ContentPreview))
	}
}

func printEntities(w io.Writer, entities map[string]*string) {
	if len(entities) == 0 {
		fmt.Fprintln(w, "  (no entities)")
		return
	}
	for _, f := range slices.Sorted(maps.Keys(entities)) {
		v := entities[f]
		if v == nil {
			fmt.Fprintf(w, "  %-20s -\n", f)
			continue
		}
		fmt.Fprintf(w, "  %-20s %s\n", f, *v)
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
