package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docintel/internal/adapters/driving/tui"
	"github.com/custodia-labs/docintel/internal/core/domain"
)

var (
	warmupDir   string
	warmupReset bool
	warmupWatch bool
	warmupPlain bool
)

var warmupCmd = &cobra.Command{
	Use:   "warmup",
	Short: "Populate the index from a labelled corpus",
	Long: `Reads every file under the corpus directory and adds it to the semantic
index. The name of each sub-directory is the document type of the files in
it; files directly under the root are ignored:

  data/
    invoice/   a.pdf b.png
    receipt/   c.jpg

Warm-up waits for the index with exponential backoff, so it can be started
alongside the index server. Re-running it updates existing records instead
of duplicating them.

On a terminal a progress view is shown; press esc to stop early.
Use --watch to keep indexing files added to the corpus afterwards.`,
	RunE: runWarmup,
}

func init() {
	warmupCmd.Flags().StringVarP(&warmupDir, "dir", "d", "", "corpus root (default from config)")
	warmupCmd.Flags().BoolVar(&warmupReset, "reset", false, "delete the index before populating it")
	warmupCmd.Flags().BoolVarP(&warmupWatch, "watch", "w", false, "keep indexing new files until interrupted")
	warmupCmd.Flags().BoolVar(&warmupPlain, "plain", false, "print progress lines instead of the progress view")
	rootCmd.AddCommand(warmupCmd)
}

func runWarmup(cmd *cobra.Command, _ []string) error {
	svc, err := getServices(cmd)
	if err != nil {
		return err
	}
	if svc.Warmup == nil {
		return domain.ErrIndexUnavailable
	}

	opts := domain.WarmupOptions{
		DataDir:    warmupDir,
		ResetIndex: warmupReset,
	}

	var report *domain.WarmupReport
	if useProgressView(cmd) {
		report, err = runWarmupTUI(cmd, svc, opts)
	} else {
		report, err = runWarmupPlain(cmd, svc, opts)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := printJSON(cmd, report); err != nil {
			return err
		}
	} else {
		printReport(cmd.OutOrStdout(), report)
	}

	if !warmupWatch || report.Interrupted || cmd.Context().Err() != nil {
		return nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Watching for new documents, press ctrl+c to stop")
	return svc.Warmup.Watch(cmd.Context(), warmupDir)
}

func useProgressView(cmd *cobra.Command) bool {
	if jsonOutput || warmupPlain {
		return false
	}
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runWarmupTUI(cmd *cobra.Command, svc *Services, opts domain.WarmupOptions) (*domain.WarmupReport, error) {
	app, err := tui.NewApp(&tui.Ports{Warmup: svc.Warmup, Index: svc.Index}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress view: %w", err)
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithOutput(cmd.OutOrStdout()))
	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("progress view: %w", err)
	}
	if err := app.Err(); err != nil {
		return nil, err
	}
	return app.Report(), nil
}

func runWarmupPlain(cmd *cobra.Command, svc *Services, opts domain.WarmupOptions) (*domain.WarmupReport, error) {
	w := cmd.ErrOrStderr()
	opts.OnProgress = func(p domain.WarmupProgress) {
		fmt.Fprintf(w, "  %d/%d processed, %d indexed, %d failed\n",
			p.Processed, p.Discovered, p.Indexed, p.Failed)
	}
	return svc.Warmup.Run(cmd.Context(), opts)
}

func printReport(w io.Writer, r *domain.WarmupReport) {
	if r == nil {
		return
	}
	if r.Interrupted {
		fmt.Fprintln(w, "Warm-up interrupted")
	} else {
		fmt.Fprintln(w, "Warm-up complete")
	}
	fmt.Fprintf(w, "  Discovered: %d\n", r.Discovered)
	fmt.Fprintf(w, "  Indexed:    %d\n", r.Indexed)
	fmt.Fprintf(w, "  Failed:     %d\n", r.Failed)
	fmt.Fprintf(w, "  Batches:    %d flushed, %d failed\n", r.BatchesFlushed, r.BatchesFailed)
	fmt.Fprintf(w, "  Took:       %s (index ready after %d attempt(s))\n", r.Duration.Round(time.Millisecond), r.Attempts)
}
