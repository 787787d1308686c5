package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docintel/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docintel/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docintel/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docintel/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docintel/internal/core/domain"
)

// App shows a running warm-up job following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	opts   domain.WarmupOptions
	ctx    context.Context
	cancel context.CancelFunc

	styles   *styles.Styles
	keymap   *keymap.KeyMap
	progress progress.Model
	spinner  spinner.Model
	bar      *status.Bar

	// updates carries progress from the job goroutine. It is closed when
	// the job returns.
	updates chan domain.WarmupProgress

	latest domain.WarmupProgress
	report *domain.WarmupReport
	status *domain.IndexStatus
	err    error
	done   bool
	width  int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a warm-up view. The job starts when the program runs.
func NewApp(ports *Ports, opts domain.WarmupOptions) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	from, to := s.ProgressColours()

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		ports:    ports,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		styles:   s,
		keymap:   km,
		progress: progress.New(progress.WithGradient(from, to)),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:      status.NewBar(s, km),
		updates:  make(chan domain.WarmupProgress, 1),
		width:    80,
	}, nil
}

// WithContext sets the parent context for the job.
func (a *App) WithContext(ctx context.Context) *App {
	a.cancel()
	a.ctx, a.cancel = context.WithCancel(ctx)
	return a
}

// Init starts the job and the spinner.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.runWarmup(), a.waitForProgress())
}

// runWarmup runs the job on the command goroutine.
func (a *App) runWarmup() tea.Cmd {
	return func() tea.Msg {
		opts := a.opts
		opts.OnProgress = func(p domain.WarmupProgress) {
			// Counters are cumulative, so a stale update can be dropped
			select {
			case <-a.updates:
			default:
			}
			a.updates <- p
		}
		report, err := a.ports.Warmup.Run(a.ctx, opts)
		close(a.updates)
		return messages.WarmupDone{Report: report, Err: err}
	}
}

func (a *App) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		p, ok := <-a.updates
		if !ok {
			return nil
		}
		return messages.WarmupProgress{Progress: p}
	}
}

func (a *App) loadStatus() tea.Cmd {
	if a.ports.Index == nil {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.StatusLoaded{Status: a.ports.Index.Status(context.WithoutCancel(a.ctx))}
	}
}

// Update handles messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.bar.SetWidth(msg.Width)
		a.progress.Width = min(max(msg.Width-4, 10), 80)
		return a, nil

	case messages.WarmupProgress:
		a.latest = msg.Progress
		a.bar.SetMessage(fmt.Sprintf("%d of %d documents", msg.Progress.Processed, msg.Progress.Discovered))
		return a, a.waitForProgress()

	case messages.WarmupDone:
		a.done = true
		a.report = msg.Report
		a.err = msg.Err
		switch {
		case msg.Err != nil:
			a.bar.SetState(status.StateError)
			a.bar.SetMessage(msg.Err.Error())
			return a, tea.Quit
		case msg.Report != nil && msg.Report.Interrupted:
			a.bar.SetState(status.StateInterrupted)
		default:
			a.bar.SetState(status.StateDone)
		}
		if msg.Report != nil {
			a.latest.Discovered = msg.Report.Discovered
			a.latest.Indexed = msg.Report.Indexed
			a.latest.Failed = msg.Report.Failed
			a.latest.Processed = msg.Report.Indexed + msg.Report.Failed
		}
		return a, a.loadStatus()

	case messages.StatusLoaded:
		a.status = &msg.Status
		return a, tea.Quit

	case spinner.TickMsg:
		if a.done {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.done {
		if key.Matches(msg, a.keymap.Quit) {
			return a, tea.Quit
		}
		return a, nil
	}
	if key.Matches(msg, a.keymap.Stop) {
		a.cancel()
		a.bar.SetState(status.StateStopping)
	}
	return a, nil
}

// View renders the job.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("docintel warm-up"))
	b.WriteString("\n\n")

	if a.done {
		b.WriteString("  ")
	} else {
		b.WriteString(a.spinner.View() + " ")
	}
	b.WriteString(a.progress.ViewAs(a.latest.Fraction()))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "  %s %d   %s %d   %s %d\n",
		a.styles.Label.Render("discovered"), a.latest.Discovered,
		a.styles.Success.Render("indexed"), a.latest.Indexed,
		a.styles.Error.Render("failed"), a.latest.Failed)

	if a.report != nil {
		b.WriteString("\n")
		b.WriteString(a.renderReport())
	}
	if a.status != nil && len(a.status.Distribution) > 0 {
		b.WriteString("\n")
		b.WriteString(a.renderDistribution())
	}

	b.WriteString("\n")
	b.WriteString(a.bar.View())
	b.WriteString("\n")
	return b.String()
}

func (a *App) renderReport() string {
	r := a.report
	lines := []string{
		fmt.Sprintf("batches: %d flushed, %d failed", r.BatchesFlushed, r.BatchesFailed),
		fmt.Sprintf("readiness attempts: %d", r.Attempts),
		fmt.Sprintf("duration: %s", r.Duration.Round(10*time.Millisecond)),
	}
	return a.styles.Panel.Render(strings.Join(lines, "\n")) + "\n"
}

func (a *App) renderDistribution() string {
	names := make([]string, 0, len(a.status.Distribution))
	for name := range a.status.Distribution {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names)+1)
	lines = append(lines, a.styles.Label.Render(fmt.Sprintf("index %s (%s)", a.status.IndexName, a.status.Backend)))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%-16s %d", name, a.status.Distribution[name]))
	}
	return a.styles.Panel.Render(strings.Join(lines, "\n")) + "\n"
}

// Report returns the final report, or nil while running.
func (a *App) Report() *domain.WarmupReport {
	return a.report
}

// Err returns the job error, if any.
func (a *App) Err() error {
	return a.err
}

// Done reports whether the job has returned.
func (a *App) Done() bool {
	return a.done
}
