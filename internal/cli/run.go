package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"greptree/internal/config"
	"greptree/internal/console"
	"greptree/internal/domain"
	"greptree/internal/pager"
	"greptree/internal/search"
	"greptree/internal/ui"
)

// errSearchFailed is returned when the search could not start; the reason
// has already been reported as an error event
var errSearchFailed = errors.New("search failed")

func runSearch(cmd *cobra.Command, opts *options, args []string) error {
	closeLog, err := setupLogging(opts)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	sc := buildSearchConfig(cfg, args)
	if abs, err := filepath.Abs(sc.RootPath); err == nil {
		sc.RootPath = abs
	}

	// The first interrupt stops the search; later ones get the default behaviour
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	context.AfterFunc(ctx, stop)

	if interactive(cfg.UI.Mode, cmd.InOrStdin(), cmd.OutOrStdout()) {
		return runInteractive(ctx, cmd, cfg, sc)
	}
	return runPlain(ctx, cmd, cfg, sc)
}

func runPlain(ctx context.Context, cmd *cobra.Command, cfg *config.Config, sc domain.SearchConfig) error {
	in, out := cmd.InOrStdin(), cmd.OutOrStdout()

	renderer := console.New(console.Options{
		Out:          out,
		Err:          cmd.ErrOrStderr(),
		Root:         sc.RootPath,
		Color:        useColor(cfg.UI.Color, out),
		ShowProgress: cfg.UI.ShowProgress,
		ProgressRate: cfg.UI.ProgressRate,
	})

	engine := search.NewEngine(renderer, search.WithWorkers(cfg.Search.Workers))
	defer engine.Dispose()

	if err := engine.Start(ctx, sc); err != nil {
		return err
	}
	logStarted("plain", engine)
	if err := engine.Wait(context.Background()); err != nil {
		return err
	}

	summary := engine.Summary()
	renderer.PrintSummary(summary)
	if failedToStart(summary) {
		return errSearchFailed
	}

	if !summary.Cancelled && isTerminal(in) && isTerminal(out) {
		return renderer.PromptOpen(in, pager.Open)
	}
	return nil
}

func runInteractive(ctx context.Context, cmd *cobra.Command, cfg *config.Config, sc domain.SearchConfig) error {
	var engine *search.Engine

	model := ui.NewModel(ui.Options{
		Root:    sc.RootPath,
		Target:  sc.Target,
		Stop:    func() { engine.Stop() },
		Open:    pager.Open,
		Summary: func() domain.Summary { return engine.Summary() },
	})

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	model.SetProgram(p)

	engine = search.NewEngine(ui.NewListener(p.Send), search.WithWorkers(cfg.Search.Workers))
	defer engine.Dispose()

	if err := engine.Start(ctx, sc); err != nil {
		return err
	}
	logStarted("interactive", engine)

	log.Printf("Starting UI...")
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "error running program")
	}
	log.Printf("UI exited normally")

	if failedToStart(engine.Summary()) && model.Done() {
		return errSearchFailed
	}
	return nil
}

func logStarted(mode string, engine *search.Engine) {
	log.Printf("greptree %s: %s search %s on %d workers", Version, mode, engine.SearchID(), engine.Workers())
}

// failedToStart reports a run that ended on a configuration error before
// the root directory was read
func failedToStart(s domain.Summary) bool {
	return s.Errors > 0 && s.DirsExpanded == 0 && s.FilesScanned == 0
}
