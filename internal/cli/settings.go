package cli

import (
	"io"
	"log"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"greptree/internal/config"
	"greptree/internal/domain"
	"greptree/internal/search"
)

const defaultLogFile = "greptree.log"

// loadConfig reads the config file named by --config, or the default file
// when present, and applies the flags the user actually set on top of it
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.NewConfigServiceAt(opts.configPath).LoadFromPath(opts.configPath)
	} else {
		cfg, err = config.NewConfigService().Load()
	}
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("no-recurse") {
		cfg.Search.Recursive = !opts.noRecurse
	}
	if f.Changed("hidden") {
		cfg.Search.IncludeHidden = opts.hidden
	}
	if f.Changed("ignore-case") {
		cfg.Search.CaseSensitive = !opts.ignoreCase
	}
	if f.Changed("workers") {
		cfg.Search.Workers = opts.workers
	}
	if f.Changed("max-line-bytes") {
		cfg.Search.MaxLineBytes = opts.maxLine
	}
	if f.Changed("progress") {
		cfg.UI.ShowProgress = opts.progress
	}
	if f.Changed("color") {
		cfg.UI.Color = opts.color
	}
	switch {
	case opts.plain:
		cfg.UI.Mode = config.ModePlain
	case opts.interactive:
		cfg.UI.Mode = config.ModeInteractive
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid flags")
	}
	return cfg, nil
}

// buildSearchConfig combines stored settings with the positional arguments
func buildSearchConfig(cfg *config.Config, args []string) domain.SearchConfig {
	sc := cfg.SearchConfig(args[0], args[1])
	if len(args) > 2 {
		sc.Extensions = search.ParseExtensions(args[2])
	}
	return sc
}

// setupLogging sends the standard logger to a file when debugging, and
// discards it otherwise. The returned function closes the file.
func setupLogging(opts *options) (func(), error) {
	if !opts.debug && opts.logFile == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}

	path := opts.logFile
	if path == "" {
		path = defaultLogFile
	}
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "could not open log file")
	}
	log.SetOutput(logFile)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return func() {
		log.SetOutput(io.Discard)
		logFile.Close()
	}, nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// useColor resolves the color setting against the output stream
func useColor(setting string, out io.Writer) bool {
	switch setting {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return isTerminal(out) && os.Getenv("NO_COLOR") == ""
	}
}

// interactive resolves the output mode
func interactive(mode string, in io.Reader, out io.Writer) bool {
	switch mode {
	case config.ModeInteractive:
		return true
	case config.ModePlain:
		return false
	default:
		return isTerminal(in) && isTerminal(out)
	}
}
