// Package cli wires the search engine to the command line.
package cli

import (
	"github.com/spf13/cobra"

	"greptree/internal/config"
)

// Version is injected at build time via -ldflags
var Version = "dev"

type options struct {
	noRecurse   bool
	progress    bool
	debug       bool
	hidden      bool
	ignoreCase  bool
	workers     int
	maxLine     int
	configPath  string
	plain       bool
	interactive bool
	color       string
	logFile     string
}

// NewRootCommand creates and returns the root cobra command for greptree
func NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "greptree [flags] <path> <text> [ext1,ext2,...]",
		Short: "Find files containing a piece of text",
		Long: `greptree walks a directory tree with a pool of workers and reports every
file whose contents contain the search text, with the line numbers and
positions of each match.

An optional comma separated list of extensions restricts the files that
are read, for example: greptree ./src TODO go,md

Interactive mode shows a live list of results that can be opened in a
pager. Plain mode streams results to stdout and is used automatically
when the output is not a terminal.`,
		Example: `  greptree . needle
  greptree --ignore-case --no-recurse ~/notes meeting txt,md
  greptree --plain /var/log timeout log | less -R`,
		Args:    cobra.RangeArgs(2, 3),
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.noRecurse, "no-recurse", false, "only search files directly inside <path>")
	f.BoolVar(&opts.progress, "progress", false, "print the files and directories being searched")
	f.BoolVar(&opts.debug, "debug", false, "write a debug log to greptree.log (see --log-file)")
	f.BoolVar(&opts.hidden, "hidden", false, "include hidden files and directories")
	f.BoolVarP(&opts.ignoreCase, "ignore-case", "i", false, "match the text case-insensitively")
	f.IntVarP(&opts.workers, "workers", "w", 0, "number of search workers (0 = one per CPU)")
	f.IntVar(&opts.maxLine, "max-line-bytes", 0, "fail files with lines longer than this (0 = 4 MiB)")
	f.BoolVar(&opts.plain, "plain", false, "stream results as plain text")
	f.BoolVar(&opts.interactive, "interactive", false, "show results in the interactive viewer")
	f.StringVar(&opts.color, "color", config.ColorAuto, "color output: auto, always or never")
	f.StringVar(&opts.logFile, "log-file", "", "debug log location (implies --debug)")
	cmd.MarkFlagsMutuallyExclusive("plain", "interactive")

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")

	cmd.AddCommand(newConfigCommand(opts))

	return cmd
}
