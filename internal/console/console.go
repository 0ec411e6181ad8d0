// Package console renders search events as a plain line-oriented stream.
//
// Renderer implements search.Listener. Found files are numbered in the order
// they arrive so the user can open one by index once the search is over.
package console

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/time/rate"

	"greptree/internal/domain"
	"greptree/internal/pager"
)

// Options controls what the renderer prints
type Options struct {
	Out          io.Writer
	Err          io.Writer
	Root         string // paths are shown relative to Root when possible
	Color        bool
	ShowProgress bool
	ProgressRate float64 // progress lines per second, <= 0 for unlimited
}

// Renderer prints search events as they arrive
type Renderer struct {
	opts    Options
	limiter *rate.Limiter

	path  *color.Color
	index *color.Color
	line  *color.Color
	match *color.Color
	fail  *color.Color
	dim   *color.Color

	mu      sync.Mutex
	results []domain.FileResult
}

// New creates a renderer
func New(opts Options) *Renderer {
	limit := rate.Inf
	if opts.ProgressRate > 0 {
		limit = rate.Limit(opts.ProgressRate)
	}
	r := &Renderer{
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		path:    color.New(color.FgMagenta, color.Bold),
		index:   color.New(color.FgCyan),
		line:    color.New(color.FgGreen),
		match:   color.New(color.FgHiRed, color.Bold),
		fail:    color.New(color.FgRed),
		dim:     color.New(color.Faint),
	}
	for _, c := range []*color.Color{r.path, r.index, r.line, r.match, r.fail, r.dim} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func (r *Renderer) display(path string) string {
	if r.opts.Root == "" {
		return path
	}
	if rel, err := filepath.Rel(r.opts.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// OnProgress prints a throttled progress line when progress output is enabled
func (r *Renderer) OnProgress(path string, isFile bool) {
	if !r.opts.ShowProgress || !r.limiter.Allow() {
		return
	}
	kind := "dir "
	if isFile {
		kind = "file"
	}
	fmt.Fprintln(r.opts.Out, r.dim.Sprintf("  scanning %s %s", kind, r.display(path)))
}

// OnFound prints a numbered file header followed by its matching lines
func (r *Renderer) OnFound(result domain.FileResult) {
	r.mu.Lock()
	r.results = append(r.results, result)
	n := len(r.results)
	r.mu.Unlock()

	fmt.Fprintf(r.opts.Out, "%s %s %s\n",
		r.index.Sprintf("[%d]", n),
		r.path.Sprint(r.display(result.Path)),
		r.dim.Sprintf("(%d %s)", result.MatchCount(), plural(result.MatchCount(), "match", "matches")))

	for _, l := range result.Lines {
		fmt.Fprintf(r.opts.Out, "  %s %s\n",
			r.line.Sprintf("%5d:", l.LineNumber),
			pager.Highlight(l.Text, l.Spans, func(s string) string { return r.match.Sprint(s) }))
	}
}

// OnError prints the message to the error stream
func (r *Renderer) OnError(message string) {
	fmt.Fprintln(r.opts.Err, r.fail.Sprint("error: ")+message)
}

// OnComplete does nothing; the caller prints the summary once the engine is done
func (r *Renderer) OnComplete() {}

// Results returns the found files in index order
func (r *Renderer) Results() []domain.FileResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.FileResult(nil), r.results...)
}

// PrintSummary prints the final counters
func (r *Renderer) PrintSummary(s domain.Summary) {
	status := "Search complete"
	if s.Cancelled {
		status = "Search cancelled"
	}
	fmt.Fprintf(r.opts.Out, "\n%s: %s matching %s in %s %s, %s %s scanned (%s) in %s",
		status,
		humanize.Comma(s.LinesMatched), plural(int(s.LinesMatched), "line", "lines"),
		humanize.Comma(s.FilesMatched), plural(int(s.FilesMatched), "file", "files"),
		humanize.Comma(s.FilesScanned), plural(int(s.FilesScanned), "file", "files"),
		humanize.Bytes(uint64(s.BytesRead)),
		s.Elapsed.Round(1e6))
	if s.Errors > 0 {
		fmt.Fprint(r.opts.Out, r.fail.Sprintf(", %d %s", s.Errors, plural(int(s.Errors), "error", "errors")))
	}
	fmt.Fprintln(r.opts.Out)
}

// PromptOpen asks for result numbers on in and calls open for each valid
// choice until the user enters an empty line, "q" or in is exhausted
func (r *Renderer) PromptOpen(in io.Reader, open func(domain.FileResult) error) error {
	results := r.Results()
	if len(results) == 0 {
		return nil
	}

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprintf(r.opts.Out, "Open result [1-%d] (enter to quit): ", len(results))
		if !sc.Scan() {
			fmt.Fprintln(r.opts.Out)
			return sc.Err()
		}
		answer := strings.TrimSpace(sc.Text())
		if answer == "" || answer == "q" {
			return nil
		}

		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(results) {
			fmt.Fprintln(r.opts.Err, r.fail.Sprintf("no result %q", answer))
			continue
		}
		if err := open(results[n-1]); err != nil {
			fmt.Fprintln(r.opts.Err, r.fail.Sprint("error: ")+err.Error())
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
