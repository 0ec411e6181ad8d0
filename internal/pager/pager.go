// Package pager shows a found file in the ov pager with its matches highlighted.
package pager

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/noborus/ov/oviewer"
	"github.com/pkg/errors"

	"greptree/internal/domain"
)

var (
	lineNumberStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	matchLineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	matchStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("226"))
)

// Highlight wraps every span of text with render. Spans outside text are ignored.
func Highlight(text string, spans []domain.MatchSpan, render func(string) string) string {
	var b strings.Builder
	pos := 0
	for _, s := range spans {
		if s.Start < pos || s.End > len(text) || s.Start >= s.End {
			continue
		}
		b.WriteString(text[pos:s.Start])
		b.WriteString(render(text[s.Start:s.End]))
		pos = s.End
	}
	b.WriteString(text[pos:])
	return b.String()
}

// Render reads the file of result and returns it with line numbers, marking
// the lines and spans recorded in result
func Render(result domain.FileResult) (string, error) {
	f, err := os.Open(result.Path)
	if err != nil {
		return "", errors.Wrapf(err, "cannot open %s", result.Path)
	}
	defer f.Close()

	matched := make(map[int]domain.LineResult, len(result.Lines))
	for _, l := range result.Lines {
		matched[l.LineNumber] = l
	}

	var b strings.Builder
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16<<20)
	n := 0
	for sc.Scan() {
		n++
		text := sc.Text()
		gutter := lineNumberStyle.Render(fmt.Sprintf("%6d ", n))
		if l, ok := matched[n]; ok && l.Text == text {
			gutter = matchLineStyle.Render(fmt.Sprintf("%6d>", n))
			text = Highlight(text, l.Spans, func(s string) string { return matchStyle.Render(s) })
		}
		b.WriteString(gutter)
		b.WriteString(text)
		b.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return "", errors.Wrapf(err, "error reading %s", result.Path)
	}
	return b.String(), nil
}

// Show runs ov over content; it takes over the terminal until the user quits
func Show(content string) error {
	root, err := oviewer.NewRoot(strings.NewReader(content))
	if err != nil {
		return err
	}

	// Configure ov to not write on exit (to avoid messing with our screen)
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}

// Open renders result and shows it in the pager
func Open(result domain.FileResult) error {
	content, err := Render(result)
	if err != nil {
		return err
	}
	return Show(content)
}
