package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"greptree/internal/pager"
)

// previewLines is how many matching lines of the selected file are shown
const previewLines = 5

// View renders the UI
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderResults())
	b.WriteString(m.renderPreview())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	if m.entering {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))
	}
	return b.String()
}

func (m *Model) renderHeader() string {
	title := m.styles.Title.Render("greptree")
	what := fmt.Sprintf("%s in %s", m.styles.Target.Render(fmt.Sprintf("%q", m.opts.Target)), m.opts.Root)

	switch m.phase {
	case phaseSearching:
		return fmt.Sprintf("%s %s %s %s", title, m.spinner.View(), what,
			m.styles.StatusBusy.Render(fmt.Sprintf("%s files scanned", humanize.Comma(int64(m.scanned)))))
	case phaseStopping:
		return fmt.Sprintf("%s %s %s", title, what, m.styles.StatusBusy.Render("stopping"))
	default:
		return fmt.Sprintf("%s %s %s", title, what, m.styles.StatusDone.Render("done"))
	}
}

func (m *Model) display(path string) string {
	if rel, err := filepath.Rel(m.opts.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func (m *Model) renderResults() string {
	if len(m.results) == 0 {
		if m.phase == phaseDone {
			return m.styles.Dim.Render("  no matches") + "\n"
		}
		return m.styles.Dim.Render("  searching...") + "\n"
	}

	var b strings.Builder
	end := m.offset + m.listHeight()
	if end > len(m.results) {
		end = len(m.results)
	}
	for i := m.offset; i < end; i++ {
		r := m.results[i]
		row := fmt.Sprintf("%s %s %s",
			m.styles.Index.Render(fmt.Sprintf("%4d", i+1)),
			m.styles.Path.Render(m.display(r.Path)),
			m.styles.Dim.Render(fmt.Sprintf("(%d)", r.MatchCount())))
		if i == m.selected {
			row = m.styles.Selected.Render("▸" + row)
		} else {
			row = " " + row
		}
		b.WriteString(row)
		b.WriteString("\n")
	}
	if end < len(m.results) {
		b.WriteString(m.styles.Dim.Render(fmt.Sprintf("  ... %d more", len(m.results)-end)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderPreview() string {
	if len(m.results) == 0 || m.selected >= len(m.results) {
		return ""
	}
	r := m.results[m.selected]

	var lines []string
	for i, l := range r.Lines {
		if i == previewLines {
			lines = append(lines, m.styles.Dim.Render(fmt.Sprintf("  ... %d more lines", len(r.Lines)-previewLines)))
			break
		}
		lines = append(lines, fmt.Sprintf("%s %s",
			m.styles.LineNumber.Render(fmt.Sprintf("%6d:", l.LineNumber)),
			pager.Highlight(l.Text, l.Spans, func(s string) string { return m.styles.Match.Render(s) })))
	}
	box := m.styles.Preview
	if m.width > 0 {
		box = box.Width(m.width).MaxWidth(m.width)
	}
	return box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) renderStatus() string {
	var parts []string
	if m.summary != nil {
		s := m.summary
		parts = append(parts, fmt.Sprintf("%s matching lines in %s files, %s scanned (%s) in %s",
			humanize.Comma(s.LinesMatched), humanize.Comma(s.FilesMatched),
			humanize.Comma(s.FilesScanned), humanize.Bytes(uint64(s.BytesRead)), s.Elapsed.Round(1e6)))
		if s.Cancelled {
			parts = append(parts, "cancelled")
		}
	} else if m.current != "" {
		parts = append(parts, m.styles.Dim.Render(m.display(m.current)))
	}
	if n := len(m.errors); n > 0 {
		parts = append(parts, m.styles.StatusError.Render(fmt.Sprintf("%d errors, last: %s", n, m.errors[n-1])))
	}
	if m.status != "" {
		parts = append(parts, m.styles.StatusError.Render(m.status))
	}
	return strings.Join(parts, "  ")
}
