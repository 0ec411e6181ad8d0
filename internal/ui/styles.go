package ui

import "github.com/charmbracelet/lipgloss"

// Styles contains the style definitions for the UI
type Styles struct {
	Title       lipgloss.Style
	Target      lipgloss.Style
	Dim         lipgloss.Style
	Index       lipgloss.Style
	Path        lipgloss.Style
	Selected    lipgloss.Style
	LineNumber  lipgloss.Style
	Match       lipgloss.Style
	Preview     lipgloss.Style
	StatusError lipgloss.Style
	StatusDone  lipgloss.Style
	StatusBusy  lipgloss.Style
	Help        lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Target:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		Dim:        lipgloss.NewStyle().Faint(true),
		Index:      lipgloss.NewStyle().Foreground(lipgloss.Color("51")),
		Path:       lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
		Selected:   lipgloss.NewStyle().Background(lipgloss.Color("238")).Bold(true),
		LineNumber: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		Match:      lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		Preview: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color("241")),
		StatusError: lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusDone:  lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
		StatusBusy:  lipgloss.NewStyle().Foreground(lipgloss.Color("33")),  // blue
		Help:        lipgloss.NewStyle().Faint(true),
	}
}
