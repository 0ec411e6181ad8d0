package ui

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"greptree/internal/domain"
)

type phase int

const (
	phaseSearching phase = iota
	phaseStopping
	phaseDone
)

// Options configures the search UI
type Options struct {
	Root   string
	Target string

	// Stop asks the running search to stop; completion still arrives as a message
	Stop func()
	// Open shows a found file; it owns the terminal while it runs
	Open func(domain.FileResult) error
	// Summary is read once the search has completed
	Summary func() domain.Summary
}

// Model represents the UI state
type Model struct {
	opts    Options
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	input   textinput.Model
	styles  *Styles

	results  []domain.FileResult
	errors   []string
	current  string
	scanned  int
	summary  *domain.Summary
	selected int
	offset   int
	phase    phase
	entering bool // typing a result number after ':'
	status   string

	width  int
	height int

	// Program reference for terminal management
	program *tea.Program
}

// NewModel creates a new UI model
func NewModel(opts Options) *Model {
	in := textinput.New()
	in.Prompt = ":"
	in.Placeholder = "result number"
	in.CharLimit = 9

	return &Model{
		opts:    opts,
		keys:    newKeyMap(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		input:   in,
		styles:  NewStyles(),
		height:  24,
	}
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
}

// Results returns the files found so far
func (m *Model) Results() []domain.FileResult { return m.results }

// Done reports whether the search has completed
func (m *Model) Done() bool { return m.phase == phaseDone }

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.clampViewport()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case progressMsg:
		m.current = msg.path
		if msg.isFile {
			m.scanned++
		}

	case foundMsg:
		m.results = append(m.results, msg.result)

	case errorMsg:
		m.errors = append(m.errors, msg.message)
		log.Printf("search error: %s", msg.message)

	case completeMsg:
		m.phase = phaseDone
		m.current = ""
		if m.opts.Summary != nil {
			s := m.opts.Summary()
			m.summary = &s
		}

	case pagerDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("cannot open %s: %v", msg.path, msg.err)
			log.Printf("pager error: %v", msg.err)
		} else {
			m.status = ""
		}

	case spinner.TickMsg:
		if m.phase == phaseDone {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.entering {
		return m.handleIndexInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.stopOrQuit()

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		m.clampViewport()

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.results)-1 {
			m.selected++
		}
		m.clampViewport()

	case key.Matches(msg, m.keys.Home):
		m.selected = 0
		m.clampViewport()

	case key.Matches(msg, m.keys.End):
		if len(m.results) > 0 {
			m.selected = len(m.results) - 1
		}
		m.clampViewport()

	case key.Matches(msg, m.keys.Open):
		if len(m.results) == 0 {
			return m, nil
		}
		return m, m.openCmd(m.results[m.selected])

	case key.Matches(msg, m.keys.Index):
		if len(m.results) == 0 {
			m.status = "no results to open yet"
			return m, nil
		}
		m.entering = true
		m.input.SetValue("")
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.clampViewport()
	}
	return m, nil
}

func (m *Model) handleIndexInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.entering = false
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		m.entering = false
		m.input.Blur()
		value := strings.TrimSpace(m.input.Value())
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > len(m.results) {
			m.status = fmt.Sprintf("no result %q", value)
			return m, nil
		}
		m.selected = n - 1
		m.clampViewport()
		return m, m.openCmd(m.results[m.selected])
	}

	if msg.Type == tea.KeyRunes {
		for _, r := range msg.Runes {
			if r < '0' || r > '9' {
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// stopOrQuit stops a running search on the first press and quits on the
// second, or immediately once the search is over
func (m *Model) stopOrQuit() tea.Cmd {
	if m.phase == phaseSearching {
		m.phase = phaseStopping
		m.status = "stopping... press q again to quit"
		if m.opts.Stop != nil {
			m.opts.Stop()
		}
		return nil
	}
	return tea.Quit
}

func (m *Model) openCmd(result domain.FileResult) tea.Cmd {
	open := m.opts.Open
	if open == nil {
		return nil
	}
	program := m.program
	return func() tea.Msg {
		return pagerDoneMsg{path: result.Path, err: runReleased(program, func() error { return open(result) })}
	}
}

// runReleased hands the terminal to fn and takes it back afterwards
func runReleased(program *tea.Program, fn func() error) error {
	if program == nil {
		return fn()
	}
	if err := program.ReleaseTerminal(); err != nil {
		return err
	}
	defer func() {
		// Clear screen to reduce visual artifacts when returning
		fmt.Print("\x1b[2J\x1b[H")
		time.Sleep(50 * time.Millisecond)
		_ = program.RestoreTerminal()
	}()
	return fn()
}

// listHeight is the number of result rows that fit on screen
func (m *Model) listHeight() int {
	reserved := 4 + previewLines + 2 // header, status, preview and its border, help
	if m.help.ShowAll {
		reserved += 3
	}
	if h := m.height - reserved; h > 1 {
		return h
	}
	return 1
}

func (m *Model) clampViewport() {
	if m.selected >= len(m.results) {
		m.selected = len(m.results) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	h := m.listHeight()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+h {
		m.offset = m.selected - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}
