package ui

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greptree/internal/domain"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func result(name string, lines int) domain.FileResult {
	r := domain.FileResult{Path: filepath.Join("/data", name)}
	for i := 1; i <= lines; i++ {
		r.Lines = append(r.Lines, domain.LineResult{
			LineNumber: i,
			Text:       "x needle",
			Spans:      []domain.MatchSpan{{Start: 2, End: 8}},
		})
	}
	return r
}

type harness struct {
	m       *Model
	stops   int
	opened  []string
	openErr error
}

func newHarness() *harness {
	h := &harness{}
	h.m = NewModel(Options{
		Root:   "/data",
		Target: "needle",
		Stop:   func() { h.stops++ },
		Open: func(r domain.FileResult) error {
			h.opened = append(h.opened, r.Path)
			return h.openErr
		},
		Summary: func() domain.Summary { return domain.Summary{FilesScanned: 3, FilesMatched: 2, LinesMatched: 5} },
	})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	_, cmd := h.m.Update(msg)
	return cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestListenerForwardsMessages(t *testing.T) {
	var got []tea.Msg
	l := NewListener(func(msg tea.Msg) { got = append(got, msg) })

	l.OnProgress("/data/a", false)
	l.OnFound(result("a.txt", 1))
	l.OnError("boom")
	l.OnComplete()

	require.Len(t, got, 4)
	assert.Equal(t, progressMsg{path: "/data/a"}, got[0])
	assert.IsType(t, foundMsg{}, got[1])
	assert.Equal(t, errorMsg{message: "boom"}, got[2])
	assert.Equal(t, completeMsg{}, got[3])
}

func TestSearchMessagesUpdateState(t *testing.T) {
	h := newHarness()

	h.send(progressMsg{path: "/data/sub", isFile: false})
	h.send(progressMsg{path: "/data/sub/a.txt", isFile: true})
	h.send(foundMsg{result: result("sub/a.txt", 2)})
	h.send(errorMsg{message: "denied"})

	assert.Equal(t, 1, h.m.scanned)
	assert.Len(t, h.m.Results(), 1)
	assert.False(t, h.m.Done())
	view := h.m.View()
	assert.Contains(t, view, "sub/a.txt")
	assert.Contains(t, view, "1 errors, last: denied")

	h.send(completeMsg{})
	assert.True(t, h.m.Done())
	assert.Contains(t, h.m.View(), "5 matching lines in 2 files")
}

func TestQuitStopsFirstThenQuits(t *testing.T) {
	h := newHarness()

	cmd := h.send(keyRunes("q"))
	assert.False(t, isQuit(cmd))
	assert.Equal(t, 1, h.stops)
	assert.Contains(t, h.m.View(), "stopping")

	cmd = h.send(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, isQuit(cmd))
	assert.Equal(t, 1, h.stops)
}

func TestQuitAfterCompletion(t *testing.T) {
	h := newHarness()
	h.send(completeMsg{})

	assert.True(t, isQuit(h.send(tea.KeyMsg{Type: tea.KeyEsc})))
	assert.Zero(t, h.stops)
}

func TestNavigationIsClamped(t *testing.T) {
	h := newHarness()
	for _, name := range []string{"a", "b", "c"} {
		h.send(foundMsg{result: result(name, 1)})
	}

	h.send(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, h.m.selected)

	h.send(tea.KeyMsg{Type: tea.KeyDown})
	h.send(keyRunes("j"))
	h.send(keyRunes("j"))
	assert.Equal(t, 2, h.m.selected)

	h.send(keyRunes("g"))
	assert.Equal(t, 0, h.m.selected)
	h.send(keyRunes("G"))
	assert.Equal(t, 2, h.m.selected)
}

func TestViewportFollowsSelection(t *testing.T) {
	h := newHarness()
	h.send(tea.WindowSizeMsg{Width: 80, Height: 16})
	for i := 0; i < 30; i++ {
		h.send(foundMsg{result: result("f"+string(rune('a'+i%26))+".txt", 1)})
	}
	height := h.m.listHeight()

	for i := 0; i < 20; i++ {
		h.send(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 20, h.m.selected)
	assert.Equal(t, 20-height+1, h.m.offset)
	assert.Contains(t, h.m.View(), "more")
}

func TestEnterOpensSelected(t *testing.T) {
	h := newHarness()
	h.send(foundMsg{result: result("a.txt", 1)})
	h.send(foundMsg{result: result("b.txt", 1)})
	h.send(tea.KeyMsg{Type: tea.KeyDown})

	cmd := h.send(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, []string{"/data/b.txt"}, h.opened)

	h.send(msg)
	assert.Empty(t, h.m.status)
}

func TestEnterWithoutResults(t *testing.T) {
	h := newHarness()
	assert.Nil(t, h.send(tea.KeyMsg{Type: tea.KeyEnter}))
	assert.Empty(t, h.opened)
}

func TestOpenErrorShownInStatus(t *testing.T) {
	h := newHarness()
	h.openErr = errors.New("no terminal")
	h.send(foundMsg{result: result("a.txt", 1)})

	msg := h.send(tea.KeyMsg{Type: tea.KeyEnter})()
	h.send(msg)
	assert.Contains(t, h.m.View(), "no terminal")
}

func TestOpenByIndex(t *testing.T) {
	h := newHarness()
	for _, name := range []string{"a", "b", "c"} {
		h.send(foundMsg{result: result(name, 1)})
	}

	h.send(keyRunes(":"))
	require.True(t, h.m.entering)
	h.send(keyRunes("x"))
	h.send(keyRunes("3"))
	assert.Equal(t, "3", h.m.input.Value())

	cmd := h.send(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	cmd()
	assert.False(t, h.m.entering)
	assert.Equal(t, 2, h.m.selected)
	assert.Equal(t, []string{"/data/c"}, h.opened)
}

func TestOpenByIndexOutOfRange(t *testing.T) {
	h := newHarness()
	h.send(foundMsg{result: result("a", 1)})

	h.send(keyRunes(":"))
	h.send(keyRunes("9"))
	assert.Nil(t, h.send(tea.KeyMsg{Type: tea.KeyEnter}))
	assert.Empty(t, h.opened)
	assert.Contains(t, h.m.status, `no result "9"`)
}

func TestEscCancelsIndexEntry(t *testing.T) {
	h := newHarness()
	h.send(foundMsg{result: result("a", 1)})

	h.send(keyRunes(":"))
	cmd := h.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, isQuit(cmd))
	assert.False(t, h.m.entering)
	assert.Zero(t, h.stops)
}

func TestIndexEntryNeedsResults(t *testing.T) {
	h := newHarness()
	h.send(keyRunes(":"))
	assert.False(t, h.m.entering)
	assert.Equal(t, "no results to open yet", h.m.status)
}

func TestHelpToggle(t *testing.T) {
	h := newHarness()
	before := h.m.listHeight()
	h.send(keyRunes("?"))
	assert.True(t, h.m.help.ShowAll)
	assert.Less(t, h.m.listHeight(), before)
	h.send(keyRunes("?"))
	assert.False(t, h.m.help.ShowAll)
}

func TestPreviewTruncatesLines(t *testing.T) {
	h := newHarness()
	h.send(foundMsg{result: result("a.txt", previewLines+3)})
	assert.Contains(t, h.m.View(), "... 3 more lines")
}

func TestNoMatchesView(t *testing.T) {
	h := newHarness()
	h.send(completeMsg{})
	assert.Contains(t, h.m.View(), "no matches")
}
