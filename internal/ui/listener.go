package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"greptree/internal/domain"
	"greptree/internal/search"
)

var _ search.Listener = (*Listener)(nil)

// Listener forwards search callbacks into a Bubble Tea program as messages
type Listener struct {
	send func(tea.Msg)
}

// NewListener creates a listener that delivers messages through send,
// usually (*tea.Program).Send
func NewListener(send func(tea.Msg)) *Listener {
	return &Listener{send: send}
}

func (l *Listener) OnProgress(path string, isFile bool) {
	l.send(progressMsg{path: path, isFile: isFile})
}

func (l *Listener) OnFound(result domain.FileResult) {
	l.send(foundMsg{result: result})
}

func (l *Listener) OnError(message string) {
	l.send(errorMsg{message: message})
}

func (l *Listener) OnComplete() {
	l.send(completeMsg{})
}
