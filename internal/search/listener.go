package search

import "greptree/internal/domain"

// Listener receives search events. The engine calls its methods from a single
// dispatch goroutine, one at a time, so implementations need no locking.
// A Listener must not call Engine.Dispose from inside a callback.
type Listener interface {
	OnProgress(path string, isFile bool)
	OnFound(result domain.FileResult)
	OnError(message string)
	OnComplete()
}

// ListenerFuncs adapts optional functions to the Listener interface.
// Nil fields are ignored.
type ListenerFuncs struct {
	Progress func(path string, isFile bool)
	Found    func(result domain.FileResult)
	Error    func(message string)
	Complete func()
}

func (l ListenerFuncs) OnProgress(path string, isFile bool) {
	if l.Progress != nil {
		l.Progress(path, isFile)
	}
}

func (l ListenerFuncs) OnFound(result domain.FileResult) {
	if l.Found != nil {
		l.Found(result)
	}
}

func (l ListenerFuncs) OnError(message string) {
	if l.Error != nil {
		l.Error(message)
	}
}

func (l ListenerFuncs) OnComplete() {
	if l.Complete != nil {
		l.Complete()
	}
}
