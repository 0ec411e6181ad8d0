// Package search implements the concurrent directory traversal and text
// matching engine. An Engine walks a directory tree with a pool of workers
// sharing one LIFO frontier and reports progress, found files, errors and
// completion to a Listener through a single dispatch goroutine.
package search

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"greptree/internal/domain"
	"greptree/internal/eventbus"
	"greptree/internal/frontier"
)

// DefaultMaxLineBytes bounds the length of a single line read from a file
const DefaultMaxLineBytes = 4 << 20

var (
	ErrAlreadyRunning = errors.New("search already in progress")
	ErrDisposed       = errors.New("engine has been disposed")
	ErrNotDirectory   = errors.New("not a directory")
	ErrEmptyTarget    = errors.New("search text is empty")
)

// Option configures an Engine
type Option func(*Engine)

// WithWorkers sets the worker pool size. Values below 1 select runtime.NumCPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// withEventBus replaces the engine's private dispatch bus. The engine takes
// ownership and closes it on Dispose.
func withEventBus(bus eventbus.EventBus) Option {
	return func(e *Engine) {
		if bus != nil {
			e.bus = bus
		}
	}
}

// Engine owns the lifecycle of searches. One search runs at a time; a new
// search may be started once the previous one has completed.
type Engine struct {
	listener Listener
	bus      eventbus.EventBus
	workers  int
	unsubs   []func()

	// runMu serializes Start against the completion of a previous run so the
	// completion event is always queued before the next run's events
	runMu sync.Mutex

	mu       sync.Mutex
	state    domain.EngineState
	searchID string
	cancel   context.CancelFunc
	current  *traversal
	stats    *stats
	last     domain.Summary
	pending  map[string]chan struct{}
	disposed bool
	frontier *frontier.Stack[workItem]
}

// NewEngine creates an idle engine reporting to listener
func NewEngine(listener Listener, opts ...Option) *Engine {
	if listener == nil {
		listener = ListenerFuncs{}
	}
	e := &Engine{
		listener: listener,
		workers:  runtime.NumCPU(),
		state:    domain.StateIdle,
		pending:  make(map[string]chan struct{}),
		frontier: frontier.New[workItem](64),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.bus == nil {
		e.bus = eventbus.New()
	}
	e.subscribe()
	return e
}

func (e *Engine) subscribe() {
	e.unsubs = append(e.unsubs,
		e.bus.Subscribe(eventbus.EventProgress, func(ev eventbus.DomainEvent) {
			if p, ok := ev.(eventbus.ProgressEvent); ok {
				e.listener.OnProgress(p.Path, p.IsFile)
			}
		}),
		e.bus.Subscribe(eventbus.EventFileFound, func(ev eventbus.DomainEvent) {
			if f, ok := ev.(eventbus.FileFoundEvent); ok {
				e.listener.OnFound(f.Result)
			}
		}),
		e.bus.Subscribe(eventbus.EventSearchError, func(ev eventbus.DomainEvent) {
			if se, ok := ev.(eventbus.SearchErrorEvent); ok {
				e.listener.OnError(se.Message)
			}
		}),
		e.bus.Subscribe(eventbus.EventSearchCompleted, func(ev eventbus.DomainEvent) {
			c, ok := ev.(eventbus.SearchCompletedEvent)
			if !ok {
				return
			}
			// release Wait only after the listener has seen completion
			defer e.release(c.SearchID)
			e.listener.OnComplete()
		}),
	)
}

// Start begins a search and returns without waiting for it. Configuration
// problems are reported as an error event followed by the completion event.
// Cancelling ctx has the same effect as Stop.
//
// Start may be called from OnComplete but from no other Listener callback:
// a finishing search holds the engine while it queues its completion event,
// and the queue only drains once the callback returns.
func (e *Engine) Start(ctx context.Context, cfg domain.SearchConfig) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return ErrDisposed
	}
	if e.state == domain.StateRunning || e.state == domain.StateStopping {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}

	id := uuid.NewString()
	e.searchID = id
	e.pending[id] = make(chan struct{})
	st := newStats()
	e.stats = st

	if err := validate(cfg); err != nil {
		st.errors.Add(1)
		e.state = domain.StateCompleted
		e.last = st.summary(false)
		summary := e.last
		e.mu.Unlock()

		log.Printf("Search %s: invalid configuration: %v", id, err)
		e.bus.Publish(domain.SearchErrorEvent{SearchID: id, Path: cfg.RootPath, Message: err.Error(), Err: err})
		e.bus.Publish(domain.SearchCompletedEvent{SearchID: id, Summary: summary})
		return nil
	}

	cfg.RootPath = filepath.Clean(cfg.RootPath)
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.state = domain.StateRunning

	t := newTraversal(runCtx, id, cfg, e.frontier, st, e.bus)
	t.seed(cfg.RootPath)
	e.current = t
	e.mu.Unlock()

	log.Printf("Search %s: started in %s for %q (workers=%d, recursive=%v)", id, cfg.RootPath, cfg.Target, e.workers, cfg.Recursive)
	go e.run(t, cancel)
	return nil
}

func (e *Engine) run(t *traversal, cancel context.CancelFunc) {
	t.run(e.workers)
	cancelled := t.ctx.Err() != nil
	cancel()

	e.runMu.Lock()
	defer e.runMu.Unlock()

	e.mu.Lock()
	e.frontier.Clear()
	e.cancel = nil
	e.current = nil
	e.state = domain.StateCompleted
	e.last = t.stats.summary(cancelled)
	summary := e.last
	e.mu.Unlock()

	log.Printf("Search %s: completed (files=%d matched=%d errors=%d cancelled=%v) in %s",
		t.searchID, summary.FilesScanned, summary.FilesMatched, summary.Errors, summary.Cancelled, summary.Elapsed)
	e.bus.Publish(domain.SearchCompletedEvent{SearchID: t.searchID, Summary: summary})
}

// Stop requests cancellation of the running search. It is safe to call at any
// time and any number of times; it does nothing unless a search is running.
//
// Once Stop returns the search publishes no further progress or found events.
// Events queued before that are still delivered, followed by the completion event.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != domain.StateRunning && e.state != domain.StateStopping {
		e.mu.Unlock()
		return
	}
	if e.state == domain.StateRunning {
		log.Printf("Search %s: stop requested", e.searchID)
	}
	e.state = domain.StateStopping
	if e.cancel != nil {
		e.cancel()
	}
	t := e.current
	e.mu.Unlock()

	if t != nil {
		t.quiesce()
	}
}

// Wait blocks until the most recently started search has delivered its
// completion event to the listener, or ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	done, ok := e.pending[e.searchID]
	e.mu.Unlock()
	if !ok {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) release(searchID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if done, ok := e.pending[searchID]; ok {
		close(done)
		delete(e.pending, searchID)
	}
}

// Dispose stops any running search, waits for its completion event to be
// delivered and shuts down event delivery. No listener method is called after
// Dispose returns. It must not be called from a Listener callback.
func (e *Engine) Dispose() {
	e.Stop()
	_ = e.Wait(context.Background())

	e.runMu.Lock()
	e.mu.Lock()
	already := e.disposed
	e.disposed = true
	e.mu.Unlock()
	e.runMu.Unlock()
	if already {
		return
	}

	e.bus.Close()
	for _, unsub := range e.unsubs {
		unsub()
	}
	log.Printf("Search engine disposed")
}

// State returns the current lifecycle state
func (e *Engine) State() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SearchID returns the identifier of the most recently started search
func (e *Engine) SearchID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.searchID
}

// Summary returns live counters while a search runs and the final counters after it completes
func (e *Engine) Summary() domain.Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.stats == nil:
		return domain.Summary{}
	case e.state == domain.StateRunning || e.state == domain.StateStopping:
		return e.stats.summary(e.state == domain.StateStopping)
	default:
		return e.last
	}
}

// Workers returns the size of the worker pool
func (e *Engine) Workers() int { return e.workers }

func validate(cfg domain.SearchConfig) error {
	if cfg.Target == "" {
		return ErrEmptyTarget
	}
	info, err := os.Stat(cfg.RootPath)
	if err != nil {
		return errors.Wrapf(err, "cannot search %q", cfg.RootPath)
	}
	if !info.IsDir() {
		return errors.Wrapf(ErrNotDirectory, "cannot search %q", cfg.RootPath)
	}
	return nil
}
