package search

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	"greptree/internal/domain"
	"greptree/internal/eventbus"
	"greptree/internal/frontier"
	"greptree/internal/match"
)

// workItem is a directory waiting to be expanded
type workItem struct {
	path string
}

// traversal is the state shared by the workers of one search.
//
// The frontier and the outstanding counter are only touched under mu. A work
// unit stays outstanding from the moment it is pushed until the worker that
// popped it has finished enumerating it, so "outstanding == 0" observed under
// mu means the frontier is empty and no sibling can push more work.
type traversal struct {
	ctx      context.Context
	searchID string
	cfg      domain.SearchConfig
	matcher  *match.Matcher
	filter   extensionFilter
	maxLine  int
	stats    *stats
	bus      eventbus.EventBus

	// emitMu is held shared while a progress or found event is published;
	// quiesce takes it exclusively to wait those publishers out
	emitMu sync.RWMutex

	mu          sync.Mutex
	cond        *sync.Cond
	frontier    *frontier.Stack[workItem]
	outstanding int
}

// workerState holds per-worker buffers reused across work units
type workerState struct {
	scratch []byte
	lineBuf []byte
}

func newTraversal(ctx context.Context, searchID string, cfg domain.SearchConfig, stack *frontier.Stack[workItem], st *stats, bus eventbus.EventBus) *traversal {
	maxLine := cfg.MaxLineBytes
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	t := &traversal{
		ctx:      ctx,
		searchID: searchID,
		cfg:      cfg,
		matcher:  match.NewMatcher(cfg.Target, cfg.CaseSensitive),
		filter:   newExtensionFilter(cfg.Extensions),
		maxLine:  maxLine,
		stats:    st,
		bus:      bus,
		frontier: stack,
	}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// seed queues the root directory as the first work unit
func (t *traversal) seed(root string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frontier.Clear()
	t.frontier.Push(workItem{path: root})
	t.outstanding = 1
}

// run starts the workers and blocks until every one of them has exited
func (t *traversal) run(workers int) {
	// Wake idle workers so they notice cancellation
	stopWake := context.AfterFunc(t.ctx, func() {
		t.mu.Lock()
		t.cond.Broadcast()
		t.mu.Unlock()
	})
	defer stopWake()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t.worker()
		}()
	}
	wg.Wait()
}

func (t *traversal) worker() {
	w := &workerState{
		scratch: make([]byte, godirwalk.MinimumScratchBufferSize),
		lineBuf: make([]byte, min(64*1024, t.maxLine)),
	}
	for {
		item, ok := t.next()
		if !ok {
			return
		}
		t.process(w, item)
		t.finish()
	}
}

// next pops a work unit, waiting while the frontier is empty but siblings
// still hold outstanding units that may push more
func (t *traversal) next() (workItem, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		if t.ctx.Err() != nil {
			return workItem{}, false
		}
		if item, ok := t.frontier.TryPop(); ok {
			return item, true
		}
		if t.outstanding == 0 {
			return workItem{}, false
		}
		t.cond.Wait()
	}
}

// finish retires one work unit and releases waiting workers once nothing is left
func (t *traversal) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.outstanding--
	if t.outstanding == 0 && t.frontier.Count() == 0 {
		t.cond.Broadcast()
	}
}

func (t *traversal) push(path string) {
	t.mu.Lock()
	t.frontier.Push(workItem{path: path})
	t.outstanding++
	t.mu.Unlock()
	t.cond.Signal()
}

// process expands one directory; a panic is reported and the worker carries on
func (t *traversal) process(w *workerState, item workItem) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Search %s: worker panic in %s: %v\nStack: %s", t.searchID, item.path, r, debug.Stack())
			t.reportError(item.path, errors.Errorf("internal error while searching %s: %v", item.path, r))
		}
	}()
	t.expand(w, item.path)
}

func (t *traversal) expand(w *workerState, dir string) {
	entries, err := godirwalk.ReadDirents(dir, w.scratch)
	if err != nil {
		t.reportError(dir, errors.Wrapf(err, "cannot read directory %s", dir))
		return
	}
	t.stats.dirsExpanded.Add(1)

	for _, de := range entries {
		if t.cancelled() {
			return
		}
		name := de.Name()
		if !t.cfg.IncludeHidden && isHidden(name) {
			continue
		}
		path := filepath.Join(dir, name)

		switch {
		case de.IsDir():
			if !t.cfg.Recursive {
				continue
			}
			t.push(path)
			t.emit(domain.ProgressEvent{SearchID: t.searchID, Path: path, IsFile: false})
		case de.IsRegular():
			t.scan(w, path)
		case de.IsSymlink():
			// symlinked files are scanned, symlinked directories are not followed
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				t.scan(w, path)
			}
		}
	}
}

// scan runs the matcher over one file and reports the outcome
func (t *traversal) scan(w *workerState, path string) {
	if !t.filter.accepts(path) {
		return
	}

	lines, err := t.scanFile(w, path)
	if err != nil {
		t.reportError(path, err)
		return
	}
	if len(lines) == 0 {
		return
	}

	t.stats.filesMatched.Add(1)
	t.stats.linesMatched.Add(int64(len(lines)))
	t.emit(domain.FileFoundEvent{
		SearchID: t.searchID,
		Result:   domain.FileResult{Path: path, Lines: lines},
	})
}

func (t *traversal) scanFile(w *workerState, path string) (lines []domain.LineResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Search %s: panic scanning %s: %v\nStack: %s", t.searchID, path, r, debug.Stack())
			lines, err = nil, errors.Errorf("internal error while scanning %s: %v", path, r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", path)
	}
	defer f.Close()

	t.stats.filesScanned.Add(1)
	t.emit(domain.ProgressEvent{SearchID: t.searchID, Path: path, IsFile: true})

	cr := &countingReader{r: f}
	defer func() { t.stats.bytesRead.Add(cr.n) }()

	// room for the line terminator, "\r\n" at most
	sc := bufio.NewScanner(cr)
	sc.Buffer(w.lineBuf[:0], t.maxLine+2)

	lineNumber := 0
	for sc.Scan() {
		lineNumber++
		raw := sc.Bytes()
		if len(raw) > t.maxLine {
			return nil, t.lineTooLong(lineNumber, path)
		}

		text := string(raw)
		if spans := t.matcher.Find(text); len(spans) > 0 {
			lines = append(lines, domain.LineResult{
				LineNumber: lineNumber,
				Text:       text,
				Spans:      spans,
			})
		}
	}

	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, t.lineTooLong(lineNumber+1, path)
		}
		return nil, errors.Wrapf(err, "error reading %s", path)
	}
	return lines, nil
}

func (t *traversal) lineTooLong(lineNumber int, path string) error {
	return errors.Errorf("line %d of %s is longer than %d bytes", lineNumber, path, t.maxLine)
}

func (t *traversal) cancelled() bool {
	return t.ctx.Err() != nil
}

// emit publishes progress and found events unless the search was cancelled.
// A publisher blocked on a full queue gives up when the search is cancelled.
func (t *traversal) emit(event domain.DomainEvent) {
	t.emitMu.RLock()
	defer t.emitMu.RUnlock()
	if t.cancelled() {
		return
	}
	t.bus.PublishContext(t.ctx, event)
}

// quiesce returns once no progress or found event is being published. Called
// after cancellation, nothing more is published once it returns.
func (t *traversal) quiesce() {
	t.emitMu.Lock()
	t.emitMu.Unlock()
}

func (t *traversal) reportError(path string, err error) {
	t.stats.errors.Add(1)
	t.bus.Publish(domain.SearchErrorEvent{
		SearchID: t.searchID,
		Path:     path,
		Message:  err.Error(),
		Err:      err,
	})
}

// countingReader counts the bytes read from a file
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
