package domain

import "time"

// SearchConfig describes one search. It is not modified once a search starts.
type SearchConfig struct {
	RootPath      string
	Recursive     bool
	Target        string
	IncludeHidden bool
	CaseSensitive bool
	Extensions    []string // empty means every file is scanned
	MaxLineBytes  int      // 0 selects the engine default
}

// MatchSpan is a half-open [Start, End) byte range within a line.
type MatchSpan struct {
	Start int
	End   int
}

// LineResult is one matching line of a file.
type LineResult struct {
	LineNumber int // 1-based
	Text       string
	Spans      []MatchSpan // ascending, non-overlapping, never empty
}

// FileResult holds every matching line of a file in ascending line order.
type FileResult struct {
	Path  string
	Lines []LineResult
}

// MatchCount returns the total number of spans across all lines
func (r FileResult) MatchCount() int {
	n := 0
	for _, l := range r.Lines {
		n += len(l.Spans)
	}
	return n
}

// EngineState tracks the lifecycle of the search engine
type EngineState int

const (
	StateIdle EngineState = iota
	StateRunning
	StateStopping
	StateCompleted
)

func (s EngineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Summary is a snapshot of the counters collected during one search
type Summary struct {
	DirsExpanded int64
	FilesScanned int64
	FilesMatched int64
	LinesMatched int64
	BytesRead    int64
	Errors       int64
	Elapsed      time.Duration
	Cancelled    bool
}
