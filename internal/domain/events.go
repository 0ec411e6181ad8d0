package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventProgress        EventType = "Progress"
	EventFileFound       EventType = "FileFound"
	EventSearchError     EventType = "SearchError"
	EventSearchCompleted EventType = "SearchCompleted"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// ProgressEvent is emitted when a directory is queued or a file is opened
type ProgressEvent struct {
	SearchID string
	Path     string
	IsFile   bool
}

func (e ProgressEvent) Type() EventType { return EventProgress }

// FileFoundEvent is emitted when a file has at least one matching line
type FileFoundEvent struct {
	SearchID string
	Result   FileResult
}

func (e FileFoundEvent) Type() EventType { return EventFileFound }

// SearchErrorEvent is emitted for configuration errors and per-file failures
type SearchErrorEvent struct {
	SearchID string
	Path     string // empty for configuration errors
	Message  string
	Err      error
}

func (e SearchErrorEvent) Type() EventType { return EventSearchError }

// SearchCompletedEvent is emitted exactly once per started search
type SearchCompletedEvent struct {
	SearchID string
	Summary  Summary
}

func (e SearchCompletedEvent) Type() EventType { return EventSearchCompleted }
