package search

import (
	"sync/atomic"
	"time"

	"greptree/internal/domain"
)

// stats holds counters updated by workers without locking.
// Individual loads are not a consistent snapshot across fields.
type stats struct {
	dirsExpanded atomic.Int64
	filesScanned atomic.Int64
	filesMatched atomic.Int64
	linesMatched atomic.Int64
	bytesRead    atomic.Int64
	errors       atomic.Int64
	startTime    time.Time
}

func newStats() *stats {
	return &stats{startTime: time.Now()}
}

func (s *stats) summary(cancelled bool) domain.Summary {
	return domain.Summary{
		DirsExpanded: s.dirsExpanded.Load(),
		FilesScanned: s.filesScanned.Load(),
		FilesMatched: s.filesMatched.Load(),
		LinesMatched: s.linesMatched.Load(),
		BytesRead:    s.bytesRead.Load(),
		Errors:       s.errors.Load(),
		Elapsed:      time.Since(s.startTime),
		Cancelled:    cancelled,
	}
}
