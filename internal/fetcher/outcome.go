package fetcher

import (
	"time"

	"subfetch/internal/catalog"
)

// Status is the terminal state of one file.
type Status string

const (
	StatusDownloaded      Status = "downloaded"
	StatusNotFound        Status = "not_found"
	StatusSkippedExisting Status = "skipped_existing"
	StatusSkippedRecent   Status = "skipped_recent"
	StatusSkippable       Status = "skippable"
	StatusUnrecognized    Status = "unrecognized"
	StatusFailed          Status = "failed"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusDownloaded,
	StatusNotFound,
	StatusSkippedExisting,
	StatusSkippedRecent,
	StatusFailed,
	StatusUnrecognized,
	StatusSkippable,
}

// Lookup sources.
const (
	SourceSignature = "signature"
	SourceText      = "text"
)

// Outcome is the per-file result.
type Outcome struct {
	Path         string
	Status       Status
	Source       string
	Query        string
	Season       string
	Episode      string
	Candidate    catalog.Candidate
	SubtitlePath string
	// Cached reports that the payload came from the local cache.
	Cached   bool
	Err      error
	Duration time.Duration
}

// Summary aggregates the outcomes of a run in discovery order.
type Summary struct {
	RunID    string
	Outcomes []Outcome
	Started  time.Time
	Duration time.Duration
}

// Count returns the number of outcomes with status.
func (s Summary) Count(status Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Counts returns per-status totals, omitting zero entries.
func (s Summary) Counts() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, o := range s.Outcomes {
		counts[o.Status]++
	}
	return counts
}

// recordable reports whether the outcome belongs in history. Cooldown skips
// are left out so they do not extend the window they were derived from.
func (o Outcome) recordable() bool {
	switch o.Status {
	case StatusSkippable, StatusUnrecognized, StatusSkippedRecent:
		return false
	default:
		return o.Path != ""
	}
}
