package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"subfetch/internal/fetcher"
)

// renderSummary prints one row per file that needed attention followed by
// the per-status totals. Skippable and unrecognized files only show up in
// the totals.
func renderSummary(summary fetcher.Summary, colorize bool) string {
	var b strings.Builder

	var rows [][]string
	for _, o := range summary.Outcomes {
		switch o.Status {
		case fetcher.StatusSkippable, fetcher.StatusUnrecognized:
			continue
		}
		rows = append(rows, []string{
			filepath.Base(o.Path),
			paint(string(o.Status), statusColor(o.Status), colorize),
			o.Source,
			outcomeDetail(o),
		})
	}
	if len(rows) > 0 {
		b.WriteString(renderTable([]string{"File", "Status", "Source", "Detail"}, rows, nil))
		b.WriteString("\n")
	}

	var parts []string
	counts := summary.Counts()
	for _, status := range fetcher.Statuses {
		if n := counts[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", status, n))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "no files")
	}
	fmt.Fprintf(&b, "run %s: %d file(s) in %s: %s\n",
		summary.RunID,
		len(summary.Outcomes),
		summary.Duration.Round(time.Millisecond),
		strings.Join(parts, ", "),
	)
	return b.String()
}

func outcomeDetail(o fetcher.Outcome) string {
	switch o.Status {
	case fetcher.StatusDownloaded:
		detail := o.Candidate.Title
		if o.Cached {
			detail += " (cached)"
		}
		return detail
	case fetcher.StatusNotFound:
		if o.Query != "" {
			return "query: " + strconv.Quote(o.Query)
		}
		return ""
	case fetcher.StatusFailed:
		if o.Err != nil {
			return o.Err.Error()
		}
		return ""
	default:
		return ""
	}
}

func statusColor(status fetcher.Status) string {
	switch status {
	case fetcher.StatusDownloaded:
		return ansiGreen
	case fetcher.StatusNotFound, fetcher.StatusSkippedRecent:
		return ansiYellow
	case fetcher.StatusFailed:
		return ansiRed
	default:
		return ""
	}
}
