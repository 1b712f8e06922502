package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edgectl/edgectl/pkg/runner"
)

// LogEntry is one host event log record.
type LogEntry struct {
	Timestamp time.Time
	Level     string
	Provider  string
	Message   string
}

// WevtutilLog reads the Application event log through the event log
// CLI's text renderer.
type WevtutilLog struct {
	runner *runner.Runner
}

// NewWevtutilLog creates the event log reader.
func NewWevtutilLog(r *runner.Runner) *WevtutilLog {
	return &WevtutilLog{runner: r}
}

// Query returns entries logged by provider at or after since. Order is
// whatever the log renderer produced; callers sort.
func (w *WevtutilLog) Query(ctx context.Context, provider string, since time.Time) ([]LogEntry, error) {
	query := fmt.Sprintf(
		"*[System[Provider[@Name='%s'] and TimeCreated[@SystemTime>='%s']]]",
		provider, since.UTC().Format(time.RFC3339))
	res, err := w.runner.Run(ctx, runner.Command{
		Path: "wevtutil.exe",
		Args: []string{"qe", "Application", "/q:" + query, "/f:text"},
	})
	if err != nil {
		return nil, err
	}
	return parseEventText(res.Output, provider), nil
}

// parseEventText parses the text rendering of event records. Records
// open with "Event[n]:" followed by indented key/value lines; the
// description runs from the Description key to the next record.
func parseEventText(output, provider string) []LogEntry {
	var entries []LogEntry
	var current *LogEntry
	var message []string

	flush := func() {
		if current != nil {
			current.Message = strings.TrimSpace(strings.Join(message, "\n"))
			entries = append(entries, *current)
		}
		current = nil
		message = nil
	}

	inDescription := false
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "Event[") && strings.HasSuffix(trimmed, "]:") {
			flush()
			current = &LogEntry{Provider: provider}
			inDescription = false
			continue
		}
		if current == nil {
			continue
		}
		if inDescription {
			message = append(message, trimmed)
			continue
		}

		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Date":
			current.Timestamp = parseEventTime(trimmed)
		case "Level":
			current.Level = value
		case "Description":
			inDescription = true
			if value != "" {
				message = append(message, value)
			}
		}
	}
	flush()
	return entries
}

// parseEventTime parses the renderer's local timestamp, which reuses
// ':' inside the value ("Date: 2019-03-21T16:12:15.000").
func parseEventTime(line string) time.Time {
	_, value, ok := strings.Cut(line, ": ")
	if !ok {
		return time.Time{}
	}
	value = strings.TrimSpace(value)
	for _, layout := range []string{
		"2006-01-02T15:04:05.000",
		"2006-01-02T15:04:05",
		time.RFC3339,
	} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
