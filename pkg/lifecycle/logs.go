package lifecycle

import (
	"context"
	"sort"
	"time"

	"github.com/edgectl/edgectl/pkg/platform"
)

// GetLogs returns the runtime's event log records since the given
// time, oldest first.
func (o *Orchestrator) GetLogs(ctx context.Context, since time.Time) ([]platform.LogEntry, error) {
	if o.deps.EventLog == nil {
		return nil, NewPreconditionError("no event log source configured")
	}
	entries, err := o.deps.EventLog.Query(ctx, o.deps.Layout.EventLogName, since)
	if err != nil {
		return nil, NewCommandError("failed to read the event log", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}
