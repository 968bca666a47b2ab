// Package activity stores the audit trail of workspace, settings and chat
// events shown on the audit log page.
package activity

import (
	"context"
	"time"
)

// Entry is one audit log row.
type Entry struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	WorkspaceID string    `json:"workspace_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Summary     string    `json:"summary"`
}

// Store is the interface for reading and writing audit entries.
type Store interface {
	// WriteEntries appends entries. Entries with an already stored EventID
	// are ignored.
	WriteEntries(ctx context.Context, entries []Entry) error

	// QueryByWorkspace returns entries for one workspace, newest first.
	QueryByWorkspace(ctx context.Context, workspaceID string, opts QueryOptions) (entries []Entry, totalCount int, err error)
}

// QueryOptions controls filtering and pagination for audit queries.
type QueryOptions struct {
	Since      *time.Time // default: 30 days ago
	EventTypes []string   // filter to specific event types
	Limit      int        // max results (default: 100, max: 500)
}

// DefaultQueryOptions returns QueryOptions with sensible defaults.
func DefaultQueryOptions() QueryOptions {
	since := time.Now().AddDate(0, 0, -30)
	return QueryOptions{
		Since: &since,
		Limit: 100,
	}
}
