// Package event defines the domain events raised by workspace, settings and
// chat state changes, and records them into the audit log.
package event

import (
	"context"

	"github.com/matthewbaird/leadpilot/internal/activity"
)

// Publisher sends domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent)
}

// ActivityRecorder writes one audit entry per domain event. It is
// subscribed on the event bus, so it satisfies the bus Handler shape.
type ActivityRecorder struct {
	store activity.Store
}

// NewActivityRecorder creates a new ActivityRecorder backed by the given store.
func NewActivityRecorder(store activity.Store) *ActivityRecorder {
	return &ActivityRecorder{store: store}
}

// HandleEvent records evt. Events with no workspace are recorded under the
// "global" workspace id.
func (r *ActivityRecorder) HandleEvent(ctx context.Context, evt DomainEvent) error {
	workspaceID := evt.WorkspaceID
	if workspaceID == "" {
		workspaceID = GlobalWorkspace
	}
	return r.store.WriteEntries(ctx, []activity.Entry{{
		EventID:     evt.ID,
		EventType:   evt.EventType,
		WorkspaceID: workspaceID,
		OccurredAt:  evt.OccurredAt,
		Summary:     evt.Summary,
	}})
}

// GlobalWorkspace keys audit entries that are not tied to a workspace.
const GlobalWorkspace = "global"
