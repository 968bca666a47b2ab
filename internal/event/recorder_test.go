package event

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/leadpilot/internal/activity"
	"github.com/matthewbaird/leadpilot/internal/types"
)

func TestActivityRecorder_WritesEntry(t *testing.T) {
	ctx := context.Background()
	store := activity.NewMemoryStore()
	rec := NewActivityRecorder(store)

	evt := NewConsentUpdated("northwind", types.DefaultConsent())
	require.NoError(t, rec.HandleEvent(ctx, evt))

	entries, total, err := store.QueryByWorkspace(ctx, "northwind", activity.DefaultQueryOptions())
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, evt.ID, entries[0].EventID)
	assert.Equal(t, TypeConsentUpdated, entries[0].EventType)
	assert.Equal(t, "AI consent settings updated", entries[0].Summary)
}

func TestActivityRecorder_GlobalWorkspace(t *testing.T) {
	ctx := context.Background()
	store := activity.NewMemoryStore()
	rec := NewActivityRecorder(store)

	require.NoError(t, rec.HandleEvent(ctx, NewRolePreferenceUpdated("Founder")))

	entries, _, err := store.QueryByWorkspace(ctx, GlobalWorkspace, activity.DefaultQueryOptions())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Role preference set to Founder", entries[0].Summary)
}

func TestNewWorkspaceSwitched_Summary(t *testing.T) {
	evt := NewWorkspaceSwitched(WorkspaceSwitchedPayload{
		PreviousID: "northwind",
		Workspace:  types.Workspace{ID: "atlas"},
		Generation: 2,
	})
	assert.Equal(t, "atlas", evt.WorkspaceID)
	assert.Equal(t, "Switched workspace from northwind to atlas", evt.Summary)
	assert.JSONEq(t, `{"previous_id":"northwind","workspace":{"id":"atlas","name":"","avatar":"","color":"","role":"","metric_multiplier":0},"generation":2}`, string(evt.Payload))
}
