package activity

import (
	"context"
	"testing"
	"time"
)

func testEntry(id, workspaceID, eventType, summary string, daysAgo int) Entry {
	return Entry{
		EventID:     id,
		EventType:   eventType,
		WorkspaceID: workspaceID,
		OccurredAt:  time.Now().AddDate(0, 0, -daysAgo),
		Summary:     summary,
	}
}

func TestMemoryStore_WriteAndQuery(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entries := []Entry{
		testEntry("e1", "northwind", "consent_updated", "Consent", 3),
		testEntry("e2", "northwind", "workspace_switched", "Switched", 1),
		testEntry("e3", "atlas", "workspace_switched", "Switched", 1),
	}
	if err := store.WriteEntries(ctx, entries); err != nil {
		t.Fatalf("WriteEntries: %v", err)
	}

	results, total, err := store.QueryByWorkspace(ctx, "northwind", DefaultQueryOptions())
	if err != nil {
		t.Fatalf("QueryByWorkspace: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(results) != 2 || results[0].EventID != "e2" {
		t.Errorf("expected newest entry first, got %+v", results)
	}
}

func TestMemoryStore_DuplicateEventIgnored(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	e := testEntry("e1", "northwind", "consent_updated", "Consent", 1)
	store.WriteEntries(ctx, []Entry{e})
	store.WriteEntries(ctx, []Entry{e})

	_, total, _ := store.QueryByWorkspace(ctx, "northwind", DefaultQueryOptions())
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestMemoryStore_FilterEventTypeAndWindow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.WriteEntries(ctx, []Entry{
		testEntry("e1", "northwind", "consent_updated", "Recent consent", 2),
		testEntry("e2", "northwind", "pitch_mode_updated", "Pitch", 2),
		testEntry("e3", "northwind", "consent_updated", "Old consent", 90),
	})

	opts := DefaultQueryOptions()
	opts.EventTypes = []string{"consent_updated"}
	results, total, err := store.QueryByWorkspace(ctx, "northwind", opts)
	if err != nil {
		t.Fatalf("QueryByWorkspace: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(results) != 1 || results[0].Summary != "Recent consent" {
		t.Errorf("expected only the recent consent entry, got %+v", results)
	}
}

func TestMemoryStore_Limit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for i := 0; i < 5; i++ {
		store.WriteEntries(ctx, []Entry{testEntry(string(rune('a'+i)), "juniper", "setting_changed", "x", i)})
	}

	opts := DefaultQueryOptions()
	opts.Limit = 2
	results, total, _ := store.QueryByWorkspace(ctx, "juniper", opts)
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(results) != 2 {
		t.Errorf("results = %d, want 2", len(results))
	}
}

func TestMemoryStore_EmptyStore(t *testing.T) {
	results, total, err := NewMemoryStore().QueryByWorkspace(context.Background(), "nobody", DefaultQueryOptions())
	if err != nil {
		t.Fatalf("QueryByWorkspace: %v", err)
	}
	if total != 0 || len(results) != 0 {
		t.Errorf("expected empty results from empty store")
	}
}

func TestMemoryStore_EvictsOldestBeyondCapacity(t *testing.T) {
	ctx := context.Background()
	store := NewBoundedMemoryStore(3)

	for i, id := range []string{"a", "b", "c", "d", "e"} {
		store.WriteEntries(ctx, []Entry{testEntry(id, "atlas", "setting_changed", id, 10-i)})
	}

	results, total, err := store.QueryByWorkspace(ctx, "atlas", DefaultQueryOptions())
	if err != nil {
		t.Fatalf("QueryByWorkspace: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if results[0].EventID != "e" || results[2].EventID != "c" {
		t.Errorf("expected entries e..c, got %+v", results)
	}

	// An evicted id may be written again.
	store.WriteEntries(ctx, []Entry{testEntry("a", "atlas", "setting_changed", "a", 0)})
	if _, total, _ := store.QueryByWorkspace(ctx, "atlas", DefaultQueryOptions()); total != 3 {
		t.Errorf("total = %d after rewrite, want 3", total)
	}
}
