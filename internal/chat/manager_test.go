package chat

import (
	"context"
	"testing"
	"time"

	"github.com/matthewbaird/leadpilot/internal/settings"
)

func TestManager_CreateAndGet(t *testing.T) {
	m := NewManager(ManagerOptions{Backend: &fakeBackend{}, MaxAge: time.Hour, IdleTimeout: time.Hour})

	c := m.Create("atlas")
	if c.ID() == "" {
		t.Fatal("expected a conversation id")
	}
	if got := m.Get(c.ID()); got != c {
		t.Errorf("Get returned %v, want created conversation", got)
	}
	if m.Get("missing") != nil {
		t.Error("expected nil for unknown id")
	}

	m.Remove(context.Background(), c.ID())
	if m.Get(c.ID()) != nil {
		t.Error("expected nil after Remove")
	}
}

func TestManager_ExpiredConversationsDropped(t *testing.T) {
	m := NewManager(ManagerOptions{Backend: &fakeBackend{}, MaxAge: time.Nanosecond, IdleTimeout: time.Hour})
	c := m.Create("atlas")
	time.Sleep(time.Millisecond)

	if m.Get(c.ID()) != nil {
		t.Error("expected expired conversation to be dropped")
	}
}

func TestManager_Cleanup(t *testing.T) {
	m := NewManager(ManagerOptions{Backend: &fakeBackend{}, MaxAge: time.Hour, IdleTimeout: time.Nanosecond})
	m.Create("a")
	m.Create("b")
	time.Sleep(time.Millisecond)

	m.Cleanup(context.Background())
	if m.Len() != 0 {
		t.Errorf("Len = %d after cleanup, want 0", m.Len())
	}
}

func TestManager_RunCleanupStopsOnCancel(t *testing.T) {
	m := NewManager(ManagerOptions{Backend: &fakeBackend{}})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.RunCleanup(ctx, time.Millisecond) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("RunCleanup returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunCleanup did not stop")
	}
}

func TestManager_CleanupDeletesPersistedState(t *testing.T) {
	ctx := context.Background()
	bus := &recordingBus{}
	svc := settings.NewService(settings.NewMemoryStore(), bus)
	m := NewManager(ManagerOptions{
		Backend:     &fakeBackend{},
		Persister:   NewSettingsPersister(svc),
		MaxAge:      time.Hour,
		IdleTimeout: 20 * time.Millisecond,
	})

	c := m.Create("atlas")
	c.Send(ctx, "hello")
	if _, err := svc.Get(ctx, StateKey(c.ID())); err != nil {
		t.Fatalf("expected stored chat state: %v", err)
	}

	time.Sleep(40 * time.Millisecond)
	m.Cleanup(ctx)

	if _, err := svc.Get(ctx, StateKey(c.ID())); err != settings.ErrNotFound {
		t.Errorf("Get after cleanup = %v, want ErrNotFound", err)
	}
	for _, e := range bus.events {
		if e.EventType == "setting_changed" {
			t.Errorf("chat state write was published: %s", e.Summary)
		}
	}
}

func TestManager_RemoveDeletesPersistedState(t *testing.T) {
	ctx := context.Background()
	svc := settings.NewService(settings.NewMemoryStore(), nil)
	m := NewManager(ManagerOptions{Backend: &fakeBackend{}, Persister: NewSettingsPersister(svc)})

	c := m.Create("atlas")
	c.Send(ctx, "hello")
	m.Remove(ctx, c.ID())

	if _, err := svc.Get(ctx, StateKey(c.ID())); err != settings.ErrNotFound {
		t.Errorf("Get after Remove = %v, want ErrNotFound", err)
	}
}
