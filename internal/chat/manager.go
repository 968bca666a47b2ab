package chat

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matthewbaird/leadpilot/internal/event"
)

// Manager handles conversation creation, lookup, and cleanup.
type Manager struct {
	backend   Backend
	persister Persister
	bus       event.Publisher
	logger    *zap.Logger

	mu            sync.RWMutex
	conversations map[string]*Conversation
	maxAge        time.Duration
	idleTimeout   time.Duration
}

// ManagerOptions configures NewManager.
type ManagerOptions struct {
	Backend     Backend
	Persister   Persister
	Bus         event.Publisher
	Logger      *zap.Logger
	MaxAge      time.Duration
	IdleTimeout time.Duration
}

// NewManager creates a conversation manager with the given timeouts.
func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 24 * time.Hour
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 30 * time.Minute
	}
	return &Manager{
		backend:       opts.Backend,
		persister:     opts.Persister,
		bus:           opts.Bus,
		logger:        logger.Named("chat"),
		conversations: make(map[string]*Conversation),
		maxAge:        opts.MaxAge,
		idleTimeout:   opts.IdleTimeout,
	}
}

// Create starts a new conversation bound to workspaceID and returns it.
func (m *Manager) Create(workspaceID string) *Conversation {
	c := NewConversation(Options{
		WorkspaceID: workspaceID,
		Backend:     m.backend,
		Persister:   m.persister,
		Bus:         m.bus,
		Logger:      m.logger,
	})
	m.mu.Lock()
	m.conversations[c.ID()] = c
	m.mu.Unlock()
	return c
}

// Get retrieves a conversation by ID. Returns nil if not found or expired;
// expired conversations are dropped by the next Cleanup.
func (m *Manager) Get(id string) *Conversation {
	m.mu.RLock()
	c, ok := m.conversations[id]
	m.mu.RUnlock()
	if !ok || c.isExpired(m.maxAge) || c.isIdle(m.idleTimeout) {
		return nil
	}
	return c
}

// Remove deletes a conversation and its persisted state.
func (m *Manager) Remove(ctx context.Context, id string) {
	m.mu.Lock()
	delete(m.conversations, id)
	m.mu.Unlock()
	m.deleteState(ctx, id)
}

func (m *Manager) deleteState(ctx context.Context, id string) {
	if m.persister == nil {
		return
	}
	if err := m.persister.DeleteChatState(ctx, id); err != nil {
		m.logger.Warn("deleting chat state", zap.String("conversation_id", id), zap.Error(err))
	}
}

// Len reports the number of live conversations.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conversations)
}

// Cleanup removes all expired and idle conversations along with their
// persisted state.
func (m *Manager) Cleanup(ctx context.Context) {
	var removed []string
	m.mu.Lock()
	for id, c := range m.conversations {
		if c.isExpired(m.maxAge) || c.isIdle(m.idleTimeout) {
			delete(m.conversations, id)
			removed = append(removed, id)
		}
	}
	m.mu.Unlock()

	for _, id := range removed {
		m.deleteState(ctx, id)
	}
}

// RunCleanup calls Cleanup every interval until ctx is done. A
// non-positive interval defaults to five minutes.
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Cleanup(ctx)
		}
	}
}
