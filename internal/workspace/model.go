package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/matthewbaird/leadpilot/internal/event"
	"github.com/matthewbaird/leadpilot/internal/settings"
	"github.com/matthewbaird/leadpilot/internal/types"
)

// Ticket snapshots the active workspace at the start of an async operation.
// Results carrying a ticket that is no longer current must be discarded.
type Ticket struct {
	WorkspaceID string `json:"workspace_id"`
	Generation  uint64 `json:"generation"`
}

// Snapshot is a consistent read of the whole model.
type Snapshot struct {
	Workspace      types.Workspace    `json:"workspace"`
	RoleProfile    types.RoleProfile  `json:"role_profile"`
	Permissions    []types.Permission `json:"permissions"`
	Consent        types.Consent      `json:"consent"`
	PitchMode      bool               `json:"pitch_mode"`
	EnterpriseMode bool               `json:"enterprise_mode"`
	Generation     uint64             `json:"generation"`
}

// Model is the single-writer, many-reader active workspace state. Writes
// persist through the settings service and publish an event after the state
// change is committed.
//
// writeMu serializes writers from load through publish, so persisted values
// and published events follow the order of in-memory changes. mu guards the
// fields below for readers and is never held across settings or bus calls.
type Model struct {
	catalog  []types.Workspace
	settings *settings.Service
	bus      event.Publisher
	logger   *zap.Logger

	writeMu sync.Mutex

	mu             sync.RWMutex
	active         types.Workspace
	generation     uint64
	consent        types.Consent
	pitchMode      bool
	enterpriseMode bool
}

// Options configures NewModel. A nil Catalog uses DefaultCatalog.
type Options struct {
	Catalog  []types.Workspace
	Settings *settings.Service
	Bus      event.Publisher
	Logger   *zap.Logger
}

// NewModel restores the stored workspace id if it names a catalog entry,
// otherwise starts on the first catalog entry.
func NewModel(ctx context.Context, opts Options) (*Model, error) {
	catalog := opts.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if len(catalog) == 0 {
		return nil, errors.New("workspace catalog is empty")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := opts.Settings
	if svc == nil {
		svc = settings.NewService(settings.NewMemoryStore(), nil)
	}

	m := &Model{
		catalog:  catalog,
		settings: svc,
		bus:      opts.Bus,
		logger:   logger.Named("workspace"),
	}

	active := catalog[0]
	stored, err := svc.GetOr(ctx, settings.KeyWorkspaceID, "")
	if err != nil {
		return nil, fmt.Errorf("reading stored workspace: %w", err)
	}
	if ws, ok := m.Lookup(stored); ok {
		active = ws
	}

	st, err := m.loadState(ctx, active.ID)
	if err != nil {
		return nil, err
	}
	m.active = active
	m.consent, m.pitchMode, m.enterpriseMode = st.consent, st.pitchMode, st.enterpriseMode
	return m, nil
}

type workspaceState struct {
	consent        types.Consent
	pitchMode      bool
	enterpriseMode bool
}

// loadState reads the per-workspace toggles. Stored consent is merged over
// the defaults; unreadable consent falls back to the defaults.
func (m *Model) loadState(ctx context.Context, workspaceID string) (workspaceState, error) {
	st := workspaceState{consent: types.DefaultConsent()}
	err := m.settings.GetJSON(ctx, settings.ConsentKey(workspaceID), &st.consent)
	switch {
	case err == nil, errors.Is(err, settings.ErrNotFound):
	default:
		m.logger.Warn("ignoring stored consent", zap.String("workspace_id", workspaceID), zap.Error(err))
		st.consent = types.DefaultConsent()
	}
	if st.pitchMode, err = m.settings.GetFlag(ctx, settings.PitchModeKey(workspaceID)); err != nil {
		return st, fmt.Errorf("reading pitch mode: %w", err)
	}
	if st.enterpriseMode, err = m.settings.GetFlag(ctx, settings.EnterpriseModeKey(workspaceID)); err != nil {
		return st, fmt.Errorf("reading enterprise mode: %w", err)
	}
	return st, nil
}

// Workspaces returns a copy of the catalog.
func (m *Model) Workspaces() []types.Workspace {
	out := make([]types.Workspace, len(m.catalog))
	copy(out, m.catalog)
	return out
}

// Lookup finds a catalog entry by id.
func (m *Model) Lookup(id string) (types.Workspace, bool) {
	for _, ws := range m.catalog {
		if ws.ID == id {
			return ws, true
		}
	}
	return types.Workspace{}, false
}

func (m *Model) Active() types.Workspace {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Snapshot returns the full state under one read lock.
func (m *Model) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Workspace:      m.active,
		RoleProfile:    ProfileFor(m.active.Role),
		Permissions:    PermissionsFor(m.active.Role),
		Consent:        m.consent,
		PitchMode:      m.pitchMode,
		EnterpriseMode: m.enterpriseMode,
		Generation:     m.generation,
	}
}

// Switch makes id the active workspace and returns it. Unknown ids leave the
// model untouched and return the current workspace with false. A failure to
// persist the id is logged; the in-memory switch still happens.
func (m *Model) Switch(ctx context.Context, id string) (types.Workspace, bool) {
	next, ok := m.Lookup(id)
	if !ok {
		return m.Active(), false
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	st, err := m.loadState(ctx, next.ID)
	if err != nil {
		m.logger.Warn("loading workspace state", zap.String("workspace_id", next.ID), zap.Error(err))
		st = workspaceState{consent: types.DefaultConsent()}
	}

	m.mu.Lock()
	prev := m.active
	m.active = next
	m.generation++
	gen := m.generation
	m.consent, m.pitchMode, m.enterpriseMode = st.consent, st.pitchMode, st.enterpriseMode
	m.mu.Unlock()

	if err := m.settings.Set(ctx, settings.KeyWorkspaceID, next.ID); err != nil {
		m.logger.Warn("persisting workspace id", zap.String("workspace_id", next.ID), zap.Error(err))
	}
	m.publish(ctx, event.NewWorkspaceSwitched(event.WorkspaceSwitchedPayload{
		PreviousID: prev.ID,
		Workspace:  next,
		Generation: gen,
	}))
	return next, true
}

// Ticket captures the current workspace and switch generation.
func (m *Model) Ticket() Ticket {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Ticket{WorkspaceID: m.active.ID, Generation: m.generation}
}

// Current reports whether no switch has happened since t was taken.
func (m *Model) Current(t Ticket) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return t.Generation == m.generation && t.WorkspaceID == m.active.ID
}

// Can reports whether the active role holds p.
func (m *Model) Can(p types.Permission) bool {
	return RoleCan(m.Active().Role, p)
}

func (m *Model) PermissionHint(p types.Permission) string {
	return PermissionHint(p)
}

func (m *Model) RoleProfile() types.RoleProfile {
	return ProfileFor(m.Active().Role)
}

// AdjustMetric scales value by the active workspace's multiplier.
func (m *Model) AdjustMetric(value float64, opts MetricOptions) float64 {
	return AdjustMetric(value, m.Active().MetricMultiplier, opts)
}

// Scope applies ScopeCollection for the active workspace.
func Scope[T any](m *Model, items []T, minLen int) []T {
	return ScopeCollection(m.Active().ID, items, minLen)
}

// ── Consent and modes ───────────────────────────────────────────────────────

func (m *Model) Consent() types.Consent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.consent
}

// SetConsent replaces the active workspace's consent and persists it.
func (m *Model) SetConsent(ctx context.Context, c types.Consent) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.setConsent(ctx, c)
}

// setConsent requires writeMu.
func (m *Model) setConsent(ctx context.Context, c types.Consent) error {
	wsID := m.Active().ID
	if err := m.settings.SetJSON(ctx, settings.ConsentKey(wsID), c); err != nil {
		return err
	}
	m.mu.Lock()
	m.consent = c
	m.mu.Unlock()

	m.publish(ctx, event.NewConsentUpdated(wsID, c))
	return nil
}

// MergeConsent applies patch to a copy of the current consent and persists
// the result. The read and the write happen under one writer lock.
func (m *Model) MergeConsent(ctx context.Context, patch func(*types.Consent) error) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	c := m.Consent()
	if err := patch(&c); err != nil {
		return err
	}
	return m.setConsent(ctx, c)
}

// UpdateConsent flips one consent toggle by its JSON key.
func (m *Model) UpdateConsent(ctx context.Context, key string, value bool) error {
	return m.MergeConsent(ctx, func(c *types.Consent) error {
		switch key {
		case "aiAssistanceEnabled":
			c.AIAssistanceEnabled = value
		case "autoRepliesEnabled":
			c.AutoRepliesEnabled = value
		case "manualOverrideEnabled":
			c.ManualOverrideEnabled = value
		default:
			return fmt.Errorf("unknown consent key %q", key)
		}
		return nil
	})
}

func (m *Model) PitchMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pitchMode
}

func (m *Model) SetPitchMode(ctx context.Context, enabled bool) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	wsID := m.Active().ID
	if err := m.settings.SetFlag(ctx, settings.PitchModeKey(wsID), enabled); err != nil {
		return err
	}
	m.mu.Lock()
	m.pitchMode = enabled
	m.mu.Unlock()

	m.publish(ctx, event.NewPitchModeUpdated(wsID, enabled))
	return nil
}

func (m *Model) EnterpriseMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enterpriseMode
}

func (m *Model) SetEnterpriseMode(ctx context.Context, enabled bool) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	wsID := m.Active().ID
	if err := m.settings.SetFlag(ctx, settings.EnterpriseModeKey(wsID), enabled); err != nil {
		return err
	}
	m.mu.Lock()
	m.enterpriseMode = enabled
	m.mu.Unlock()

	m.publish(ctx, event.NewEnterpriseModeUpdated(wsID, enabled))
	return nil
}

func (m *Model) publish(ctx context.Context, evt event.DomainEvent) {
	if m.bus != nil {
		m.bus.Publish(ctx, evt)
	}
}
