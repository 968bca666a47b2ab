package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matthewbaird/leadpilot/internal/types"
)

// Event types published on the bus.
const (
	TypeWorkspaceSwitched     = "workspace_switched"
	TypeConsentUpdated        = "consent_updated"
	TypePitchModeUpdated      = "pitch_mode_updated"
	TypeEnterpriseModeUpdated = "enterprise_mode_updated"
	TypeRolePreferenceUpdated = "role_preference_updated"
	TypeSettingChanged        = "setting_changed"
	TypeChatLeadCaptured      = "chat_lead_captured"
	TypeChatLeadCaptureFailed = "chat_lead_capture_failed"
)

// DomainEvent carries the canonical shape of every event.
type DomainEvent struct {
	ID          string          `json:"id"`
	EventType   string          `json:"event_type"`
	OccurredAt  time.Time       `json:"occurred_at"`
	WorkspaceID string          `json:"workspace_id,omitempty"`
	Summary     string          `json:"summary"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func newEvent(eventType, workspaceID, summary string, payload any) DomainEvent {
	return DomainEvent{
		ID:          newID(),
		EventType:   eventType,
		OccurredAt:  time.Now(),
		WorkspaceID: workspaceID,
		Summary:     summary,
		Payload:     mustJSON(payload),
	}
}

// ── Workspace events ─────────────────────────────────────────────────────────

// WorkspaceSwitchedPayload carries the previous and new workspace.
type WorkspaceSwitchedPayload struct {
	PreviousID string          `json:"previous_id"`
	Workspace  types.Workspace `json:"workspace"`
	Generation uint64          `json:"generation"`
}

func NewWorkspaceSwitched(p WorkspaceSwitchedPayload) DomainEvent {
	return newEvent(TypeWorkspaceSwitched, p.Workspace.ID,
		fmt.Sprintf("Switched workspace from %s to %s", p.PreviousID, p.Workspace.ID), p)
}

// ConsentUpdatedPayload carries the full consent after the change.
type ConsentUpdatedPayload struct {
	Consent types.Consent `json:"consent"`
}

func NewConsentUpdated(workspaceID string, c types.Consent) DomainEvent {
	return newEvent(TypeConsentUpdated, workspaceID, "AI consent settings updated", ConsentUpdatedPayload{Consent: c})
}

// ModePayload carries a boolean mode flag.
type ModePayload struct {
	Enabled bool `json:"enabled"`
}

func NewPitchModeUpdated(workspaceID string, enabled bool) DomainEvent {
	return newEvent(TypePitchModeUpdated, workspaceID,
		fmt.Sprintf("Pitch mode set to %t", enabled), ModePayload{Enabled: enabled})
}

func NewEnterpriseModeUpdated(workspaceID string, enabled bool) DomainEvent {
	return newEvent(TypeEnterpriseModeUpdated, workspaceID,
		fmt.Sprintf("Enterprise mode set to %t", enabled), ModePayload{Enabled: enabled})
}

// RolePreferencePayload carries the dashboard persona.
type RolePreferencePayload struct {
	Role string `json:"role"`
}

func NewRolePreferenceUpdated(role string) DomainEvent {
	return newEvent(TypeRolePreferenceUpdated, "", "Role preference set to "+role, RolePreferencePayload{Role: role})
}

// ── Settings events ──────────────────────────────────────────────────────────

// SettingChangedPayload names the key that changed. Values are not carried
// since keys include tokens.
type SettingChangedPayload struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted,omitempty"`
}

func NewSettingChanged(key string, deleted bool) DomainEvent {
	return newEvent(TypeSettingChanged, "", "Setting changed: "+key, SettingChangedPayload{Key: key, Deleted: deleted})
}

// ── Chat events ──────────────────────────────────────────────────────────────

// ChatLeadPayload carries the captured lead and its backend id.
type ChatLeadPayload struct {
	ConversationID string         `json:"conversation_id"`
	LeadID         int64          `json:"lead_id,omitempty"`
	Lead           types.ChatLead `json:"lead"`
	Error          string         `json:"error,omitempty"`
}

func NewChatLeadCaptured(workspaceID string, p ChatLeadPayload) DomainEvent {
	return newEvent(TypeChatLeadCaptured, workspaceID, "Chat lead captured: "+p.Lead.Email, p)
}

func NewChatLeadCaptureFailed(workspaceID string, p ChatLeadPayload) DomainEvent {
	return newEvent(TypeChatLeadCaptureFailed, workspaceID, "Chat lead capture failed: "+p.Error, p)
}
