// Package types holds the value types shared by the decision engine, the
// workspace model and the service surfaces. Field names follow the JSON shapes
// the dashboard already reads and writes.
package types

// Role is the user's role inside a workspace. It is an attribute of the
// workspace, not of the session.
type Role string

const (
	RoleOwner  Role = "Owner"
	RoleAdmin  Role = "Admin"
	RoleAgent  Role = "Agent"
	RoleViewer Role = "Viewer"
)

// Roles lists every role in descending order of authority.
var Roles = []Role{RoleOwner, RoleAdmin, RoleAgent, RoleViewer}

// Permission is a named capability gated by role.
type Permission string

const (
	PermUpdateLeadStatus Permission = "update_lead_status"
	PermRegenerateReply  Permission = "regenerate_reply"
	PermManageTemplates  Permission = "manage_templates"
	PermManageSettings   Permission = "manage_settings"
	PermViewSystemStatus Permission = "view_system_status"
	PermRunSimulator     Permission = "run_simulator"
)

// Permissions is the closed set of permission tags.
var Permissions = []Permission{
	PermUpdateLeadStatus,
	PermRegenerateReply,
	PermManageTemplates,
	PermManageSettings,
	PermViewSystemStatus,
	PermRunSimulator,
}

// Workspace is a tenant scope with its own role and derived-metric multiplier.
type Workspace struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Avatar           string  `json:"avatar"`
	ColorToken       string  `json:"color"`
	Role             Role    `json:"role"`
	MetricMultiplier float64 `json:"metric_multiplier"`
}

// RoleProfile is the human-readable summary of what a role may do.
type RoleProfile struct {
	Scope       string `json:"scope"`
	Description string `json:"description"`
}

// Consent holds the per-workspace AI governance toggles. JSON keys match the
// stored format.
type Consent struct {
	AIAssistanceEnabled   bool `json:"aiAssistanceEnabled"`
	AutoRepliesEnabled    bool `json:"autoRepliesEnabled"`
	ManualOverrideEnabled bool `json:"manualOverrideEnabled"`
}

// DefaultConsent returns consent with every toggle enabled.
func DefaultConsent() Consent {
	return Consent{
		AIAssistanceEnabled:   true,
		AutoRepliesEnabled:    true,
		ManualOverrideEnabled: true,
	}
}

// ConfidenceLevel is the three-level bucket of a confidence score.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "Low"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceHigh   ConfidenceLevel = "High"
)

// Signal is one labelled line of an explanation panel.
type Signal struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Hint  string `json:"hint"`
}

// Confidence is a bounded score with its level.
type Confidence struct {
	Score int             `json:"score"`
	Level ConfidenceLevel `json:"level"`
}

// Explanation is the structured, human-readable account of why an AI action
// was taken. It is built per analyzed item and never persisted.
type Explanation struct {
	ActionType string     `json:"action_type"`
	Summary    string     `json:"summary"`
	Reason     string     `json:"reason"`
	Signals    []Signal   `json:"signals"`
	Confidence Confidence `json:"confidence"`
}

// ChatLead is the lead captured from a chat conversation.
type ChatLead struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Company  string `json:"company,omitempty"`
	Message  string `json:"message"`
	Language string `json:"language,omitempty"`
}
