package settings

// Storage keys shared with the browser client.
const (
	KeyWorkspaceID    = "automation-workspace-id"
	KeyRolePreference = "automation-role"
	KeyChatState      = "automation-chat-state"
	KeyAccessToken    = "accessToken"
	KeyRefreshToken   = "refreshToken"
	KeyUserEmail      = "automation-user-email"
)

func ConsentKey(workspaceID string) string {
	return "automation-consent-" + workspaceID
}

func PitchModeKey(workspaceID string) string {
	return "automation-pitch-mode-" + workspaceID
}

func EnterpriseModeKey(workspaceID string) string {
	return "automation-enterprise-mode-" + workspaceID
}

// RolePreference is the dashboard persona, separate from the workspace role.
type RolePreference string

const (
	RoleSales   RolePreference = "Sales"
	RoleSupport RolePreference = "Support"
	RoleFounder RolePreference = "Founder"
)

var RolePreferences = []RolePreference{RoleSales, RoleSupport, RoleFounder}

// ParseRolePreference returns the matching preference, or Sales for
// anything unrecognized.
func ParseRolePreference(s string) (RolePreference, bool) {
	for _, r := range RolePreferences {
		if string(r) == s {
			return r, true
		}
	}
	return RoleSales, false
}
