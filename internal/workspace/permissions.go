package workspace

import (
	"slices"

	"github.com/matthewbaird/leadpilot/internal/types"
)

// DefaultHint is returned for permission tags without a specific hint.
const DefaultHint = "This action is limited by your current role."

var permissionMatrix = map[types.Role][]types.Permission{
	types.RoleOwner: types.Permissions,
	types.RoleAdmin: types.Permissions,
	types.RoleAgent: {
		types.PermUpdateLeadStatus,
		types.PermRegenerateReply,
		types.PermViewSystemStatus,
		types.PermRunSimulator,
	},
	types.RoleViewer: {types.PermViewSystemStatus},
}

var permissionHints = map[types.Permission]string{
	types.PermUpdateLeadStatus: "Only Owner, Admin, and Agent can change lead stages.",
	types.PermRegenerateReply:  "Only Owner, Admin, and Agent can regenerate AI replies.",
	types.PermManageTemplates:  "Only Owner and Admin can modify templates.",
	types.PermManageSettings:   "Only Owner and Admin can edit workspace settings.",
	types.PermRunSimulator:     "Only Owner, Admin, and Agent can run simulation controls.",
	types.PermViewSystemStatus: "Status visibility is available to every role.",
}

var roleProfiles = map[types.Role]types.RoleProfile{
	types.RoleOwner: {
		Scope:       "Full access",
		Description: "Can manage settings, assignments, workflows, and all governance controls.",
	},
	types.RoleAdmin: {
		Scope:       "Administrative",
		Description: "Can manage operations and settings, with broad control over workspace workflows.",
	},
	types.RoleAgent: {
		Scope:       "Operational",
		Description: "Can execute day-to-day lead and reply actions, without workspace governance changes.",
	},
	types.RoleViewer: {
		Scope:       "Read-only",
		Description: "Can review activity and analytics, with no write actions.",
	},
}

// RoleCan reports whether role holds permission. Unknown roles hold nothing.
func RoleCan(role types.Role, p types.Permission) bool {
	return slices.Contains(permissionMatrix[role], p)
}

// PermissionsFor returns the permissions granted to role, in canonical order.
func PermissionsFor(role types.Role) []types.Permission {
	var out []types.Permission
	for _, p := range types.Permissions {
		if RoleCan(role, p) {
			out = append(out, p)
		}
	}
	return out
}

// PermissionHint returns the fixed explanation for p.
func PermissionHint(p types.Permission) string {
	if h, ok := permissionHints[p]; ok {
		return h
	}
	return DefaultHint
}

// ProfileFor returns the role profile, falling back to Viewer.
func ProfileFor(role types.Role) types.RoleProfile {
	if p, ok := roleProfiles[role]; ok {
		return p
	}
	return roleProfiles[types.RoleViewer]
}
