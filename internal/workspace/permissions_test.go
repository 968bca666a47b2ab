package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matthewbaird/leadpilot/internal/types"
)

func TestManageSettings_OwnerAndAdminOnly(t *testing.T) {
	for _, ws := range DefaultCatalog() {
		want := ws.Role == types.RoleOwner || ws.Role == types.RoleAdmin
		assert.Equal(t, want, RoleCan(ws.Role, types.PermManageSettings), ws.ID)
	}
}

func TestPermissionMatrix(t *testing.T) {
	tests := []struct {
		perm                      types.Permission
		owner, admin, agent, view bool
	}{
		{types.PermUpdateLeadStatus, true, true, true, false},
		{types.PermRegenerateReply, true, true, true, false},
		{types.PermManageTemplates, true, true, false, false},
		{types.PermManageSettings, true, true, false, false},
		{types.PermViewSystemStatus, true, true, true, true},
		{types.PermRunSimulator, true, true, true, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.owner, RoleCan(types.RoleOwner, tt.perm), "Owner %s", tt.perm)
		assert.Equal(t, tt.admin, RoleCan(types.RoleAdmin, tt.perm), "Admin %s", tt.perm)
		assert.Equal(t, tt.agent, RoleCan(types.RoleAgent, tt.perm), "Agent %s", tt.perm)
		assert.Equal(t, tt.view, RoleCan(types.RoleViewer, tt.perm), "Viewer %s", tt.perm)
	}
	assert.False(t, RoleCan("Intern", types.PermViewSystemStatus))
}

func TestEveryPermissionHasHint(t *testing.T) {
	for _, p := range types.Permissions {
		h := PermissionHint(p)
		assert.NotEqual(t, DefaultHint, h, "missing hint for %s", p)
		assert.NotEmpty(t, h)
	}
	assert.Equal(t, DefaultHint, PermissionHint("delete_everything"))
	assert.Equal(t, "Only Owner and Admin can edit workspace settings.", PermissionHint(types.PermManageSettings))
}

func TestPermissionsFor_CanonicalOrder(t *testing.T) {
	assert.Equal(t, []types.Permission{types.PermViewSystemStatus}, PermissionsFor(types.RoleViewer))
	assert.Equal(t, []types.Permission{
		types.PermUpdateLeadStatus,
		types.PermRegenerateReply,
		types.PermViewSystemStatus,
		types.PermRunSimulator,
	}, PermissionsFor(types.RoleAgent))
	assert.Len(t, PermissionsFor(types.RoleOwner), 6)
}

func TestProfileFor_ViewerFallback(t *testing.T) {
	assert.Equal(t, "Full access", ProfileFor(types.RoleOwner).Scope)
	assert.Equal(t, "Operational", ProfileFor(types.RoleAgent).Scope)
	assert.Equal(t, ProfileFor(types.RoleViewer), ProfileFor("Unknown"))
}
