package handler

import (
	"encoding/json"
	"math"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/leadpilot/internal/types"
	"github.com/matthewbaird/leadpilot/internal/workspace"
)

// WorkspaceHandler serves the active workspace, its permissions and the
// workspace-scoped presentation helpers.
type WorkspaceHandler struct {
	model *workspace.Model
}

func NewWorkspaceHandler(model *workspace.Model) *WorkspaceHandler {
	return &WorkspaceHandler{model: model}
}

// require writes a 403 carrying the permission hint when the active role
// lacks p.
func (h *WorkspaceHandler) require(w http.ResponseWriter, p types.Permission) bool {
	if h.model.Can(p) {
		return true
	}
	writeError(w, http.StatusForbidden, "PERMISSION_DENIED", h.model.PermissionHint(p))
	return false
}

// ListWorkspaces returns the catalog and the active id.
// GET /v1/workspaces
func (h *WorkspaceHandler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Workspaces []types.Workspace `json:"workspaces"`
		ActiveID   string            `json:"active_id"`
	}{
		Workspaces: h.model.Workspaces(),
		ActiveID:   h.model.Active().ID,
	})
}

// GetActive returns a snapshot of the active workspace.
// GET /v1/workspaces/active
func (h *WorkspaceHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.model.Snapshot())
}

// SwitchActive makes another catalog entry active.
// POST /v1/workspaces/active
func (h *WorkspaceHandler) SwitchActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if _, ok := h.model.Switch(r.Context(), req.ID); !ok {
		writeError(w, http.StatusNotFound, "UNKNOWN_WORKSPACE", "unknown workspace: "+req.ID)
		return
	}
	writeJSON(w, http.StatusOK, h.model.Snapshot())
}

type permissionStatus struct {
	Permission types.Permission `json:"permission"`
	Allowed    bool             `json:"allowed"`
	Hint       string           `json:"hint,omitempty"`
}

func (h *WorkspaceHandler) status(role types.Role, p types.Permission) permissionStatus {
	s := permissionStatus{Permission: p, Allowed: workspace.RoleCan(role, p)}
	if !s.Allowed {
		s.Hint = workspace.PermissionHint(p)
	}
	return s
}

// ListPermissions returns every permission tag with its state for the
// active role.
// GET /v1/permissions
func (h *WorkspaceHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	role := h.model.Active().Role
	out := make([]permissionStatus, 0, len(types.Permissions))
	for _, p := range types.Permissions {
		out = append(out, h.status(role, p))
	}
	writeJSON(w, http.StatusOK, struct {
		Role        types.Role         `json:"role"`
		Profile     types.RoleProfile  `json:"profile"`
		Permissions []permissionStatus `json:"permissions"`
	}{
		Role:        role,
		Profile:     workspace.ProfileFor(role),
		Permissions: out,
	})
}

// CheckPermission answers a single permission check.
// GET /v1/permissions/{permission}
func (h *WorkspaceHandler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	p := types.Permission(chi.URLParam(r, "permission"))
	if !slices.Contains(types.Permissions, p) {
		writeError(w, http.StatusNotFound, "UNKNOWN_PERMISSION", "unknown permission: "+string(p))
		return
	}
	writeJSON(w, http.StatusOK, h.status(h.model.Active().Role, p))
}

type adjustRequest struct {
	Value    float64 `json:"value"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Decimals int     `json:"decimals"`
}

// AdjustMetric scales a metric by the active workspace multiplier.
// POST /v1/metrics/adjust
func (h *WorkspaceHandler) AdjustMetric(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Decimals < 0 || req.Decimals > 10 {
		writeError(w, http.StatusBadRequest, "INVALID_DECIMALS", "decimals must be between 0 and 10")
		return
	}
	if math.IsInf(req.Value, 0) {
		writeError(w, http.StatusBadRequest, "INVALID_VALUE", "value must be finite")
		return
	}

	ws := h.model.Active()
	writeJSON(w, http.StatusOK, struct {
		WorkspaceID string  `json:"workspace_id"`
		Multiplier  float64 `json:"multiplier"`
		Value       float64 `json:"value"`
		Adjusted    float64 `json:"adjusted"`
	}{
		WorkspaceID: ws.ID,
		Multiplier:  ws.MetricMultiplier,
		Value:       req.Value,
		Adjusted: workspace.AdjustMetric(req.Value, ws.MetricMultiplier, workspace.MetricOptions{
			Min:      req.Min,
			Max:      req.Max,
			Decimals: req.Decimals,
		}),
	})
}

type scopeRequest struct {
	Items     []json.RawMessage `json:"items"`
	MinLength int               `json:"min_length"`
}

// ScopeCollection reorders a list for the active workspace. Items are
// treated as opaque JSON values.
// POST /v1/collections/scope
func (h *WorkspaceHandler) ScopeCollection(w http.ResponseWriter, r *http.Request) {
	var req scopeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.MinLength < 0 || req.MinLength > 1000 {
		writeError(w, http.StatusBadRequest, "INVALID_MIN_LENGTH", "min_length must be between 0 and 1000")
		return
	}

	ws := h.model.Active()
	writeJSON(w, http.StatusOK, struct {
		WorkspaceID string            `json:"workspace_id"`
		Items       []json.RawMessage `json:"items"`
	}{
		WorkspaceID: ws.ID,
		Items:       workspace.ScopeCollection(ws.ID, req.Items, req.MinLength),
	})
}

// UpdateConsent replaces the consent toggles. Requires manage_settings.
// PUT /v1/workspaces/active/consent
func (h *WorkspaceHandler) UpdateConsent(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, types.PermManageSettings) {
		return
	}
	var raw json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	var badPatch bool
	err := h.model.MergeConsent(r.Context(), func(c *types.Consent) error {
		if err := json.Unmarshal(raw, c); err != nil {
			badPatch = true
			return err
		}
		return nil
	})
	if badPatch {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "PERSIST_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.model.Snapshot())
}

type modeRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *WorkspaceHandler) updateMode(w http.ResponseWriter, r *http.Request, set func(*http.Request, bool) error) {
	if !h.require(w, types.PermManageSettings) {
		return
	}
	var req modeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "enabled is required")
		return
	}
	if err := set(r, *req.Enabled); err != nil {
		writeError(w, http.StatusInternalServerError, "PERSIST_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.model.Snapshot())
}

// UpdatePitchMode toggles pitch mode. Requires manage_settings.
// PUT /v1/workspaces/active/pitch-mode
func (h *WorkspaceHandler) UpdatePitchMode(w http.ResponseWriter, r *http.Request) {
	h.updateMode(w, r, func(r *http.Request, on bool) error {
		return h.model.SetPitchMode(r.Context(), on)
	})
}

// UpdateEnterpriseMode toggles enterprise mode. Requires manage_settings.
// PUT /v1/workspaces/active/enterprise-mode
func (h *WorkspaceHandler) UpdateEnterpriseMode(w http.ResponseWriter, r *http.Request) {
	h.updateMode(w, r, func(r *http.Request, on bool) error {
		return h.model.SetEnterpriseMode(r.Context(), on)
	})
}
