package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/matthewbaird/leadpilot/internal/activity"
	"github.com/matthewbaird/leadpilot/internal/workspace"
)

// auditMinRows keeps the audit table from rendering nearly empty.
const auditMinRows = 4

// AuditHandler serves the audit log of the active workspace.
type AuditHandler struct {
	store activity.Store
	model *workspace.Model
}

func NewAuditHandler(store activity.Store, model *workspace.Model) *AuditHandler {
	return &AuditHandler{store: store, model: model}
}

// ListAuditLogs returns recorded events for the active workspace, newest
// first, scoped for display.
// GET /v1/audit-logs?since=RFC3339&event_types=a,b&limit=n
func (h *AuditHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	opts := activity.DefaultQueryOptions()
	if s := r.URL.Query().Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_SINCE", "since must be RFC3339")
			return
		}
		opts.Since = &t
	}
	if types := r.URL.Query().Get("event_types"); types != "" {
		opts.EventTypes = strings.Split(types, ",")
	}
	opts.Limit = parseLimit(r, opts.Limit, 500)

	ticket := h.model.Ticket()
	entries, total, err := h.store.QueryByWorkspace(r.Context(), ticket.WorkspaceID, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
		return
	}
	if !h.model.Current(ticket) {
		writeError(w, http.StatusConflict, "WORKSPACE_CHANGED", "the active workspace changed during the request")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		WorkspaceID string           `json:"workspace_id"`
		Entries     []activity.Entry `json:"entries"`
		TotalCount  int              `json:"total_count"`
	}{
		WorkspaceID: ticket.WorkspaceID,
		Entries:     workspace.ScopeCollection(ticket.WorkspaceID, entries, auditMinRows),
		TotalCount:  total,
	})
}
