// Package mcptools exposes the decision engine and the workspace model as
// MCP tools so assistants can ask for explanations, permission checks and
// scoped metrics over stdio.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/matthewbaird/leadpilot/internal/signals"
	"github.com/matthewbaird/leadpilot/internal/types"
	"github.com/matthewbaird/leadpilot/internal/workspace"
)

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// resolveWorkspace returns the named workspace, or the active one when id is
// empty.
func resolveWorkspace(model *workspace.Model, id string) (types.Workspace, error) {
	if id == "" {
		return model.Active(), nil
	}
	ws, ok := model.Lookup(id)
	if !ok {
		return types.Workspace{}, fmt.Errorf("unknown workspace %q", id)
	}
	return ws, nil
}

// --- explain_message ---

// ExplainMessageTool handles the explain_message MCP tool.
type ExplainMessageTool struct{}

func NewExplainMessageTool() *ExplainMessageTool { return &ExplainMessageTool{} }

// Definition returns the MCP tool definition for registration.
func (t *ExplainMessageTool) Definition() mcp.Tool {
	return mcp.NewTool("explain_message",
		mcp.WithDescription(
			"Explain why an inbox message would be prioritized: detected keywords, "+
				"intent, urgency and a 45-98 confidence score.",
		),
		mcp.WithString("subject", mcp.Description("Message subject line.")),
		mcp.WithString("body", mcp.Description("Message body text.")),
		mcp.WithString("priority",
			mcp.Description("Known priority. Overrides urgency detection when high or low."),
			mcp.Enum("high", "medium", "low"),
		),
		mcp.WithString("category", mcp.Description("Fallback category when no intent pattern matches.")),
		mcp.WithString("action_type", mcp.Description("Decision being explained, e.g. 'AI reply'.")),
	)
}

// Handle processes the explain_message tool call.
func (t *ExplainMessageTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := signals.ExplanationInput{
		Subject:    req.GetString("subject", ""),
		Body:       req.GetString("body", ""),
		Priority:   req.GetString("priority", ""),
		Category:   req.GetString("category", ""),
		ActionType: req.GetString("action_type", ""),
	}
	if strings.TrimSpace(in.Subject+in.Body) == "" {
		return mcp.NewToolResultError("'subject' or 'body' is required"), nil
	}
	return jsonResult(signals.BuildExplanation(in))
}

// --- analyze_email ---

// AnalyzeEmailTool handles the analyze_email MCP tool.
type AnalyzeEmailTool struct{}

func NewAnalyzeEmailTool() *AnalyzeEmailTool { return &AnalyzeEmailTool{} }

func (t *AnalyzeEmailTool) Definition() mcp.Tool {
	return mcp.NewTool("analyze_email",
		mcp.WithDescription(
			"Classify an email (Lead, Support, Billing, Other), assign a priority, "+
				"summarize it and explain the suggested AI reply.",
		),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Email subject line.")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Email body text.")),
		mcp.WithString("from_email", mcp.Description("Sender address.")),
	)
}

func (t *AnalyzeEmailTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	email := signals.Email{
		From:    req.GetString("from_email", ""),
		Subject: req.GetString("subject", ""),
		Body:    req.GetString("body", ""),
	}
	if strings.TrimSpace(email.Subject) == "" && strings.TrimSpace(email.Body) == "" {
		return mcp.NewToolResultError("'subject' and 'body' are required"), nil
	}

	a := signals.Analyze(email, "")
	return jsonResult(struct {
		Analysis    signals.Analysis  `json:"analysis"`
		Explanation types.Explanation `json:"explanation"`
	}{a, signals.ExplainEmail(email, a)})
}

// --- check_permission ---

// CheckPermissionTool handles the check_permission MCP tool.
type CheckPermissionTool struct {
	model *workspace.Model
}

func NewCheckPermissionTool(model *workspace.Model) *CheckPermissionTool {
	return &CheckPermissionTool{model: model}
}

func (t *CheckPermissionTool) Definition() mcp.Tool {
	names := make([]string, len(types.Permissions))
	for i, p := range types.Permissions {
		names[i] = string(p)
	}
	return mcp.NewTool("check_permission",
		mcp.WithDescription(
			"Check whether the role of a workspace may perform an action. "+
				"Denied checks include the hint shown to the user.",
		),
		mcp.WithString("permission", mcp.Required(), mcp.Enum(names...)),
		mcp.WithString("workspace_id", mcp.Description("Workspace to check. Defaults to the active workspace.")),
	)
}

func (t *CheckPermissionTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := types.Permission(req.GetString("permission", ""))
	if !slices.Contains(types.Permissions, p) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown permission %q", p)), nil
	}
	ws, err := resolveWorkspace(t.model, req.GetString("workspace_id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	allowed := workspace.RoleCan(ws.Role, p)
	hint := ""
	if !allowed {
		hint = workspace.PermissionHint(p)
	}
	return jsonResult(struct {
		WorkspaceID string           `json:"workspace_id"`
		Role        types.Role       `json:"role"`
		Permission  types.Permission `json:"permission"`
		Allowed     bool             `json:"allowed"`
		Hint        string           `json:"hint,omitempty"`
	}{ws.ID, ws.Role, p, allowed, hint})
}

// --- scope_metric ---

// ScopeMetricTool handles the scope_metric MCP tool.
type ScopeMetricTool struct {
	model *workspace.Model
}

func NewScopeMetricTool(model *workspace.Model) *ScopeMetricTool {
	return &ScopeMetricTool{model: model}
}

func (t *ScopeMetricTool) Definition() mcp.Tool {
	return mcp.NewTool("scope_metric",
		mcp.WithDescription("Scale a dashboard metric by a workspace's multiplier, clamp and round it."),
		mcp.WithNumber("value", mcp.Required(), mcp.Description("Raw metric value.")),
		mcp.WithNumber("decimals", mcp.Description("Decimal places. Defaults to 0 (round half up).")),
		mcp.WithNumber("min", mcp.Description("Lower bound. Defaults to 0.")),
		mcp.WithNumber("max", mcp.Description("Upper bound. 0 or omitted means unbounded.")),
		mcp.WithString("workspace_id", mcp.Description("Workspace to scope for. Defaults to the active workspace.")),
	)
}

func (t *ScopeMetricTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := req.RequireFloat("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	decimals := int(req.GetFloat("decimals", 0))
	if decimals < 0 || decimals > 10 {
		return mcp.NewToolResultError("'decimals' must be between 0 and 10"), nil
	}
	ws, err := resolveWorkspace(t.model, req.GetString("workspace_id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	adjusted := workspace.AdjustMetric(value, ws.MetricMultiplier, workspace.MetricOptions{
		Min:      req.GetFloat("min", 0),
		Max:      req.GetFloat("max", 0),
		Decimals: decimals,
	})
	return jsonResult(struct {
		WorkspaceID string  `json:"workspace_id"`
		Multiplier  float64 `json:"multiplier"`
		Value       float64 `json:"value"`
		Adjusted    float64 `json:"adjusted"`
	}{ws.ID, ws.MetricMultiplier, value, adjusted})
}
