package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/matthewbaird/leadpilot/internal/workspace"
)

const instructions = `leadpilot explains inbox and lead decisions.
Use explain_message for a single message, analyze_email to classify an email,
check_permission before suggesting an action to a user, and scope_metric to
show a dashboard number the way a workspace sees it.`

// New builds the MCP server with every tool registered.
func New(model *workspace.Model, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"leadpilot",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	explain := NewExplainMessageTool()
	s.AddTool(explain.Definition(), explain.Handle)

	analyze := NewAnalyzeEmailTool()
	s.AddTool(analyze.Definition(), analyze.Handle)

	permission := NewCheckPermissionTool(model)
	s.AddTool(permission.Definition(), permission.Handle)

	metric := NewScopeMetricTool(model)
	s.AddTool(metric.Definition(), metric.Handle)

	return s
}
