package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewAuditMCPServer creates an MCP server with the audit tools registered:
// audit_document, list_audit_runs, and get_audit_run.
func NewAuditMCPServer(svc *AuditService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "rfpaudit",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "audit_document",
		Description: "Audit an RFP document against spelling, grammar, and guideline rules. Returns the consolidated correction table.",
	}, svc.AuditDocument)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_audit_runs",
		Description: "List past audit runs stored in the history database.",
	}, svc.ListAuditRuns)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_audit_run",
		Description: "Fetch a stored audit run and render it as a Markdown table.",
	}, svc.GetAuditRun)

	return server
}

// RunAuditMCPServerStdio runs the MCP server on stdio transport, blocking
// until stdin is closed or the context is cancelled.
func RunAuditMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
