// Package mcptools exposes the audit pipeline as MCP tools so agent hosts
// can call structured tools instead of shelling out to the binary.
package mcptools

// version is reported in the MCP server implementation info.
const version = "0.1.0"

// AuditDocumentInput is the input for the audit_document MCP tool.
type AuditDocumentInput struct {
	DocumentPath string `json:"documentPath" jsonschema:"path to the document to audit"`
	RulesPath    string `json:"rulesPath,omitempty" jsonschema:"path to the guideline rule set (default: configured rules)"`
	Strict       bool   `json:"strict,omitempty" jsonschema:"fail on contradictory findings instead of resolving them"`
}

// AuditDocumentOutput is the result of the audit_document MCP tool.
type AuditDocumentOutput struct {
	Status      string `json:"status"` // "completed", "degraded", or "failed"
	Corrections int    `json:"corrections"`
	Failures    int    `json:"failures"`
	RunID       int64  `json:"runId,omitempty"`
	Markdown    string `json:"markdown,omitempty"`
	Message     string `json:"message,omitempty"`
}

// ListAuditRunsInput is the input for the list_audit_runs MCP tool.
type ListAuditRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs to return (default 20)"`
}

// ListAuditRunsOutput is the result of the list_audit_runs MCP tool.
type ListAuditRunsOutput struct {
	Runs []AuditRunSummary `json:"runs"`
}

// AuditRunSummary is a brief overview of one past run.
type AuditRunSummary struct {
	RunID       int64  `json:"runId"`
	DocumentRef string `json:"documentRef"`
	Status      string `json:"status"`
	Corrections int    `json:"corrections"`
	CompletedAt string `json:"completedAt"`
}

// GetAuditRunInput is the input for the get_audit_run MCP tool.
type GetAuditRunInput struct {
	RunID int64 `json:"runId" jsonschema:"id of a stored audit run"`
}

// GetAuditRunOutput is the result of the get_audit_run MCP tool.
type GetAuditRunOutput struct {
	Markdown string `json:"markdown"`
}
