package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/rfpaudit/internal/audit"
	"github.com/dusk-indust/rfpaudit/internal/history"
	"github.com/dusk-indust/rfpaudit/internal/report"
	"github.com/dusk-indust/rfpaudit/internal/retrieval"
	"github.com/dusk-indust/rfpaudit/internal/rules"
)

// AuditService handles MCP tool calls. Each audit_document call builds a
// fresh pipeline, so calls are independent and safe to retry.
type AuditService struct {
	cfg       audit.Config
	rulesPath string
	store     *history.Store // nil when history is disabled
}

// NewAuditService creates an AuditService. rulesPath is the default rule set
// used when a call does not supply one; store may be nil.
func NewAuditService(cfg audit.Config, rulesPath string, store *history.Store) *AuditService {
	return &AuditService{
		cfg:       cfg,
		rulesPath: rulesPath,
		store:     store,
	}
}

// AuditDocument runs the full pipeline against one document.
func (s *AuditService) AuditDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AuditDocumentInput,
) (*mcp.CallToolResult, AuditDocumentOutput, error) {
	rulesPath := input.RulesPath
	if rulesPath == "" {
		rulesPath = s.rulesPath
	}

	var (
		ruleset *rules.RuleSet
		err     error
	)
	if rulesPath == "" {
		ruleset, err = rules.Default()
	} else {
		ruleset, err = rules.Load(rulesPath)
	}
	if err != nil {
		return nil, AuditDocumentOutput{Status: "failed", Message: err.Error()}, nil
	}

	cfg := s.cfg
	cfg.StrictConflicts = cfg.StrictConflicts || input.Strict

	pipeline := audit.NewPipeline(cfg, retrieval.NewFileRetriever(), ruleset)
	defer pipeline.Close()

	result, err := pipeline.Run(ctx, input.DocumentPath)
	if err != nil {
		var pe *audit.PipelineError
		if errors.As(err, &pe) {
			return nil, AuditDocumentOutput{
				Status:  "failed",
				Message: fmt.Sprintf("stage %s: %s", pe.Stage, pe.Reason),
			}, nil
		}
		return nil, AuditDocumentOutput{Status: "failed", Message: err.Error()}, nil
	}

	out := AuditDocumentOutput{
		Status:      "completed",
		Corrections: len(result.Corrections),
		Failures:    len(result.StageFailures),
		Markdown:    report.MarkdownTable(result),
	}
	if len(result.StageFailures) > 0 {
		out.Status = "degraded"
	}

	if s.store != nil {
		if id, err := s.store.SaveRun(ctx, result); err == nil {
			out.RunID = id
		}
	}

	return nil, out, nil
}

// ListAuditRuns lists past runs from the history store.
func (s *AuditService) ListAuditRuns(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListAuditRunsInput,
) (*mcp.CallToolResult, ListAuditRunsOutput, error) {
	if s.store == nil {
		return nil, ListAuditRunsOutput{}, errors.New("audit history is not enabled")
	}

	runs, err := s.store.ListRuns(ctx, input.Limit)
	if err != nil {
		return nil, ListAuditRunsOutput{}, err
	}

	out := ListAuditRunsOutput{Runs: []AuditRunSummary{}}
	for _, r := range runs {
		out.Runs = append(out.Runs, AuditRunSummary{
			RunID:       r.ID,
			DocumentRef: r.DocumentRef,
			Status:      r.Status,
			Corrections: r.Corrections,
			CompletedAt: r.CompletedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return nil, out, nil
}

// GetAuditRun re-renders a stored run as Markdown.
func (s *AuditService) GetAuditRun(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetAuditRunInput,
) (*mcp.CallToolResult, GetAuditRunOutput, error) {
	if s.store == nil {
		return nil, GetAuditRunOutput{}, errors.New("audit history is not enabled")
	}

	result, err := s.store.GetResult(ctx, input.RunID)
	if err != nil {
		return nil, GetAuditRunOutput{}, err
	}

	return nil, GetAuditRunOutput{Markdown: report.MarkdownTable(result)}, nil
}
