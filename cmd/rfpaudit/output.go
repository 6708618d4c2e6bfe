package main

import (
	"fmt"
	"io"

	"github.com/dusk-indust/rfpaudit/internal/audit"
	"github.com/dusk-indust/rfpaudit/internal/report"
)

// writeResult renders the result in the requested format.
func writeResult(w io.Writer, format string, result *audit.DocumentAuditResult) error {
	switch format {
	case "json":
		return report.WriteJSON(w, result)
	case "markdown", "":
		_, err := io.WriteString(w, report.MarkdownTable(result))
		return err
	default:
		return fmt.Errorf("unknown format %q (want markdown or json)", format)
	}
}
