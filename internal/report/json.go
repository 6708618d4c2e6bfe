// Package report renders finalized audit results for the invocation surface:
// structured JSON for machine consumers and a Markdown table for humans.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dusk-indust/rfpaudit/internal/audit"
)

// WriteJSON writes the result as indented JSON. Field names follow the
// correction model; field order is not significant.
func WriteJSON(w io.Writer, result *audit.DocumentAuditResult) error {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal JSON: %w", err)
	}
	_, err = w.Write(append(out, '\n'))
	return err
}
