package report

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/rfpaudit/internal/audit"
)

// markdownColumns is the fixed column order of the audit table.
var markdownColumns = []string{
	"id",
	"severity",
	"category",
	"location",
	"text_before",
	"text_after",
	"reason",
	"rule_id",
	"stages",
}

// MarkdownTable renders the result as a Markdown table, one row per
// correction. Pipe characters in cell values are escaped and embedded
// newlines become <br> so multi-line spans keep the table intact.
func MarkdownTable(result *audit.DocumentAuditResult) string {
	var b strings.Builder

	b.WriteString("## Document Audit Results\n\n")
	fmt.Fprintf(&b, "Document: %s\n\n", result.SourceDocumentRef)

	if len(result.Corrections) == 0 {
		b.WriteString("No corrections needed.\n")
	} else {
		b.WriteString("| " + strings.Join(markdownColumns, " | ") + " |\n")
		b.WriteString("|" + strings.Repeat(" --- |", len(markdownColumns)) + "\n")

		for _, c := range result.Corrections {
			row := []string{
				fmt.Sprintf("%d", c.ID),
				c.Severity.String(),
				string(c.Category),
				c.Location,
				c.TextBefore,
				c.TextAfter,
				c.Reason,
				c.RuleID,
				strings.Join(result.StageProvenance[c.ID], ", "),
			}
			for i, v := range row {
				row[i] = escapeCell(v)
			}
			b.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}
	}

	if len(result.StageFailures) > 0 {
		b.WriteString("\n### Stages that did not contribute\n\n")
		for _, f := range result.StageFailures {
			fmt.Fprintf(&b, "- %s: %s\n", f.Stage, f.Reason)
		}
	}

	if len(result.Warnings) > 0 {
		b.WriteString("\n### Warnings\n\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}

func escapeCell(v string) string {
	v = strings.ReplaceAll(v, "|", "\\|")
	v = strings.ReplaceAll(v, "\n", "<br>")
	return v
}
