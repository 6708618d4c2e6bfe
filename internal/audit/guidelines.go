package audit

import (
	"context"
	"fmt"

	"github.com/dusk-indust/rfpaudit/internal/retrieval"
)

// Compile-time check.
var _ Reviewer = (*GuidelinesReviewer)(nil)

// GuidelinesReviewer is the second-pass reviewer. It applies every rule in
// the supplied rule set to the document; every finding carries the violated
// rule's id and the rule's default severity. Category is always
// guideline-compliance.
type GuidelinesReviewer struct{}

// NewGuidelinesReviewer creates a GuidelinesReviewer.
func NewGuidelinesReviewer() *GuidelinesReviewer {
	return &GuidelinesReviewer{}
}

// Name implements Reviewer.
func (r *GuidelinesReviewer) Name() string {
	return StageGuidelines.String()
}

// Review applies each rule's pattern to each document line. A missing rule
// set is a stage failure, not a panic: the orchestrator records it and the
// run proceeds without compliance coverage.
func (r *GuidelinesReviewer) Review(ctx context.Context, doc *retrieval.Document, rc ReviewContext) ([]Correction, Status) {
	if doc == nil || doc.LineCount() == 0 {
		return nil, Failed("document has no content to review")
	}
	if rc.Rules == nil || rc.Rules.Len() == 0 {
		return nil, Failed("no rule set supplied")
	}

	var out []Correction

	for _, rule := range rc.Rules.Rules() {
		// Rules can be slow on large documents; the cancellation token is
		// checked between rule evaluations.
		if err := ctx.Err(); err != nil {
			return nil, Failed(err.Error())
		}

		severity, err := ParseSeverity(rule.SeverityDefault)
		if err != nil {
			// The loader validates severities, so this is an internal
			// inconsistency worth failing the stage over.
			return nil, Failed(fmt.Sprintf("rule %s: %v", rule.ID, err))
		}

		for pi, page := range doc.Pages {
			for li, line := range page {
				for _, m := range rule.Regexp().FindAllStringSubmatchIndex(line, -1) {
					before := line[m[0]:m[1]]
					after := string(rule.Regexp().ExpandString(nil, rule.Replacement, line, m))
					out = append(out, Correction{
						Location:   FormatLocation(pi+1, li+1),
						TextBefore: before,
						TextAfter:  after,
						Reason:     fmt.Sprintf("%s (rule %s)", rule.Description, rule.ID),
						Category:   CategoryGuideline,
						RuleID:     rule.ID,
						Severity:   severity,
					})
				}
			}
		}
	}

	// Every finding must reference a rule the set actually contains; an
	// unknown id here is a stage-level error, never silently dropped.
	for _, c := range out {
		if c.RuleID == "" || !rc.Rules.Has(c.RuleID) {
			return nil, Failed(fmt.Sprintf("finding at %s references unknown rule id %q", c.Location, c.RuleID))
		}
	}

	return out, Succeeded()
}
