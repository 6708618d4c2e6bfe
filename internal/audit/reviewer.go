package audit

import (
	"context"

	"github.com/dusk-indust/rfpaudit/internal/retrieval"
	"github.com/dusk-indust/rfpaudit/internal/rules"
)

// StatusCode is the terminal outcome of a single reviewer stage.
type StatusCode int

const (
	StatusSucceeded StatusCode = iota
	StatusSucceededWithWarnings
	StatusFailed
)

// Status is a reviewer's terminal status. Reviewers never panic outward; a
// stage that cannot produce findings returns Failed and lets the orchestrator
// decide what that means for the run.
type Status struct {
	Code     StatusCode
	Warnings []string
	Reason   string
}

// Succeeded returns a clean success status.
func Succeeded() Status {
	return Status{Code: StatusSucceeded}
}

// SucceededWithWarnings returns a success status carrying warnings.
func SucceededWithWarnings(warnings ...string) Status {
	return Status{Code: StatusSucceededWithWarnings, Warnings: warnings}
}

// Failed returns a failure status with the given reason.
func Failed(reason string) Status {
	return Status{Code: StatusFailed, Reason: reason}
}

// OK reports whether the stage produced usable output.
func (s Status) OK() bool {
	return s.Code != StatusFailed
}

// ReviewContext carries everything a stage may need beyond the document
// text. Stages ignore fields they do not use. All fields are immutable for
// the duration of a run.
type ReviewContext struct {
	// Rules is the validated guideline rule set. Only the compliance
	// reviewer reads it.
	Rules *rules.RuleSet
}

// Reviewer is the contract every pipeline stage satisfies: a pure function
// of the document snapshot and the review context. No reviewer sees another
// reviewer's output; only the aggregation engine sees all outputs together.
type Reviewer interface {
	// Name identifies the stage in provenance and diagnostics.
	Name() string

	// Review scans the document and returns raw, unnumbered corrections.
	// Long-running reviewers check ctx at safe points between checks.
	Review(ctx context.Context, doc *retrieval.Document, rc ReviewContext) ([]Correction, Status)
}
