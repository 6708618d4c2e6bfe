package audit

import "fmt"

// PipelineError is the structured error surfaced for fatal run failures. It
// always names the stage that failed and why.
type PipelineError struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("audit: stage %s failed: %s", e.Stage, e.Reason)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ConflictError reports a contradiction that strict mode refuses to resolve.
// Outside strict mode the resolution policy always yields a winner, so
// seeing this error there would mean a broken invariant; it carries both
// sides for debugging.
type ConflictError struct {
	Location string
	A, B     RawCorrection
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"audit: unresolved contradiction at %s: %s proposes %q, %s proposes %q",
		e.Location, e.A.StageName, e.A.TextAfter, e.B.StageName, e.B.TextAfter,
	)
}
