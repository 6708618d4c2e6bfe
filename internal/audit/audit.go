package audit

import "context"

// Stage identifies a pipeline stage (0–3).
type Stage int

const (
	StageRetrieval  Stage = 0
	StageSpelling   Stage = 1
	StageGuidelines Stage = 2
	StageAggregate  Stage = 3
)

func (s Stage) String() string {
	names := [...]string{
		"retrieval",
		"spelling-grammar",
		"guidelines-compliance",
		"aggregation",
	}
	if int(s) >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// RunState is the lifecycle state of a single pipeline run.
type RunState string

const (
	RunPending     RunState = "pending"
	RunRetrieving  RunState = "retrieving"
	RunReviewing   RunState = "reviewing"
	RunAggregating RunState = "aggregating"
	RunCompleted   RunState = "completed"
	RunFailed      RunState = "failed"
)

// ProgressEvent is emitted to the user during pipeline execution.
type ProgressEvent struct {
	Stage   Stage
	State   RunState
	Status  ProgressStatus
	Message string
}

// ProgressStatus is the state of a stage within a run.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// StageFailure records a reviewer stage that contributed nothing and why.
// Degraded-but-completed runs carry these so partial coverage is never silent.
type StageFailure struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// DocumentAuditResult is the finalized report for one audited document.
// It is immutable once the orchestrator returns it.
type DocumentAuditResult struct {
	// Corrections is ordered by location, then severity descending, then
	// original stage order. IDs are sequential from 1 and assigned only here.
	Corrections []Correction `json:"corrections"`

	// SourceDocumentRef is the opaque identifier of the audited document.
	SourceDocumentRef string `json:"source_document_ref"`

	// StageProvenance maps each correction's final id to the stage names that
	// contributed to it, including stages whose conflicting alternative lost.
	StageProvenance map[int][]string `json:"stage_provenance"`

	// StageFailures lists reviewer stages that failed (non-fatally).
	StageFailures []StageFailure `json:"stage_failures,omitempty"`

	// Warnings carries per-correction diagnostics, e.g. excluded malformed
	// locations and reviewer warnings.
	Warnings []string `json:"warnings,omitempty"`
}

// Orchestrator runs the full audit pipeline for one document.
type Orchestrator interface {
	// Run audits the document identified by ref and returns the finalized
	// result. Fatal failures return a *PipelineError.
	Run(ctx context.Context, ref string) (*DocumentAuditResult, error)

	// Progress returns a channel that emits progress events.
	Progress() <-chan ProgressEvent

	// State reports the current lifecycle state of the most recent run.
	State() RunState
}
