package audit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/rfpaudit/internal/retrieval"
	"github.com/dusk-indust/rfpaudit/internal/rules"
)

// Compile-time interface check.
var _ Orchestrator = (*Pipeline)(nil)

// Config holds runtime configuration for one audit pipeline.
type Config struct {
	// Parallel runs reviewer stages concurrently. Results are identical
	// either way: no reviewer sees another's output, and aggregation waits
	// behind a join barrier for every stage to reach a terminal status.
	Parallel bool

	// StageTimeout bounds each reviewer stage. Zero means no timeout. An
	// expired timeout becomes that stage's failure, not the run's.
	StageTimeout time.Duration

	// StrictConflicts makes aggregation fail on contradictions instead of
	// resolving them by policy.
	StrictConflicts bool

	// Verbose enables stage-level log output.
	Verbose bool
}

// stageOutcome is the per-reviewer result slot. Slots are written at most
// once each, one per stage, so parallel stages never contend.
type stageOutcome struct {
	name        string
	corrections []Correction
	status      Status
}

// Pipeline runs the fixed audit sequence for one document: retrieval, the
// reviewer stages, then aggregation exactly once. A Pipeline holds no
// cross-run state; re-invoking Run after a fatal failure is safe.
type Pipeline struct {
	cfg       Config
	retriever retrieval.Retriever
	reviewers []Reviewer
	ruleset   *rules.RuleSet
	progress  *ProgressReporter

	mu    sync.Mutex
	state RunState
}

// NewPipeline creates a Pipeline over the given retriever and rule set with
// the standard reviewer sequence: spelling/grammar then guidelines
// compliance.
func NewPipeline(cfg Config, retriever retrieval.Retriever, ruleset *rules.RuleSet) *Pipeline {
	return newPipeline(cfg, retriever, ruleset, []Reviewer{
		NewSpellingReviewer(),
		NewGuidelinesReviewer(),
	})
}

// newPipeline wires an arbitrary reviewer sequence; tests use it to inject
// failing or slow reviewers.
func newPipeline(cfg Config, retriever retrieval.Retriever, ruleset *rules.RuleSet, reviewers []Reviewer) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		retriever: retriever,
		reviewers: reviewers,
		ruleset:   ruleset,
		progress:  NewProgressReporter(),
		state:     RunPending,
	}
}

// Progress returns a channel that emits progress events.
func (p *Pipeline) Progress() <-chan ProgressEvent {
	return p.progress.Subscribe()
}

// Close shuts down the progress reporter. Callers should invoke this when
// the pipeline is no longer needed.
func (p *Pipeline) Close() {
	p.progress.Close()
}

// State reports the current lifecycle state.
func (p *Pipeline) State() RunState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s RunState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Run audits the document identified by ref. Retrieval and aggregation
// failures are fatal and return a *PipelineError; reviewer failures degrade
// the result instead, contributing zero corrections and a StageFailure
// entry. The returned result is immutable.
func (p *Pipeline) Run(ctx context.Context, ref string) (*DocumentAuditResult, error) {
	p.setState(RunRetrieving)
	p.emit(StageRetrieval, RunRetrieving, ProgressWorking, "")

	doc, err := p.retriever.Extract(ctx, ref)
	if err != nil {
		return nil, p.fail(StageRetrieval, StageRetrieval.String(), err)
	}
	p.emit(StageRetrieval, RunRetrieving, ProgressComplete, "")

	p.setState(RunReviewing)
	outcomes, err := p.runReviewers(ctx, doc)
	if err != nil {
		// Only cancellation aborts the review phase; unfinished stages are
		// abandoned and aggregation never runs.
		return nil, p.fail(StageAggregate, "pipeline", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, p.fail(StageAggregate, "pipeline", errors.New("cancelled"))
	}

	p.setState(RunAggregating)
	p.emit(StageAggregate, RunAggregating, ProgressWorking, "")

	raw := collectRaw(outcomes)
	result, err := NewAggregator(p.cfg.StrictConflicts).Aggregate(doc.Ref, raw)
	if err != nil {
		return nil, p.fail(StageAggregate, StageAggregate.String(), err)
	}

	attachDiagnostics(result, outcomes)

	p.emit(StageAggregate, RunAggregating, ProgressComplete, "")
	p.setState(RunCompleted)
	return result, nil
}

// runReviewers executes every reviewer stage over the same immutable
// document snapshot and fills one outcome slot per stage. Aggregation never
// starts before every slot holds a terminal status. The only returned error
// is context cancellation.
func (p *Pipeline) runReviewers(ctx context.Context, doc *retrieval.Document) ([]stageOutcome, error) {
	outcomes := make([]stageOutcome, len(p.reviewers))
	rc := ReviewContext{Rules: p.ruleset}

	if !p.cfg.Parallel {
		for i, r := range p.reviewers {
			if err := ctx.Err(); err != nil {
				return nil, errors.New("cancelled")
			}
			outcomes[i] = p.runOne(ctx, r, doc, rc)
		}
		return outcomes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range p.reviewers {
		g.Go(func() error {
			outcomes[i] = p.runOne(gctx, r, doc, rc)
			return nil
		})
	}
	// Reviewers never return errors through the group; the join is a pure
	// barrier.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.New("cancelled")
	}
	return outcomes, nil
}

// runOne executes a single reviewer with the configured timeout and maps a
// deadline expiry onto that stage's Failed status.
func (p *Pipeline) runOne(ctx context.Context, r Reviewer, doc *retrieval.Document, rc ReviewContext) stageOutcome {
	stage := stageOf(r)
	p.emit(stage, RunReviewing, ProgressWorking, "")

	stageCtx := ctx
	if p.cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, p.cfg.StageTimeout)
		defer cancel()
	}

	corrections, status := r.Review(stageCtx, doc, rc)
	if status.Code == StatusFailed && errors.Is(stageCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		status = Failed(fmt.Sprintf("stage timed out after %s", p.cfg.StageTimeout))
	}

	if status.OK() {
		p.emit(stage, RunReviewing, ProgressComplete, "")
		if p.cfg.Verbose {
			log.Printf("pipeline: stage %s produced %d corrections", r.Name(), len(corrections))
		}
	} else {
		// Non-fatal: the stage contributes nothing and the failure is
		// surfaced in the result diagnostics.
		corrections = nil
		p.emit(stage, RunReviewing, ProgressFailed, status.Reason)
		log.Printf("pipeline: stage %s failed: %s", r.Name(), status.Reason)
	}

	return stageOutcome{name: r.Name(), corrections: corrections, status: status}
}

// fail records a fatal failure and builds the structured error. stageName is
// what the caller sees; cancellation is attributed to the pipeline itself
// rather than to a stage that never ran.
func (p *Pipeline) fail(stage Stage, stageName string, err error) error {
	p.setState(RunFailed)
	p.emit(stage, RunFailed, ProgressFailed, err.Error())

	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	return &PipelineError{Stage: stageName, Reason: err.Error(), Err: err}
}

func (p *Pipeline) emit(stage Stage, state RunState, status ProgressStatus, msg string) {
	p.progress.Emit(ProgressEvent{Stage: stage, State: state, Status: status, Message: msg})
}

// stageOf maps known reviewer names back to their pipeline stage for
// progress reporting; custom reviewers report as the reviewing phase of the
// spelling slot they replace.
func stageOf(r Reviewer) Stage {
	switch r.Name() {
	case StageGuidelines.String():
		return StageGuidelines
	default:
		return StageSpelling
	}
}

// collectRaw flattens succeeded stage outcomes into raw corrections tagged
// with their origin. Stage order is the fixed pipeline position, never the
// completion order, so aggregation is independent of scheduling.
func collectRaw(outcomes []stageOutcome) []RawCorrection {
	var raw []RawCorrection
	for i, o := range outcomes {
		if !o.status.OK() {
			continue
		}
		for _, c := range o.corrections {
			raw = append(raw, RawCorrection{Correction: c, StageName: o.name, StageOrder: i})
		}
	}
	return raw
}

// attachDiagnostics folds stage failures and reviewer warnings into the
// result so degraded coverage is always visible to the caller.
func attachDiagnostics(result *DocumentAuditResult, outcomes []stageOutcome) {
	for _, o := range outcomes {
		if o.status.Code == StatusFailed {
			result.StageFailures = append(result.StageFailures, StageFailure{
				Stage:  o.name,
				Reason: o.status.Reason,
			})
		}
		for _, w := range o.status.Warnings {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", o.name, w))
		}
	}
}
