// Package executor runs a single phase for a single item: it builds
// the prompt, invokes the configured agent runner with a timeout
// raced against cancellation, classifies the structured result, and
// requests the matching state transition from the coordinator. It is
// the asynchronous unit the scheduler's run-loop dispatches one
// instance of per selected action.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/orcd/orcd/internal/coordinator"
	"github.com/orcd/orcd/internal/gitcommit"
	"github.com/orcd/orcd/internal/model"
	"github.com/orcd/orcd/internal/runner"
	"github.com/orcd/orcd/internal/worklog"
)

// Outcome discriminates the terminal shapes a phase execution can take.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeBlocked   Outcome = "blocked"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeTimedOut  Outcome = "timed_out"
)

// ErrPhaseFailed is the sentinel the scheduler's breaker bookkeeping
// feeds gobreaker on a Failed or TimedOut outcome.
var ErrPhaseFailed = errors.New("executor: phase failed")

// PhaseExecutionResult is execute_phase's return value: exactly one of
// Completed/Failed/Blocked/Cancelled/TimedOut, named by Outcome.
type PhaseExecutionResult struct {
	Outcome   Outcome
	ItemID    string
	Phase     string
	Result    *model.PhaseResult // set on Completed or Blocked
	CommitSHA string              // set on Completed
	Reason    string              // set on Failed/Blocked/TimedOut
}

// Deps bundles the collaborators execute_phase needs beyond the action
// itself: the coordinator to request transitions from, the agent
// runner, a committer for the post-completion commit step, the
// project's pipeline configuration (for computing next-phase status),
// and a workflow file loader (kept as a function so tests can stub it
// without touching the filesystem).
type Deps struct {
	Coordinator   *coordinator.Coordinator
	Runner        runner.Runner
	Committer     gitcommit.Committer
	Config        *model.OrchestrateConfig
	WorkDir       string
	ArtifactsDir  string
	Logger        *log.Logger
	LoadWorkflow  func(path string) (string, error)
}

// ExecutePhase runs one RunPhase or Triage action to completion,
// racing the agent invocation against cancel per spec.md §4.4 step 3.
func ExecutePhase(ctx context.Context, d Deps, it model.Item, phaseName string, pool model.PhasePool, timeout time.Duration, cancel <-chan struct{}) PhaseExecutionResult {
	started := time.Now()
	pipeline, phaseDef, workflowFiles, err := loadPhase(d, it, phaseName)
	if err != nil {
		appendWorklogOutcome(d, it.ID, phaseName, OutcomeFailed, err.Error())
		return PhaseExecutionResult{Outcome: OutcomeFailed, ItemID: it.ID, Phase: phaseName, Reason: err.Error()}
	}

	prompt := buildPreamble(it) + "\n" + buildWorkflowBody(it, pool, workflowFiles, nil)
	resultPath := filepath.Join(d.ArtifactsDir, fmt.Sprintf("%s-%s-result.json", it.ID, phaseName))

	type runOutcome struct {
		res *model.PhaseResult
		err error
	}
	done := make(chan runOutcome, 1)
	go func() {
		res, err := d.Runner.RunAgent(ctx, prompt, resultPath, timeout)
		done <- runOutcome{res, err}
	}()

	var res *model.PhaseResult
	select {
	case out := <-done:
		if out.err != nil {
			if errors.Is(out.err, context.DeadlineExceeded) {
				appendWorklogOutcome(d, it.ID, phaseName, OutcomeTimedOut, out.err.Error())
				return PhaseExecutionResult{Outcome: OutcomeTimedOut, ItemID: it.ID, Phase: phaseName, Reason: out.err.Error()}
			}
			if errors.Is(out.err, context.Canceled) {
				appendWorklogOutcome(d, it.ID, phaseName, OutcomeCancelled, "")
				return PhaseExecutionResult{Outcome: OutcomeCancelled, ItemID: it.ID, Phase: phaseName}
			}
			appendWorklogOutcome(d, it.ID, phaseName, OutcomeFailed, out.err.Error())
			return PhaseExecutionResult{Outcome: OutcomeFailed, ItemID: it.ID, Phase: phaseName, Reason: out.err.Error()}
		}
		res = out.res
	case <-cancel:
		appendWorklogOutcome(d, it.ID, phaseName, OutcomeCancelled, "")
		return PhaseExecutionResult{Outcome: OutcomeCancelled, ItemID: it.ID, Phase: phaseName}
	}

	d.Logger.Debug("phase agent invocation finished", "item", it.ID, "phase", phaseName, "duration", time.Since(started))
	return classifyResult(ctx, d, it, pipeline, phaseDef, pool, res)
}

// appendWorklogOutcome records a best-effort _worklog/{item_id}.md
// entry for a phase execution's terminal outcome, covering both the
// paths that never reach classifyResult's agent-result dispatch (a
// timeout, cancellation, or runner error) and classifyResult's own
// blocked/failed branches. outcome's string form doubles as the
// entry's ResultCode (timed_out, cancelled, failed, blocked),
// matching the agent-reported codes' own naming.
func appendWorklogOutcome(d Deps, itemID, phase string, outcome Outcome, reason string) {
	if err := worklog.AppendEntry(d.WorkDir, itemID, model.WorklogEntry{
		Phase: phase, Ended: time.Now(), ResultCode: model.ResultCode(outcome), Summary: reason,
	}); err != nil {
		d.Logger.Warn("worklog append failed", "item", itemID, "err", err)
	}
}

// loadPhase resolves the named phase within the item's pipeline and
// reads its workflow files in configured order.
func loadPhase(d Deps, it model.Item, phaseName string) (model.PipelineConfig, model.PhaseDef, []workflowFile, error) {
	pipeline, ok := d.Config.Pipeline(it.PipelineType)
	if !ok {
		return model.PipelineConfig{}, model.PhaseDef{}, nil, fmt.Errorf("item %s: no pipeline configured for pipeline_type %q", it.ID, it.PipelineType)
	}
	idx := pipeline.PhaseIndex(phaseName)
	if idx < 0 {
		return model.PipelineConfig{}, model.PhaseDef{}, nil, fmt.Errorf("item %s: pipeline %q has no phase %q", it.ID, pipeline.Name, phaseName)
	}
	phaseDef := pipeline.Phases[idx]

	load := d.LoadWorkflow
	if load == nil {
		load = func(path string) (string, error) {
			data, err := os.ReadFile(filepath.Join(d.WorkDir, path))
			return string(data), err
		}
	}

	files := make([]workflowFile, 0, len(phaseDef.WorkflowFiles))
	for _, path := range phaseDef.WorkflowFiles {
		content, err := load(path)
		if err != nil {
			return model.PipelineConfig{}, model.PhaseDef{}, nil, fmt.Errorf("item %s: loading workflow file %q: %w", it.ID, path, err)
		}
		files = append(files, workflowFile{Path: path, Content: content})
	}
	return pipeline, phaseDef, files, nil
}

// classifyResult implements step 4-6 of the flow: dispatch on
// result_code, ingest follow-ups, and request a commit on success.
func classifyResult(ctx context.Context, d Deps, it model.Item, pipeline model.PipelineConfig, phaseDef model.PhaseDef, pool model.PhasePool, res *model.PhaseResult) PhaseExecutionResult {
	if res == nil {
		appendWorklogOutcome(d, it.ID, phaseDef.Name, OutcomeFailed, "agent produced no result")
		return PhaseExecutionResult{Outcome: OutcomeFailed, ItemID: it.ID, Phase: phaseDef.Name, Reason: "agent produced no result"}
	}

	if len(res.FollowUps) > 0 {
		origin := fmt.Sprintf("%s/%s", it.ID, phaseDef.Name)
		if _, err := d.Coordinator.IngestFollowUps(ctx, res.FollowUps, origin); err != nil {
			d.Logger.Warn("follow-up ingestion failed", "item", it.ID, "err", err)
		}
	}

	switch res.ResultCode {
	case model.ResultBlocked:
		if err := d.Coordinator.TransitionBlocked(ctx, it.ID, res.BlockedReason, res.BlockedType, res.UnblockContext); err != nil {
			appendWorklogOutcome(d, it.ID, phaseDef.Name, OutcomeFailed, err.Error())
			return PhaseExecutionResult{Outcome: OutcomeFailed, ItemID: it.ID, Phase: phaseDef.Name, Reason: err.Error()}
		}
		appendWorklogOutcome(d, it.ID, phaseDef.Name, OutcomeBlocked, res.BlockedReason)
		return PhaseExecutionResult{Outcome: OutcomeBlocked, ItemID: it.ID, Phase: phaseDef.Name, Result: res, Reason: res.BlockedReason}

	case model.ResultFailed:
		reason := res.FailureReason
		if reason == "" {
			reason = res.Summary
		}
		appendWorklogOutcome(d, it.ID, phaseDef.Name, OutcomeFailed, reason)
		return PhaseExecutionResult{Outcome: OutcomeFailed, ItemID: it.ID, Phase: phaseDef.Name, Reason: reason}

	case model.ResultTriageComplete:
		if res.Triage != nil {
			if err := d.Coordinator.SetAssessment(ctx, it.ID, *res.Triage, phaseDef.Name, pool); err != nil {
				appendWorklogOutcome(d, it.ID, phaseDef.Name, OutcomeFailed, err.Error())
				return PhaseExecutionResult{Outcome: OutcomeFailed, ItemID: it.ID, Phase: phaseDef.Name, Reason: err.Error()}
			}
		}
		if err := worklog.AppendEntry(d.WorkDir, it.ID, model.WorklogEntry{
			Phase: phaseDef.Name, Ended: time.Now(), ResultCode: res.ResultCode, Summary: res.Summary,
		}); err != nil {
			d.Logger.Warn("worklog append failed", "item", it.ID, "err", err)
		}
		return PhaseExecutionResult{Outcome: OutcomeCompleted, ItemID: it.ID, Phase: phaseDef.Name, Result: res}

	case model.ResultSubphaseComplete, model.ResultComplete:
		return completePhase(ctx, d, it, pipeline, phaseDef, pool, res)

	default:
		reason := fmt.Sprintf("unknown result_code %q", res.ResultCode)
		appendWorklogOutcome(d, it.ID, phaseDef.Name, OutcomeFailed, reason)
		return PhaseExecutionResult{Outcome: OutcomeFailed, ItemID: it.ID, Phase: phaseDef.Name, Reason: reason}
	}
}

func completePhase(ctx context.Context, d Deps, it model.Item, pipeline model.PipelineConfig, phaseDef model.PhaseDef, pool model.PhasePool, res *model.PhaseResult) PhaseExecutionResult {
	var commitSHA string
	if res.ResultCode == model.ResultComplete {
		if err := worklog.WriteChangeNote(d.WorkDir, it.ID, phaseDef.Name, res.Summary); err != nil {
			d.Logger.Warn("writing change note failed", "item", it.ID, "err", err)
		}
		sha, err := d.Committer.Commit(ctx, d.WorkDir, fmt.Sprintf("%s: %s", it.ID, phaseDef.Name), res.Summary)
		if err != nil {
			d.Logger.Warn("git commit failed", "item", it.ID, "phase", phaseDef.Name, "err", err)
		} else {
			commitSHA = sha
		}
	}

	nextStatus, nextPhase := nextStatusAndPhase(it, pipeline, res.ResultCode)
	if err := d.Coordinator.CompletePhase(ctx, it.ID, nextPhase, nextStatus, commitSHA); err != nil {
		appendWorklogOutcome(d, it.ID, phaseDef.Name, OutcomeFailed, err.Error())
		return PhaseExecutionResult{Outcome: OutcomeFailed, ItemID: it.ID, Phase: phaseDef.Name, Reason: err.Error()}
	}

	if err := worklog.AppendEntry(d.WorkDir, it.ID, model.WorklogEntry{
		Phase: phaseDef.Name, Ended: time.Now(), ResultCode: res.ResultCode, Summary: res.Summary, CommitSHA: commitSHA,
	}); err != nil {
		d.Logger.Warn("worklog append failed", "item", it.ID, "err", err)
	}

	return PhaseExecutionResult{Outcome: OutcomeCompleted, ItemID: it.ID, Phase: phaseDef.Name, CommitSHA: commitSHA, Result: res}
}

// nextStatusAndPhase computes the status/phase pair CompletePhase
// should record: subphase_complete stays within the current phase;
// complete advances to the pipeline's next phase (staying in_progress
// or scoping depending on the next phase's pool), or to done when the
// item was already on the pipeline's last phase.
func nextStatusAndPhase(it model.Item, pipeline model.PipelineConfig, code model.ResultCode) (model.Status, string) {
	if code == model.ResultSubphaseComplete {
		return it.Status, it.Phase
	}
	next, ok := pipeline.NextPhase(it.Phase)
	if !ok {
		return model.StatusDone, ""
	}
	if next.Pool == model.PoolPre {
		return model.StatusScoping, next.Name
	}
	return model.StatusInProgress, next.Name
}
