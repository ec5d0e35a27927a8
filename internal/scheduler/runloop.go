package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/orcd/orcd/internal/coordinator"
	"github.com/orcd/orcd/internal/executor"
	"github.com/orcd/orcd/internal/filter"
	"github.com/orcd/orcd/internal/model"
)

// IterationResult summarizes one run-loop iteration for callers that
// want to render progress (cmd/orcd's status line, tests).
type IterationResult struct {
	Iteration int
	Actions   []Action
	Halt      HaltReason
}

// timedResult pairs a dispatch's outcome with how long it took, so the
// result-channel consumer can record orcd_phase_duration_seconds
// without a second clock read racing the executor's own timing.
type timedResult struct {
	res      executor.PhaseExecutionResult
	duration time.Duration
}

// RunLoopDeps bundles the run-loop's collaborators. TargetIDs and
// Criteria are mutually informative: TargetIDs (from --target) pins
// the run to an explicit item set via SelectTargetedActions; Criteria
// (from --only) narrows the snapshot filter.Apply sees before
// selection either way.
type RunLoopDeps struct {
	Coordinator *coordinator.Coordinator
	Executor    executor.Deps
	Config      *model.OrchestrateConfig
	Metrics     *Metrics
	Logger      *log.Logger
	TargetIDs   []string
	Criteria    []filter.Criterion
	InboxPath   string
	Now         func() time.Time
}

// Run drives the select -> dispatch -> await loop until a halt
// condition fires or ctx is cancelled, returning the reason the loop
// stopped. It ingests the inbox once per iteration before selecting,
// runs up to Config.MaxWIP phase executions concurrently via a
// weighted semaphore, and races the next selection cycle against an
// fsnotify watch on the inbox file's directory so a freshly-dropped
// inbox entry is picked up without waiting for the next poll tick.
func Run(ctx context.Context, d RunLoopDeps, onIteration func(IterationResult)) HaltReason {
	now := d.Now
	if now == nil {
		now = time.Now
	}

	sem := semaphore.NewWeighted(int64(d.Config.MaxWIP))
	var mu sync.Mutex
	running := make(map[string]bool)

	cb := NewBreaker(d.Config.Guardrails.CircuitBreakerThresh, func(from, to gobreaker.State) {
		if d.Metrics != nil {
			d.Metrics.CircuitBreakerState.Set(BreakerStateGauge(to))
		}
		d.Logger.Info("circuit breaker state change", "from", from, "to", to)
	})

	watcher, watchCh := newInboxWatcher(d.Logger, d.InboxPath)
	if watcher != nil {
		defer watcher.Close()
	}

	resultCh := make(chan timedResult, d.Config.MaxWIP)
	var inFlight errgroup.Group

	runState := model.NewRunState(nil, now())
	filterActive := len(d.Criteria) > 0
	everMatched := false

	for iteration := 1; ; iteration++ {
		select {
		case <-ctx.Done():
			drain(&inFlight, resultCh)
			return HaltCancelled
		default:
		}

		if _, err := d.Coordinator.IngestInbox(ctx); err != nil {
			d.Logger.Warn("inbox ingestion failed", "err", err)
		}

		snap, err := d.Coordinator.GetSnapshot(ctx)
		if err != nil {
			d.Logger.Error("snapshot fetch failed", "err", err)
			drain(&inFlight, resultCh)
			return HaltCancelled
		}

		visible := filter.Apply(d.Criteria, snap.Items)
		visibleSnap := coordinator.BacklogSnapshot{SchemaVersion: snap.SchemaVersion, NextItemID: snap.NextItemID, Items: visible}

		mu.Lock()
		runningCopy := make(map[string]bool, len(running))
		for k, v := range running {
			runningCopy[k] = v
		}
		mu.Unlock()

		var actions []Action
		if len(d.TargetIDs) > 0 {
			actions = SelectTargetedActions(visibleSnap, runningCopy, d.TargetIDs, d.Config)
		} else {
			actions = SelectActions(visibleSnap, runningCopy, d.Config, runState)
		}
		if len(visible) > 0 {
			everMatched = true
		}
		d.Metrics.recordActions(actions)
		d.Metrics.setWIP(len(runningCopy) + len(actions))

		runState.Iterations = iteration
		halt := CheckHaltCondition(actions, runningCopy, runState, d.Config, filterActive, everMatched, false, cb.State() == gobreaker.StateOpen)
		if onIteration != nil {
			onIteration(IterationResult{Iteration: iteration, Actions: actions, Halt: halt})
		}
		if halt.IsHalted() {
			drain(&inFlight, resultCh)
			return halt
		}

		for _, a := range actions {
			if err := sem.Acquire(ctx, 1); err != nil {
				drain(&inFlight, resultCh)
				return HaltCancelled
			}
			mu.Lock()
			running[a.ItemID] = true
			mu.Unlock()

			a := a
			inFlight.Go(func() error {
				defer sem.Release(1)
				start := now()
				res := dispatch(ctx, d, snap, a)
				resultCh <- timedResult{res: res, duration: now().Sub(start)}
				return nil
			})
		}

		select {
		case tr := <-resultCh:
			applyResult(&mu, running, runState, tr.res)
			d.Metrics.recordPhaseDuration(tr.res.Phase, string(tr.res.Outcome), tr.duration.Seconds())
			RecordResult(cb, &tr.res)
		case <-watchCh:
			d.Logger.Debug("inbox change detected, re-selecting early")
		case <-time.After(inboxPollInterval):
		case <-ctx.Done():
			drain(&inFlight, resultCh)
			return HaltCancelled
		}
	}
}

const inboxPollInterval = 2 * time.Second

func dispatch(ctx context.Context, d RunLoopDeps, snap coordinator.BacklogSnapshot, a Action) executor.PhaseExecutionResult {
	it, ok := snap.ItemByID(a.ItemID)
	if !ok {
		return executor.PhaseExecutionResult{Outcome: executor.OutcomeFailed, ItemID: a.ItemID, Reason: fmt.Sprintf("item %s vanished from snapshot before dispatch", a.ItemID)}
	}

	switch a.Kind {
	case ActionPromote:
		if err := d.Coordinator.AssignPhase(ctx, a.ItemID, "", model.PoolPre); err != nil {
			return executor.PhaseExecutionResult{Outcome: executor.OutcomeFailed, ItemID: a.ItemID, Reason: err.Error()}
		}
		return executor.PhaseExecutionResult{Outcome: executor.OutcomeCompleted, ItemID: a.ItemID}
	case ActionTriage, ActionRunPhase:
		timeout := phaseTimeout(d.Config, it.PipelineType, a.Phase)
		return executor.ExecutePhase(ctx, d.Executor, it, a.Phase, a.Pool, timeout, ctx.Done())
	default:
		return executor.PhaseExecutionResult{Outcome: executor.OutcomeFailed, ItemID: a.ItemID, Reason: fmt.Sprintf("unknown action kind %q", a.Kind)}
	}
}

func phaseTimeout(cfg *model.OrchestrateConfig, pipelineType, phase string) time.Duration {
	p, ok := cfg.Pipeline(pipelineType)
	if !ok {
		return 0
	}
	idx := p.PhaseIndex(phase)
	if idx < 0 || p.Phases[idx].TimeoutSec <= 0 {
		return 0
	}
	return time.Duration(p.Phases[idx].TimeoutSec) * time.Second
}

func applyResult(mu *sync.Mutex, running map[string]bool, rs *model.RunState, res executor.PhaseExecutionResult) {
	mu.Lock()
	delete(running, res.ItemID)
	mu.Unlock()

	switch res.Outcome {
	case executor.OutcomeCompleted:
		rs.RecordCompleted(res.ItemID)
	case executor.OutcomeBlocked:
		rs.RecordBlocked(res.ItemID)
	case executor.OutcomeFailed, executor.OutcomeTimedOut:
		rs.RecordFailure()
	}
}

func drain(g *errgroup.Group, ch chan timedResult) {
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	for {
		select {
		case <-ch:
		case <-done:
			return
		}
	}
}

// newInboxWatcher sets up an fsnotify watch on the inbox file's parent
// directory, tolerating a missing directory (the poll fallback still
// covers that case). Returns a nil watcher and nil channel if the
// watch could not be established — callers treat that as "no early
// wakeup available", not a fatal error.
func newInboxWatcher(logger *log.Logger, inboxPath string) (*fsnotify.Watcher, <-chan struct{}) {
	if inboxPath == "" {
		return nil, nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("inbox watcher unavailable, falling back to polling", "err", err)
		return nil, nil
	}
	dir := filepath.Dir(inboxPath)
	if err := w.Add(dir); err != nil {
		logger.Warn("inbox watcher could not watch directory, falling back to polling", "dir", dir, "err", err)
		w.Close()
		return nil, nil
	}
	ch := make(chan struct{}, 1)
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Name == inboxPath {
					select {
					case ch <- struct{}{}:
					default:
					}
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return w, ch
}

