package scheduler

import "github.com/orcd/orcd/internal/model"

// HaltReason names why the run-loop stopped iterating.
type HaltReason string

const (
	HaltAllDoneOrBlocked HaltReason = "all_done_or_blocked"
	HaltNoMatchingItems  HaltReason = "no_matching_items"
	HaltFilterExhausted  HaltReason = "filter_exhausted"
	HaltCircuitBreaker   HaltReason = "circuit_breaker"
	HaltIterationCap     HaltReason = "iteration_cap"
	HaltCancelled        HaltReason = "cancelled"
	haltNone             HaltReason = ""
)

// ExitCode returns the process exit code the CLI reports for a halt
// reason. Normal completions (including every filter/iteration
// boundary) exit zero; only a breaker trip or a cancellation are
// treated as abnormal by the run command.
func (r HaltReason) ExitCode() int {
	switch r {
	case HaltCircuitBreaker, HaltCancelled:
		return 1
	default:
		return 0
	}
}

// CheckHaltCondition evaluates the halt conditions in priority order
// against the current iteration's selected actions. filterActive
// reports whether a non-empty --only criteria set is in effect;
// everMatched reports whether the filter matched at least one item on
// this or some prior iteration (to distinguish NoMatchingItems from
// FilterExhausted). breakerOpen reports the circuit breaker's current
// StateOpen-ness — the breaker, not a hand-rolled counter, is the
// sole source of truth for the CircuitBreaker halt, per SPEC_FULL's
// "when the breaker trips, the run-loop halts" requirement.
func CheckHaltCondition(actions []Action, running map[string]bool, runState *model.RunState, cfg *model.OrchestrateConfig, filterActive, everMatched bool, cancelled bool, breakerOpen bool) HaltReason {
	if cancelled {
		return HaltCancelled
	}
	if breakerOpen {
		return HaltCircuitBreaker
	}
	if cfg.Guardrails.MaxIterations > 0 && runState.Iterations >= cfg.Guardrails.MaxIterations {
		return HaltIterationCap
	}
	if len(actions) == 0 && len(running) == 0 {
		if filterActive && !everMatched && !runState.AnyProgress() {
			return HaltNoMatchingItems
		}
		if filterActive && everMatched {
			return HaltFilterExhausted
		}
		return HaltAllDoneOrBlocked
	}
	return haltNone
}

// IsHalted reports whether r represents an actual stop condition.
func (r HaltReason) IsHalted() bool {
	return r != haltNone
}
