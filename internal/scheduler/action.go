// Package scheduler implements pure action selection over a backlog
// snapshot plus the async run-loop that dispatches selected actions to
// the executor, bounded by max_wip and backed by a circuit breaker.
package scheduler

import "github.com/orcd/orcd/internal/model"

// ActionKind discriminates the three action shapes select_actions emits.
type ActionKind string

const (
	ActionRunPhase ActionKind = "run_phase"
	ActionTriage   ActionKind = "triage"
	ActionPromote  ActionKind = "promote"
)

// Action is one unit of dispatchable work produced by SelectActions.
// Phase and Pool are populated for both ActionRunPhase and
// ActionTriage — a triage dispatch still runs a configured pre-pool
// phase, it just starts from status new rather than scoping.
type Action struct {
	Kind   ActionKind
	ItemID string
	Phase  string
	Pool   model.PhasePool
}

func triage(itemID, phase string, pool model.PhasePool) Action {
	return Action{Kind: ActionTriage, ItemID: itemID, Phase: phase, Pool: pool}
}

func promote(itemID string) Action {
	return Action{Kind: ActionPromote, ItemID: itemID}
}
