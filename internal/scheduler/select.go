package scheduler

import (
	"github.com/orcd/orcd/internal/coordinator"
	"github.com/orcd/orcd/internal/dependency"
	"github.com/orcd/orcd/internal/model"
)

// SelectActions is the pure action-selection function: given a
// (already filter-applied) snapshot, the set of item IDs currently
// running, configuration, and accumulated run state, it returns the
// next batch of actions to dispatch. No I/O, no randomness, no time —
// safe to call repeatedly against the same inputs for the same result.
//
// Order matters and is not incidental: promotion fills WIP slots
// before in-progress/scoping/new items compete for the remainder, and
// the dependency filter is applied to every candidate *before* a slot
// is consumed, so a blocked item never displaces an eligible one.
func SelectActions(snap coordinator.BacklogSnapshot, running map[string]bool, cfg *model.OrchestrateConfig, runState *model.RunState) []Action {
	index := snap.IndexByID()
	budget := cfg.MaxWIP - len(running)
	if budget <= 0 {
		return nil
	}

	var actions []Action
	take := func() bool {
		if budget <= 0 {
			return false
		}
		budget--
		return true
	}
	eligible := func(it model.Item) bool {
		return !running[it.ID] && !dependency.HasUnmetDependencies(it, index)
	}

	// Step 2: promote ready -> in_progress.
	for _, it := range snap.Items {
		if budget <= 0 {
			break
		}
		if it.Status != model.StatusReady || !eligible(it) {
			continue
		}
		if take() {
			actions = append(actions, promote(it.ID))
		}
	}

	// Step 3: phase assignment for in_progress items not already running.
	for _, it := range snap.Items {
		if budget <= 0 {
			break
		}
		if it.Status != model.StatusInProgress || !eligible(it) {
			continue
		}
		phase, ok := nextPhaseFor(it, cfg, model.PoolMain)
		if !ok {
			continue
		}
		if take() {
			actions = append(actions, Action{Kind: ActionRunPhase, ItemID: it.ID, Phase: phase.Name, Pool: phase.Pool})
		}
	}

	// Step 4: phase assignment for scoping items (pre-pool).
	for _, it := range snap.Items {
		if budget <= 0 {
			break
		}
		if it.Status != model.StatusScoping || !eligible(it) {
			continue
		}
		phase, ok := nextPhaseFor(it, cfg, model.PoolPre)
		if !ok {
			continue
		}
		if take() {
			actions = append(actions, Action{Kind: ActionRunPhase, ItemID: it.ID, Phase: phase.Name, Pool: phase.Pool})
		}
	}

	// Step 5: triage for new items.
	for _, it := range snap.Items {
		if budget <= 0 {
			break
		}
		if it.Status != model.StatusNew || !eligible(it) {
			continue
		}
		phase, ok := nextPhaseFor(it, cfg, model.PoolPre)
		if !ok {
			continue
		}
		if take() {
			actions = append(actions, triage(it.ID, phase.Name, phase.Pool))
		}
	}

	return actions
}

// SelectTargetedActions restricts selection to targetIDs. A target
// with unmet dependencies yields no action for it this pass — the
// run-loop waits rather than substituting a different item.
func SelectTargetedActions(snap coordinator.BacklogSnapshot, running map[string]bool, targetIDs []string, cfg *model.OrchestrateConfig) []Action {
	targetSet := make(map[string]bool, len(targetIDs))
	for _, id := range targetIDs {
		targetSet[id] = true
	}
	restricted := coordinator.BacklogSnapshot{SchemaVersion: snap.SchemaVersion, NextItemID: snap.NextItemID}
	for _, it := range snap.Items {
		if targetSet[it.ID] {
			restricted.Items = append(restricted.Items, it)
		}
	}
	return SelectActions(restricted, running, cfg, nil)
}

// nextPhaseFor computes the phase an in_progress or scoping item should
// run next: the first phase in the given pool if it has none assigned
// yet, otherwise the pipeline's successor to its current phase. Items
// whose pipeline_type names no configured pipeline, or whose current
// phase has no successor, are not eligible this pass.
func nextPhaseFor(it model.Item, cfg *model.OrchestrateConfig, pool model.PhasePool) (model.PhaseDef, bool) {
	pipeline, ok := cfg.Pipeline(it.PipelineType)
	if !ok {
		return model.PhaseDef{}, false
	}
	if it.Phase == "" {
		return firstPhaseInPool(pipeline, pool)
	}
	return pipeline.NextPhase(it.Phase)
}

func firstPhaseInPool(p model.PipelineConfig, pool model.PhasePool) (model.PhaseDef, bool) {
	for _, ph := range p.Phases {
		if ph.Pool == pool {
			return ph, true
		}
	}
	return model.PhaseDef{}, false
}
