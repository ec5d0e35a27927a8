// Package preflight runs the four startup validation phases spec.md
// §6 mandates before the scheduler's first iteration: structural,
// workflow, item, and dependency-graph validation. Every error from
// every phase is collected before reporting — preflight never aborts
// early, so a user sees every defect in one pass instead of fixing
// them one at a time.
package preflight

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orcd/orcd/internal/dependency"
	"github.com/orcd/orcd/internal/model"
)

// Result is the aggregate preflight outcome. Ok reports whether every
// phase passed with no errors.
type Result struct {
	Errors []dependency.PreflightError
}

func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

// Run executes all four phases against a loaded backlog and config.
func Run(b *model.BacklogFile, cfg *model.OrchestrateConfig) Result {
	var errs []dependency.PreflightError
	errs = append(errs, structuralErrors(b)...)
	errs = append(errs, workflowErrors(b, cfg)...)
	errs = append(errs, itemErrors(b, cfg)...)
	errs = append(errs, dependency.ValidateDependencyGraph(b.Items)...)
	return Result{Errors: errs}
}

// structuralErrors catches schema-level defects beyond what
// backlog.Load already enforces on required fields: duplicate IDs and
// a next_item_id watermark that is not actually ahead of every
// existing numeric suffix.
func structuralErrors(b *model.BacklogFile) []dependency.PreflightError {
	var errs []dependency.PreflightError
	seen := make(map[string]bool, len(b.Items))
	maxSuffix := 0
	for _, it := range b.Items {
		if seen[it.ID] {
			errs = append(errs, dependency.PreflightError{
				Condition:      fmt.Sprintf("Duplicate item id %q", it.ID),
				ConfigLocation: "items[].id",
				SuggestedFix:   "Rename one of the duplicate items to a unique id",
			})
		}
		seen[it.ID] = true
		if n, ok := numericIDSuffix(it.ID); ok && n > maxSuffix {
			maxSuffix = n
		}
	}
	if b.NextItemID < maxSuffix+1 {
		errs = append(errs, dependency.PreflightError{
			Condition:      fmt.Sprintf("next_item_id %d is not ahead of the highest existing item id suffix %d", b.NextItemID, maxSuffix),
			ConfigLocation: "next_item_id",
			SuggestedFix:   fmt.Sprintf("Set next_item_id to at least %d", maxSuffix+1),
		})
	}
	return errs
}

// numericIDSuffix extracts the trailing "-NNN" counter GenerateNextID
// formats item ids with. IDs that don't end in a numeric segment (a
// hand-authored id, say) are excluded from the watermark check rather
// than treated as 0.
func numericIDSuffix(id string) (int, bool) {
	idx := strings.LastIndex(id, "-")
	if idx < 0 || idx == len(id)-1 {
		return 0, false
	}
	n, err := strconv.Atoi(id[idx+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// workflowErrors checks that every pipeline referenced by at least one
// item is actually configured, and delegates the configured pipeline's
// own workflow-file existence checks to config.Validate (called by the
// caller before Run; here we only check the item -> pipeline binding).
func workflowErrors(b *model.BacklogFile, cfg *model.OrchestrateConfig) []dependency.PreflightError {
	var errs []dependency.PreflightError
	for _, it := range b.Items {
		if it.PipelineType == "" {
			continue
		}
		if _, ok := cfg.Pipeline(it.PipelineType); !ok {
			errs = append(errs, dependency.PreflightError{
				Condition:      fmt.Sprintf("Item %q references pipeline_type %q which is not configured", it.ID, it.PipelineType),
				ConfigLocation: fmt.Sprintf("items[%s].pipeline_type", it.ID),
				SuggestedFix:   fmt.Sprintf("Add a %q pipeline to config.yaml, or correct the item's pipeline_type", it.PipelineType),
			})
		}
	}
	return errs
}

// itemErrors checks per-item invariants that Load's required-field
// check doesn't cover: a phase set on an item that isn't
// in_progress/scoping, blocked-* fields that are partially populated,
// and a phase name that doesn't exist in the item's pipeline.
func itemErrors(b *model.BacklogFile, cfg *model.OrchestrateConfig) []dependency.PreflightError {
	var errs []dependency.PreflightError
	for _, it := range b.Items {
		if it.Phase != "" && it.Status != model.StatusInProgress && it.Status != model.StatusScoping {
			errs = append(errs, dependency.PreflightError{
				Condition:      fmt.Sprintf("Item %q has phase %q set but status %q", it.ID, it.Phase, it.Status),
				ConfigLocation: fmt.Sprintf("items[%s].phase", it.ID),
				SuggestedFix:   "Clear 'phase' or set status to in_progress/scoping",
			})
		}
		if it.HasAnyBlockedField() && !it.HasBlockedFields() {
			errs = append(errs, dependency.PreflightError{
				Condition:      fmt.Sprintf("Item %q has some but not all blocked_* fields populated", it.ID),
				ConfigLocation: fmt.Sprintf("items[%s]", it.ID),
				SuggestedFix:   "Populate blocked_from_status, blocked_reason, blocked_type, and unblock_context together, or clear all four",
			})
		}
		if it.Status == model.StatusBlocked && !it.HasBlockedFields() {
			errs = append(errs, dependency.PreflightError{
				Condition:      fmt.Sprintf("Item %q has status blocked but incomplete blocked_* fields", it.ID),
				ConfigLocation: fmt.Sprintf("items[%s]", it.ID),
				SuggestedFix:   "Populate all four blocked_* fields",
			})
		}
		if it.Phase != "" && it.PipelineType != "" {
			if p, ok := cfg.Pipeline(it.PipelineType); ok && p.PhaseIndex(it.Phase) < 0 {
				errs = append(errs, dependency.PreflightError{
					Condition:      fmt.Sprintf("Item %q is on phase %q which does not exist in pipeline %q", it.ID, it.Phase, it.PipelineType),
					ConfigLocation: fmt.Sprintf("items[%s].phase", it.ID),
					SuggestedFix:   "Correct the item's phase, or add the phase to the pipeline",
				})
			}
		}
	}
	return errs
}
