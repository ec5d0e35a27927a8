// Package dependency implements the runtime dependency predicate and
// the preflight dependency-graph validator (dangling references and
// cycles).
package dependency

import (
	"fmt"
	"strings"

	"github.com/orcd/orcd/internal/model"
)

// HasUnmetDependencies reports whether item has any dependency that is
// neither absent from the snapshot (archived, implying done) nor
// present with status done.
func HasUnmetDependencies(item model.Item, snapshotItems map[string]model.Item) bool {
	if len(item.Dependencies) == 0 {
		return false
	}
	for _, depID := range item.Dependencies {
		dep, ok := snapshotItems[depID]
		if !ok {
			continue // archived — treated as met
		}
		if dep.Status != model.StatusDone {
			return true
		}
	}
	return false
}

// UnmetDependencyStatuses returns, for a blocked item, each unmet
// dependency ID paired with its current status. A dependency absent
// from snapshotItems counts as met and is not listed — used for the
// user-visible halt summary in spec.md §7.
func UnmetDependencyStatuses(item model.Item, snapshotItems map[string]model.Item) map[string]string {
	out := make(map[string]string)
	for _, depID := range item.Dependencies {
		dep, ok := snapshotItems[depID]
		if !ok {
			continue
		}
		if dep.Status != model.StatusDone {
			out[depID] = string(dep.Status)
		}
	}
	return out
}

// PreflightError describes one dependency-graph defect in the
// structured {condition, config_location, suggested_fix} shape spec.md
// §7 mandates for all preflight errors.
type PreflightError struct {
	Condition      string
	ConfigLocation string
	SuggestedFix   string
}

func (e PreflightError) Error() string {
	return e.Condition
}

// ValidateDependencyGraph reports dangling dependency references and
// circular dependency chains among non-done items.
func ValidateDependencyGraph(items []model.Item) []PreflightError {
	var errs []PreflightError

	ids := make(map[string]model.Item, len(items))
	for _, it := range items {
		ids[it.ID] = it
	}

	for _, it := range items {
		for _, dep := range it.Dependencies {
			if _, ok := ids[dep]; !ok {
				errs = append(errs, PreflightError{
					Condition:      fmt.Sprintf("Item '%s' depends on '%s' which does not exist in the backlog", it.ID, dep),
					ConfigLocation: fmt.Sprintf("items[%s].dependencies", it.ID),
					SuggestedFix:   fmt.Sprintf("Remove '%s' from %s's dependencies, or add the missing item to the backlog", dep, it.ID),
				})
			}
		}
	}

	errs = append(errs, findCycles(items, ids)...)
	return errs
}

type color int

const (
	unvisited color = iota
	inStack
	done
)

// findCycles runs a DFS three-color traversal over non-done items,
// maintaining an explicit path stack. A back-edge to an in-stack node
// yields a cycle; the path is extracted starting at the back-edge
// target. Self-dependencies are cycles of length 1, caught naturally
// because the node is in-stack when its own self-edge is visited. Only
// edges to known IDs are traversed — dangling edges are reported
// separately above.
func findCycles(items []model.Item, ids map[string]model.Item) []PreflightError {
	colors := make(map[string]color, len(items))
	var stack []string
	var errs []PreflightError

	var visit func(id string)
	visit = func(id string) {
		it, ok := ids[id]
		if !ok || it.Status == model.StatusDone {
			return
		}
		if colors[id] == done {
			return
		}
		if colors[id] == inStack {
			// Back-edge found; extract the cycle starting at id.
			start := indexOf(stack, id)
			cyclePath := append(append([]string(nil), stack[start:]...), id)
			errs = append(errs, PreflightError{
				Condition:      fmt.Sprintf("Circular dependency detected: %s", strings.Join(cyclePath, " → ")),
				ConfigLocation: "items[].dependencies",
				SuggestedFix:   "Break the cycle by removing one of the dependency edges listed above",
			})
			return
		}

		colors[id] = inStack
		stack = append(stack, id)
		for _, dep := range it.Dependencies {
			visit(dep)
		}
		stack = stack[:len(stack)-1]
		colors[id] = done
	}

	for _, it := range items {
		if it.Status == model.StatusDone {
			continue
		}
		if colors[it.ID] == unvisited {
			visit(it.ID)
		}
	}
	return errs
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return 0
}
