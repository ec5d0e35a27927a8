// Package doctor implements `orcd doctor`: a summary of the last halt
// reason and any blocked items' unmet dependencies, grounded on the
// teacher's doctor.go gathering structure but without its AI-diagnosis
// call — orcd's doctor is a deterministic report, not an agent prompt.
package doctor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/orcd/orcd/internal/dependency"
	"github.com/orcd/orcd/internal/model"
	"github.com/orcd/orcd/internal/scheduler"
)

// Report is the rendered diagnosis for a halted run.
type Report struct {
	HaltReason     scheduler.HaltReason
	CompletedCount int
	BlockedItems   []BlockedItem
}

// BlockedItem pairs a blocked item with its unmet dependency statuses.
type BlockedItem struct {
	ID             string
	Title          string
	Reason         string
	UnmetDepStatus map[string]string
}

// Diagnose builds a Report from the current backlog state and the
// run-loop's last halt reason.
func Diagnose(items []model.Item, reason scheduler.HaltReason) Report {
	index := make(map[string]model.Item, len(items))
	for _, it := range items {
		index[it.ID] = it
	}

	r := Report{HaltReason: reason}
	for _, it := range items {
		if it.Status == model.StatusDone {
			r.CompletedCount++
			continue
		}
		if it.Status == model.StatusBlocked {
			r.BlockedItems = append(r.BlockedItems, BlockedItem{
				ID:             it.ID,
				Title:          it.Title,
				Reason:         it.BlockedReason,
				UnmetDepStatus: dependency.UnmetDependencyStatuses(it, index),
			})
		}
	}
	sort.Slice(r.BlockedItems, func(i, j int) bool { return r.BlockedItems[i].ID < r.BlockedItems[j].ID })
	return r
}

// Render formats a Report as the plain-text summary `orcd doctor`
// prints to stdout.
func (r Report) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Last halt: %s\n", r.HaltReason)
	fmt.Fprintf(&b, "Completed: %d\n", r.CompletedCount)
	if len(r.BlockedItems) == 0 {
		fmt.Fprintf(&b, "No blocked items.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Blocked (%d):\n", len(r.BlockedItems))
	for _, bi := range r.BlockedItems {
		fmt.Fprintf(&b, "  %s %s — %s\n", bi.ID, bi.Title, bi.Reason)
		deps := make([]string, 0, len(bi.UnmetDepStatus))
		for dep := range bi.UnmetDepStatus {
			deps = append(deps, dep)
		}
		sort.Strings(deps)
		for _, dep := range deps {
			fmt.Fprintf(&b, "    waiting on %s (%s)\n", dep, bi.UnmetDepStatus[dep])
		}
	}
	return b.String()
}
