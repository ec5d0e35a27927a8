package ux

import (
	"fmt"
	"sort"

	"github.com/orcd/orcd/internal/dependency"
	"github.com/orcd/orcd/internal/model"
)

// RenderStatus prints a backlog summary: counts per status, current
// WIP, and any blocked items with their unmet dependencies.
func RenderStatus(items []model.Item, maxWIP int) {
	counts := make(map[model.Status]int)
	wip := 0
	for _, it := range items {
		counts[it.Status]++
		if it.Status == model.StatusInProgress || it.Status == model.StatusScoping {
			wip++
		}
	}

	fmt.Printf("%s\n", styleBold.Render("Backlog status"))
	for _, s := range []model.Status{model.StatusNew, model.StatusScoping, model.StatusReady, model.StatusInProgress, model.StatusBlocked, model.StatusDone} {
		fmt.Printf("  %-12s %d\n", string(s), counts[s])
	}
	fmt.Printf("\n%s %d/%d\n", styleMuted.Render("WIP:"), wip, maxWIP)

	index := make(map[string]model.Item, len(items))
	for _, it := range items {
		index[it.ID] = it
	}

	var blocked []model.Item
	for _, it := range items {
		if it.Status == model.StatusBlocked {
			blocked = append(blocked, it)
		}
	}
	if len(blocked) == 0 {
		return
	}
	fmt.Printf("\n%s\n", styleWarning.Render("Blocked items:"))
	for _, it := range blocked {
		fmt.Printf("  %s %s — %s\n", it.ID, it.Title, it.BlockedReason)
		unmet := dependency.UnmetDependencyStatuses(it, index)
		depIDs := make([]string, 0, len(unmet))
		for depID := range unmet {
			depIDs = append(depIDs, depID)
		}
		sort.Strings(depIDs)
		for _, depID := range depIDs {
			fmt.Printf("    waiting on %s (%s)\n", depID, unmet[depID])
		}
	}
}
