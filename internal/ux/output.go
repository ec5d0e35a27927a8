package ux

import (
	"fmt"
	"time"

	"github.com/orcd/orcd/internal/executor"
	"github.com/orcd/orcd/internal/scheduler"
)

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// IterationLine prints one run-loop iteration's selected actions.
func IterationLine(iteration int, actions []scheduler.Action) {
	if len(actions) == 0 {
		fmt.Printf("%s %s\n", styleMuted.Render(fmt.Sprintf("[%s]", timestamp())), styleMuted.Render(fmt.Sprintf("iteration %d: no actions selected", iteration)))
		return
	}
	fmt.Printf("%s iteration %d: %d action(s)\n", styleMuted.Render(fmt.Sprintf("[%s]", timestamp())), iteration, len(actions))
	for _, a := range actions {
		fmt.Printf("  %s %s %s\n", styleAccent.Render(string(a.Kind)), a.ItemID, styleMuted.Render(a.Phase))
	}
}

// PhaseResultLine prints one phase execution's terminal outcome.
func PhaseResultLine(res executor.PhaseExecutionResult) {
	ts := styleMuted.Render(fmt.Sprintf("[%s]", timestamp()))
	switch res.Outcome {
	case executor.OutcomeCompleted:
		fmt.Printf("%s  %s %s %s\n", ts, styleSuccess.Render("✓"), res.ItemID, styleMuted.Render(res.Phase))
	case executor.OutcomeBlocked:
		fmt.Printf("%s  %s %s %s — %s\n", ts, styleWarning.Render("⏸"), res.ItemID, styleMuted.Render(res.Phase), res.Reason)
	case executor.OutcomeFailed:
		fmt.Printf("%s  %s %s %s — %s\n", ts, styleError.Render("✗"), res.ItemID, styleMuted.Render(res.Phase), res.Reason)
	case executor.OutcomeTimedOut:
		fmt.Printf("%s  %s %s %s timed out\n", ts, styleError.Render("⏱"), res.ItemID, styleMuted.Render(res.Phase))
	case executor.OutcomeCancelled:
		fmt.Printf("%s  %s %s %s cancelled\n", ts, styleMuted.Render("–"), res.ItemID, styleMuted.Render(res.Phase))
	}
}

// HaltSummary prints the final halt reason and the run's accumulated
// progress, per spec.md §7's user-visible halt summary requirement.
func HaltSummary(reason scheduler.HaltReason, completed, blocked []string) {
	fmt.Println()
	label := string(reason)
	style := styleSuccess
	if reason == scheduler.HaltCircuitBreaker || reason == scheduler.HaltCancelled {
		style = styleError
	}
	fmt.Printf("%s %s\n", styleBold.Render("Halted:"), style.Render(label))
	fmt.Printf("  %s %d\n", styleMuted.Render("completed:"), len(completed))
	if len(blocked) > 0 {
		fmt.Printf("  %s %d (%s)\n", styleMuted.Render("blocked:"), len(blocked), joinIDs(blocked))
	}
}

func joinIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += id
	}
	return out
}
