package executor

import (
	"fmt"
	"strings"

	"github.com/orcd/orcd/internal/model"
	"github.com/orcd/orcd/internal/runner"
)

// buildPreamble assembles the Markdown prefix prompt construction
// step 1 specifies: item identity, status/phase, and an optional
// Description section rendered one labeled line per populated field,
// in fixed order. Grounded on spec.md §4.4 step 1 / SPEC_FULL §4.4.2.
func buildPreamble(it model.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Item %s: %s\n\n", it.ID, it.Title)
	fmt.Fprintf(&b, "**Status:** %s  **Phase:** %s\n", it.Status, phaseOrNone(it.Phase))

	if it.Description != nil && !it.Description.IsEmpty() {
		b.WriteString("\n## Description\n")
		writeLabeled(&b, "Context", it.Description.Context)
		writeLabeled(&b, "Problem", it.Description.Problem)
		writeLabeled(&b, "Solution", it.Description.Solution)
		writeLabeled(&b, "Impact", it.Description.Impact)
		writeLabeled(&b, "Sizing Rationale", it.Description.SizingRationale)
	}

	return b.String()
}

func phaseOrNone(phase string) string {
	if phase == "" {
		return "none"
	}
	return phase
}

func writeLabeled(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "**%s:** %s\n", label, value)
}

// workflowFile pairs a workflow file's path (for error messages) with
// its already-read contents, keeping concatenation order identical to
// PhaseDef.WorkflowFiles — map iteration order is not deterministic,
// so callers pass an ordered slice rather than a map.
type workflowFile struct {
	Path    string
	Content string
}

// buildWorkflowBody concatenates a phase's workflow files, in
// configured order, each variable-expanded against the item's own
// fields plus the caller's extra vars — grounded on the teacher's
// dispatch.ExpandVars applied per-file before concatenation in
// dispatch.RunAgent.
func buildWorkflowBody(it model.Item, pool model.PhasePool, files []workflowFile, extraVars map[string]string) string {
	vars := map[string]string{
		"ITEM_ID":     it.ID,
		"ITEM_TITLE":  it.Title,
		"ITEM_STATUS": string(it.Status),
		"ITEM_PHASE":  it.Phase,
		"PHASE_POOL":  string(pool),
	}
	for k, v := range extraVars {
		vars[k] = v
	}

	var b strings.Builder
	for _, f := range files {
		b.WriteString(runner.ExpandVars(f.Content, vars))
		b.WriteString("\n")
	}
	return b.String()
}
