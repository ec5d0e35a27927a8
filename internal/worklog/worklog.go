// Package worklog writes the two append-only, best-effort audit trails
// the Executor produces alongside authoritative backlog state: a
// per-item Markdown log under _worklog/, and a per-commit change note
// under changes/. Neither survives a torn write the way the backlog
// file must — they are logs, not state, so they use plain append
// rather than the atomic rename pattern in internal/backlog.
package worklog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/orcd/orcd/internal/model"
)

const (
	worklogDir = "_worklog"
	changesDir = "changes"
)

// AppendEntry appends one phase-execution record to
// _worklog/{item_id}.md. A torn last line from a prior crash is
// tolerated: appends always start a fresh "### " heading, so a reader
// (or the next append) is unaffected by a truncated previous entry.
func AppendEntry(workDir, itemID string, entry model.WorklogEntry) error {
	dir := filepath.Join(workDir, worklogDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, itemID+".md"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "\n### %s — %s (%s)\n\n%s\n",
		entry.Phase, entry.Ended.Format("2006-01-02T15:04:05Z07:00"), entry.ResultCode, entry.Summary)
	if err != nil {
		return err
	}
	if entry.CommitSHA != "" {
		_, err = fmt.Fprintf(f, "\nCommit: %s\n", entry.CommitSHA)
	}
	return err
}

// WriteChangeNote writes changes/{item_id}-{phase}.md with the phase's
// summary, immediately before the Executor requests the Git commit —
// the note and the commit describe the same unit of work.
func WriteChangeNote(workDir, itemID, phase, summary string) error {
	dir := filepath.Join(workDir, changesDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.md", itemID, phase))
	content := fmt.Sprintf("# %s: %s\n\n%s\n", itemID, phase, summary)
	return os.WriteFile(path, []byte(content), 0644)
}
