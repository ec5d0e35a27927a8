// Package gitcommit is the thin collaborator spec.md §1 names as
// deliberately out of scope ("the specific Git command surface used
// for commits"): just enough to let the Executor record a commit SHA
// after a phase completes, without prescribing branch strategy, signing,
// or hooks.
package gitcommit

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Committer stages all changes in workDir and commits them with the
// given subject/body, returning the new commit's SHA.
type Committer interface {
	Commit(ctx context.Context, workDir, subject, body string) (sha string, err error)
}

// GitCommitter shells out to the system git binary.
type GitCommitter struct{}

func (GitCommitter) Commit(ctx context.Context, workDir, subject, body string) (string, error) {
	add := exec.CommandContext(ctx, "git", "add", "-A")
	add.Dir = workDir
	if out, err := add.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git add: %w: %s", err, out)
	}

	status := exec.CommandContext(ctx, "git", "status", "--porcelain")
	status.Dir = workDir
	out, err := status.Output()
	if err != nil {
		return "", fmt.Errorf("git status: %w", err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return "", fmt.Errorf("nothing to commit")
	}

	message := subject
	if body != "" {
		message = subject + "\n\n" + body
	}
	commit := exec.CommandContext(ctx, "git", "commit", "-m", message)
	commit.Dir = workDir
	if out, err := commit.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit: %w: %s", err, out)
	}

	rev := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	rev.Dir = workDir
	shaOut, err := rev.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(shaOut)), nil
}
