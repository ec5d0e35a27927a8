// Package coordinator implements the single-writer actor that owns the
// authoritative in-memory backlog. Every mutation travels through a
// buffered command channel processed by one goroutine (Run), so no two
// commands ever observe or produce a torn state — the realization the
// SPEC_FULL "Channel-actor" section calls for in place of the source
// project's lock-based state guard (internal/state in the teacher).
package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/orcd/orcd/internal/backlog"
	"github.com/orcd/orcd/internal/model"
)

// Coordinator serializes access to a BacklogFile behind a command
// channel. Construct with New, then run Run(ctx) in its own goroutine
// before issuing any command.
type Coordinator struct {
	path     string
	idPrefix string
	backlog  *model.BacklogFile
	inbox    string
	logger   *log.Logger

	cmds chan command

	nowFn func() time.Time
}

// New constructs a Coordinator over an already-loaded backlog. path is
// where Save persists; inboxPath is the drop-file IngestInbox reads.
func New(path, inboxPath, idPrefix string, b *model.BacklogFile, logger *log.Logger) *Coordinator {
	return &Coordinator{
		path:     path,
		idPrefix: idPrefix,
		backlog:  b,
		inbox:    inboxPath,
		logger:   logger,
		cmds:     make(chan command, 64),
		nowFn:    time.Now,
	}
}

func (c *Coordinator) now() time.Time {
	return c.nowFn()
}

// Run processes commands sequentially until ctx is cancelled or the
// channel is closed. It is the only goroutine that ever touches
// c.backlog; callers must not share a Coordinator's backlog pointer.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-c.cmds:
			if !ok {
				return
			}
			cmd.apply(c)
		}
	}
}

func (c *Coordinator) save() error {
	return backlog.Save(c.path, c.backlog)
}

// saveOrRollback saves the backlog, invoking rollback (when non-nil)
// and logging the save failure at error level if the write fails.
// Its callers pass a nil rollback; the commands that grow the items
// slice (IngestFollowUps, IngestInbox, AddItem) do not call it and
// roll back inline instead.
func (c *Coordinator) saveOrRollback(rollback func()) Result[struct{}] {
	if err := c.save(); err != nil {
		if rollback != nil {
			rollback()
		}
		c.logger.Error("backlog save failed", "err", err)
		return Result[struct{}]{Err: err}
	}
	return Result[struct{}]{}
}

func (c *Coordinator) submit(cmd command) {
	c.cmds <- cmd
}

func unknownItemErr(id string) error {
	return fmt.Errorf("coordinator: unknown item %q", id)
}

func transitionErr(id string, from model.Status, op string) error {
	return fmt.Errorf("coordinator: item %q: invalid status %q for %s", id, from, op)
}

// GetSnapshot returns a consistent read-only view of the backlog.
func (c *Coordinator) GetSnapshot(ctx context.Context) (BacklogSnapshot, error) {
	reply := make(chan Result[BacklogSnapshot], 1)
	return await(ctx, c, cmdGetSnapshot{reply: reply}, reply)
}

// AssignPhase transitions an item from ready (or within scoping) into
// the named phase.
func (c *Coordinator) AssignPhase(ctx context.Context, itemID, phase string, pool model.PhasePool) error {
	reply := make(chan Result[struct{}], 1)
	_, err := await(ctx, c, cmdAssignPhase{itemID: itemID, phase: phase, pool: pool, reply: reply}, reply)
	return err
}

// CompletePhase advances an item past a successfully completed phase.
func (c *Coordinator) CompletePhase(ctx context.Context, itemID, phase string, nextStatus model.Status, commitSHA string) error {
	reply := make(chan Result[struct{}], 1)
	_, err := await(ctx, c, cmdCompletePhase{itemID: itemID, phase: phase, nextStatus: nextStatus, commitSHA: commitSHA, reply: reply}, reply)
	return err
}

// TransitionBlocked records the blocked-* fields and moves the item to
// status blocked, preserving the prior status for later Unblock.
func (c *Coordinator) TransitionBlocked(ctx context.Context, itemID, reason, blockedType, unblockContext string) error {
	reply := make(chan Result[struct{}], 1)
	_, err := await(ctx, c, cmdTransitionBlocked{itemID: itemID, reason: reason, blockedType: blockedType, unblockContext: unblockContext, reply: reply}, reply)
	return err
}

// Unblock restores an item to the status it held before it was blocked.
func (c *Coordinator) Unblock(ctx context.Context, itemID string) error {
	reply := make(chan Result[struct{}], 1)
	_, err := await(ctx, c, cmdUnblock{itemID: itemID, reply: reply}, reply)
	return err
}

// IngestFollowUps appends new-status items for each follow-up and
// returns their generated IDs.
func (c *Coordinator) IngestFollowUps(ctx context.Context, followUps []model.FollowUp, origin string) ([]string, error) {
	reply := make(chan Result[[]string], 1)
	return await(ctx, c, cmdIngestFollowUps{followUps: followUps, origin: origin, reply: reply}, reply)
}

// IngestInbox reads, parses, validates, and ingests BACKLOG_INBOX.yaml,
// clearing it on success. See inbox.go for the full protocol.
func (c *Coordinator) IngestInbox(ctx context.Context) ([]string, error) {
	reply := make(chan Result[[]string], 1)
	return await(ctx, c, cmdIngestInbox{reply: reply}, reply)
}

// ArchiveDone removes all done items and returns their IDs.
func (c *Coordinator) ArchiveDone(ctx context.Context) ([]string, error) {
	reply := make(chan Result[[]string], 1)
	return await(ctx, c, cmdArchiveDone{reply: reply}, reply)
}

// SetAssessment applies a triage assessment's provided-only fields and
// records phase/pool as the triage phase just completed, so a
// NextStatus of scoping resumes at the pipeline's next pre-pool phase
// instead of re-running the one triage just finished.
func (c *Coordinator) SetAssessment(ctx context.Context, itemID string, assessment model.TriageAssessment, phase string, pool model.PhasePool) error {
	reply := make(chan Result[struct{}], 1)
	_, err := await(ctx, c, cmdSetAssessment{itemID: itemID, assessment: assessment, phase: phase, pool: pool, reply: reply}, reply)
	return err
}

// AddItem creates a new item from a single inbox-shaped record, used
// by the `orcd add` CLI command. item.Dependencies is not validated
// against the backlog here — preflight's dependency-graph check
// catches a dangling reference on the next run.
func (c *Coordinator) AddItem(ctx context.Context, item model.InboxItem) (string, error) {
	reply := make(chan Result[string], 1)
	return await(ctx, c, cmdAddItem{item: item, reply: reply}, reply)
}

// Save forces a write of the current in-memory backlog to disk.
func (c *Coordinator) Save(ctx context.Context) error {
	reply := make(chan Result[struct{}], 1)
	_, err := await(ctx, c, cmdSave{reply: reply}, reply)
	return err
}

// await submits cmd and blocks for its reply, returning ctx.Err() if
// the context is cancelled first (the command may still run to
// completion on the actor side; its reply is simply discarded).
func await[T any](ctx context.Context, c *Coordinator, cmd command, reply chan Result[T]) (T, error) {
	var zero T
	select {
	case c.cmds <- cmd:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.Value, r.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
