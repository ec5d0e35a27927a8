package coordinator

import (
	"fmt"

	"github.com/orcd/orcd/internal/backlog"
	"github.com/orcd/orcd/internal/model"
)

// Result is the one-shot reply envelope every command carries. A
// command's handler sets either Value or Err, never both, then closes
// over the channel by sending exactly one Result.
type Result[T any] struct {
	Value T
	Err   error
}

// command is implemented by every coordinator operation. apply runs on
// the single actor goroutine and has exclusive access to c.backlog.
type command interface {
	apply(c *Coordinator)
}

type cmdGetSnapshot struct {
	reply chan Result[BacklogSnapshot]
}

func (cmd cmdGetSnapshot) apply(c *Coordinator) {
	cmd.reply <- Result[BacklogSnapshot]{Value: c.snapshotLocked()}
}

type cmdAssignPhase struct {
	itemID string
	phase  string
	pool   model.PhasePool
	reply  chan Result[struct{}]
}

func (cmd cmdAssignPhase) apply(c *Coordinator) {
	it := c.backlog.ItemByID(cmd.itemID)
	if it == nil {
		cmd.reply <- errResult(unknownItemErr(cmd.itemID))
		return
	}
	if it.Status != model.StatusReady && it.Status != model.StatusScoping {
		cmd.reply <- errResult(transitionErr(cmd.itemID, it.Status, "assign-phase"))
		return
	}
	if it.Status == model.StatusReady {
		it.Status = model.StatusInProgress
	}
	it.Phase = cmd.phase
	it.PhasePool = cmd.pool
	it.Updated = c.now()
	cmd.reply <- c.saveOrRollback(nil)
}

type cmdCompletePhase struct {
	itemID     string
	phase      string
	nextStatus model.Status
	commitSHA  string
	reply      chan Result[struct{}]
}

func (cmd cmdCompletePhase) apply(c *Coordinator) {
	it := c.backlog.ItemByID(cmd.itemID)
	if it == nil {
		cmd.reply <- errResult(unknownItemErr(cmd.itemID))
		return
	}
	it.Status = cmd.nextStatus
	if cmd.nextStatus == model.StatusDone {
		it.Phase = ""
		it.PhasePool = model.PoolNone
	} else {
		it.Phase = cmd.phase
	}
	if cmd.commitSHA != "" {
		it.LastPhaseCommit = cmd.commitSHA
	}
	it.Updated = c.now()
	cmd.reply <- c.saveOrRollback(nil)
}

type cmdTransitionBlocked struct {
	itemID         string
	reason         string
	blockedType    string
	unblockContext string
	reply          chan Result[struct{}]
}

func (cmd cmdTransitionBlocked) apply(c *Coordinator) {
	it := c.backlog.ItemByID(cmd.itemID)
	if it == nil {
		cmd.reply <- errResult(unknownItemErr(cmd.itemID))
		return
	}
	it.BlockedFromStatus = it.Status
	it.Status = model.StatusBlocked
	it.BlockedReason = cmd.reason
	it.BlockedType = cmd.blockedType
	it.UnblockContext = cmd.unblockContext
	it.Updated = c.now()
	cmd.reply <- c.saveOrRollback(nil)
}

type cmdUnblock struct {
	itemID string
	reply  chan Result[struct{}]
}

func (cmd cmdUnblock) apply(c *Coordinator) {
	it := c.backlog.ItemByID(cmd.itemID)
	if it == nil {
		cmd.reply <- errResult(unknownItemErr(cmd.itemID))
		return
	}
	if it.Status != model.StatusBlocked {
		cmd.reply <- errResult(transitionErr(cmd.itemID, it.Status, "unblock"))
		return
	}
	it.Status = it.BlockedFromStatus
	it.BlockedFromStatus = ""
	it.BlockedReason = ""
	it.BlockedType = ""
	it.UnblockContext = ""
	it.Updated = c.now()
	cmd.reply <- c.saveOrRollback(nil)
}

type cmdIngestFollowUps struct {
	followUps []model.FollowUp
	origin    string
	reply     chan Result[[]string]
}

func (cmd cmdIngestFollowUps) apply(c *Coordinator) {
	preLen := len(c.backlog.Items)
	preNext := c.backlog.NextItemID

	created := backlog.IngestFollowUps(c.backlog, cmd.followUps, cmd.origin, c.idPrefix, c.now())
	ids := make([]string, len(created))
	for i, it := range created {
		ids[i] = it.ID
	}

	if err := c.save(); err != nil {
		c.backlog.Items = c.backlog.Items[:preLen]
		c.backlog.NextItemID = preNext
		cmd.reply <- Result[[]string]{Err: err}
		return
	}
	cmd.reply <- Result[[]string]{Value: ids}
}

type cmdIngestInbox struct {
	reply chan Result[[]string]
}

type cmdArchiveDone struct {
	reply chan Result[[]string]
}

func (cmd cmdArchiveDone) apply(c *Coordinator) {
	archived := backlog.ArchiveDone(c.backlog)
	if len(archived) == 0 {
		cmd.reply <- Result[[]string]{Value: nil}
		return
	}
	if err := c.save(); err != nil {
		// Archival mutated the live slice in place; a failed save here
		// leaves the archived items gone from memory but still on disk.
		// Nothing reloads them; the next successful save persists the
		// removal.
		cmd.reply <- Result[[]string]{Err: err}
		return
	}
	cmd.reply <- Result[[]string]{Value: archived}
}

type cmdSetAssessment struct {
	itemID     string
	assessment model.TriageAssessment
	phase      string
	pool       model.PhasePool
	reply      chan Result[struct{}]
}

func (cmd cmdSetAssessment) apply(c *Coordinator) {
	it := c.backlog.ItemByID(cmd.itemID)
	if it == nil {
		cmd.reply <- errResult(unknownItemErr(cmd.itemID))
		return
	}
	a := cmd.assessment
	if a.Size != nil {
		it.Size = *a.Size
	}
	if a.Complexity != nil {
		it.Complexity = *a.Complexity
	}
	if a.Risk != nil {
		it.Risk = *a.Risk
	}
	if a.Impact != nil {
		it.Impact = *a.Impact
	}
	if a.NextStatus != "" {
		it.Status = a.NextStatus
	}
	if a.NextStatus == model.StatusReady {
		it.Phase = ""
		it.PhasePool = model.PoolNone
	} else {
		it.Phase = cmd.phase
		it.PhasePool = cmd.pool
	}
	it.Updated = c.now()
	cmd.reply <- c.saveOrRollback(nil)
}

type cmdAddItem struct {
	item  model.InboxItem
	reply chan Result[string]
}

// apply ingests a single item through the same
// backlog.IngestInboxItems path IngestInbox uses, against an in-memory
// one-element slice instead of a file — `orcd add` is "equivalent to
// writing a single-entry inbox file and ingesting it immediately."
func (cmd cmdAddItem) apply(c *Coordinator) {
	preLen := len(c.backlog.Items)
	preNext := c.backlog.NextItemID

	created, skipped := backlog.IngestInboxItems(c.backlog, []model.InboxItem{cmd.item}, c.idPrefix, c.now())
	if skipped > 0 {
		cmd.reply <- errResultString(fmt.Errorf("title is required"))
		return
	}

	if err := c.save(); err != nil {
		c.backlog.Items = c.backlog.Items[:preLen]
		c.backlog.NextItemID = preNext
		cmd.reply <- Result[string]{Err: err}
		return
	}
	cmd.reply <- Result[string]{Value: created[0].ID}
}

type cmdSave struct {
	reply chan Result[struct{}]
}

func (cmd cmdSave) apply(c *Coordinator) {
	cmd.reply <- c.saveOrRollback(nil)
}

func errResult(err error) Result[struct{}] {
	return Result[struct{}]{Err: err}
}

func errResultString(err error) Result[string] {
	return Result[string]{Err: err}
}
