package coordinator

import (
	"errors"

	"github.com/orcd/orcd/internal/backlog"
	"github.com/orcd/orcd/internal/inbox"
)

// apply implements the six-step IngestInbox protocol from spec.md
// §4.6: TOCTOU-safe read, tolerant parse, title-validated ingest with
// rollback-on-save-failure, then best-effort clear.
func (cmd cmdIngestInbox) apply(c *Coordinator) {
	data, err := inbox.Read(c.inbox)
	if err != nil {
		if errors.Is(err, inbox.ErrNotFound) {
			cmd.reply <- Result[[]string]{Value: nil}
			return
		}
		cmd.reply <- Result[[]string]{Err: err}
		return
	}

	if inbox.IsBlank(data) {
		if rmErr := inbox.Delete(c.inbox); rmErr != nil {
			c.logger.Warn("failed to remove empty inbox file", "err", rmErr)
		}
		cmd.reply <- Result[[]string]{Value: nil}
		return
	}

	items, err := inbox.Parse(data)
	if err != nil {
		c.logger.Warn("inbox parse failed, leaving file in place", "err", err)
		cmd.reply <- Result[[]string]{Value: nil}
		return
	}

	preLen := len(c.backlog.Items)
	preNext := c.backlog.NextItemID

	created, skipped := backlog.IngestInboxItems(c.backlog, items, c.idPrefix, c.now())
	if skipped > 0 {
		c.logger.Warn("inbox items skipped: blank title", "count", skipped)
	}

	ids := make([]string, len(created))
	for i, it := range created {
		ids[i] = it.ID
	}

	if err := c.save(); err != nil {
		c.backlog.Items = c.backlog.Items[:preLen]
		c.backlog.NextItemID = preNext
		c.logger.Error("inbox ingestion save failed, rolled back", "err", err)
		cmd.reply <- Result[[]string]{Err: err}
		return
	}

	if rmErr := inbox.Delete(c.inbox); rmErr != nil {
		c.logger.Warn("failed to remove consumed inbox file", "err", rmErr)
	}

	cmd.reply <- Result[[]string]{Value: ids}
}
