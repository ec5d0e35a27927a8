package backlog

import (
	"strings"
	"time"

	"github.com/orcd/orcd/internal/model"
)

// IngestFollowUps generates a new ID for each follow-up, constructs a
// new-status BacklogItem with origin "{origin_prefix}", appends it to
// the backlog, and returns the newly created items. The caller
// (Coordinator) is responsible for persisting the result.
func IngestFollowUps(b *model.BacklogFile, followUps []model.FollowUp, originPrefix string, idPrefix string, now time.Time) []model.Item {
	var created []model.Item
	for _, fu := range followUps {
		id, next := GenerateNextID(b.NextItemID, idPrefix)
		b.NextItemID = next

		it := model.NewItem(id, fu.Title, now)
		it.Origin = originPrefix
		if fu.Context != "" || fu.SuggestedSize != "" {
			it.Description = &model.Description{Context: fu.Context}
		}
		it.Size = fu.SuggestedSize
		it.Risk = fu.SuggestedRisk

		b.Items = append(b.Items, it)
		created = append(created, it)
	}
	return created
}

// IngestInboxItems validates and appends inbox items the same way
// IngestFollowUps does for phase follow-ups, but with origin fixed to
// "inbox" and titles required to be non-whitespace. Items with an
// empty trimmed title are skipped (logged by the caller) without
// consuming an ID. Returns the created items.
func IngestInboxItems(b *model.BacklogFile, items []model.InboxItem, idPrefix string, now time.Time) (created []model.Item, skipped int) {
	for _, src := range items {
		title := strings.TrimSpace(src.Title)
		if title == "" {
			skipped++
			continue
		}
		id, next := GenerateNextID(b.NextItemID, idPrefix)
		b.NextItemID = next

		it := model.NewItem(id, title, now)
		it.Origin = "inbox"
		if src.Description != "" {
			it.Description = &model.Description{Context: src.Description}
		}
		it.Size = src.Size
		it.Risk = src.Risk
		it.Impact = src.Impact
		it.PipelineType = src.PipelineType
		it.Dependencies = append([]string(nil), src.Dependencies...)

		b.Items = append(b.Items, it)
		created = append(created, it)
	}
	return created, skipped
}
