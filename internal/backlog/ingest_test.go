package backlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcd/orcd/internal/model"
)

func TestIngestFollowUpsAssignsOriginAndIDs(t *testing.T) {
	now := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	b := &model.BacklogFile{NextItemID: 13}
	created := IngestFollowUps(b, []model.FollowUp{
		{Title: "Fix edge case", Context: "discovered during design", SuggestedSize: model.SizeSmall},
	}, "WRK-012/design", "WRK", now)

	require.Len(t, created, 1)
	assert.Equal(t, "WRK-013", created[0].ID)
	assert.Equal(t, model.StatusNew, created[0].Status)
	assert.Equal(t, "WRK-012/design", created[0].Origin)
	assert.Equal(t, model.SizeSmall, created[0].Size)
	assert.Equal(t, "discovered during design", created[0].Description.Context)
	assert.Equal(t, 14, b.NextItemID)
	assert.Len(t, b.Items, 1)
}

func TestIngestInboxItemsSkipsBlankTitlesWithoutConsumingID(t *testing.T) {
	now := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	b := &model.BacklogFile{NextItemID: 1}
	created, skipped := IngestInboxItems(b, []model.InboxItem{
		{Title: "   "},
		{Title: "Fix login bug", Size: model.SizeMedium},
	}, "WRK", now)

	assert.Equal(t, 1, skipped)
	require.Len(t, created, 1)
	assert.Equal(t, "WRK-001", created[0].ID)
	assert.Equal(t, "inbox", created[0].Origin)
	assert.Equal(t, 2, b.NextItemID)
}
