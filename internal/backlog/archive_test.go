package backlog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orcd/orcd/internal/model"
)

func TestArchiveDoneRemovesOnlyDoneItems(t *testing.T) {
	b := &model.BacklogFile{
		NextItemID: 4,
		Items: []model.Item{
			{ID: "WRK-001", Status: model.StatusDone},
			{ID: "WRK-002", Status: model.StatusReady},
			{ID: "WRK-003", Status: model.StatusDone},
		},
	}
	archived := ArchiveDone(b)
	assert.ElementsMatch(t, []string{"WRK-001", "WRK-003"}, archived)
	require := assert.New(t)
	require.Len(b.Items, 1)
	require.Equal("WRK-002", b.Items[0].ID)
	// next_item_id is never decremented by archival.
	require.Equal(4, b.NextItemID)
}
