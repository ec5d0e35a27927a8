package doctor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/orcd/orcd/internal/model"
	"github.com/orcd/orcd/internal/scheduler"
)

func TestDiagnoseCountsCompletedAndListsBlockedWithUnmetDeps(t *testing.T) {
	now := time.Now()
	items := []model.Item{
		{ID: "WRK-001", Title: "done one", Status: model.StatusDone, Created: now, Updated: now},
		{
			ID: "WRK-002", Title: "stuck one", Status: model.StatusBlocked,
			BlockedFromStatus: model.StatusReady, BlockedReason: "waiting on dep", BlockedType: "dependency",
			UnblockContext: "x", Dependencies: []string{"WRK-003"}, Created: now, Updated: now,
		},
		{ID: "WRK-003", Title: "dep", Status: model.StatusInProgress, Created: now, Updated: now},
	}

	r := Diagnose(items, scheduler.HaltAllDoneOrBlocked)
	assert.Equal(t, 1, r.CompletedCount)
	if assert.Len(t, r.BlockedItems, 1) {
		bi := r.BlockedItems[0]
		assert.Equal(t, "WRK-002", bi.ID)
		assert.Contains(t, bi.UnmetDepStatus, "WRK-003")
	}
}

func TestDiagnoseWithNoBlockedItems(t *testing.T) {
	now := time.Now()
	items := []model.Item{
		{ID: "WRK-001", Title: "a", Status: model.StatusDone, Created: now, Updated: now},
	}
	r := Diagnose(items, scheduler.HaltIterationCap)
	assert.Empty(t, r.BlockedItems)
	assert.Contains(t, r.Render(), "No blocked items.")
}

func TestRenderIncludesHaltReasonAndBlockedDetail(t *testing.T) {
	now := time.Now()
	items := []model.Item{
		{
			ID: "WRK-002", Title: "stuck", Status: model.StatusBlocked,
			BlockedFromStatus: model.StatusReady, BlockedReason: "needs review", BlockedType: "dependency",
			UnblockContext: "x", Created: now, Updated: now,
		},
	}
	out := Diagnose(items, scheduler.HaltCircuitBreaker).Render()
	assert.Contains(t, out, string(scheduler.HaltCircuitBreaker))
	assert.Contains(t, out, "needs review")
}
