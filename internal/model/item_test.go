package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewItemDefaults(t *testing.T) {
	now := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	it := NewItem("WRK-001", "Example", now)

	assert.Equal(t, StatusNew, it.Status)
	assert.Equal(t, "", it.Phase)
	assert.Equal(t, PoolNone, it.PhasePool)
	assert.Equal(t, Size(""), it.Size)
	assert.False(t, it.RequiresHumanReview)
	assert.Empty(t, it.Tags)
	assert.Empty(t, it.Dependencies)
	assert.False(t, it.HasAnyBlockedField())
	assert.Equal(t, now, it.Created)
	assert.Equal(t, now, it.Updated)
}

func TestHasBlockedFields(t *testing.T) {
	it := Item{Status: StatusBlocked}
	assert.False(t, it.HasBlockedFields())
	assert.False(t, it.HasAnyBlockedField())

	it.BlockedFromStatus = StatusReady
	assert.False(t, it.HasBlockedFields())
	assert.True(t, it.HasAnyBlockedField())

	it.BlockedReason = "waiting"
	it.BlockedType = "external"
	it.UnblockContext = "none yet"
	assert.True(t, it.HasBlockedFields())
}

func TestCloneIsDeep(t *testing.T) {
	it := Item{
		ID:           "WRK-001",
		Tags:         []string{"backend"},
		Dependencies: []string{"WRK-000"},
		Description:  &Description{Context: "ctx"},
	}
	cp := it.Clone()
	cp.Tags[0] = "changed"
	cp.Dependencies[0] = "changed"
	cp.Description.Context = "changed"

	assert.Equal(t, "backend", it.Tags[0])
	assert.Equal(t, "WRK-000", it.Dependencies[0])
	assert.Equal(t, "ctx", it.Description.Context)
}

func TestDescriptionIsEmpty(t *testing.T) {
	assert.True(t, Description{}.IsEmpty())
	assert.False(t, Description{Context: "x"}.IsEmpty())
}
