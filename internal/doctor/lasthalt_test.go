package doctor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcd/orcd/internal/scheduler"
)

func TestReadLastHaltWithNoPriorRunReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	reason, err := ReadLastHalt(dir)
	require.NoError(t, err)
	assert.Equal(t, scheduler.HaltReason(""), reason)
}

func TestWriteThenReadLastHaltRoundTrips(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteLastHalt(dir, scheduler.HaltCircuitBreaker))

	reason, err := ReadLastHalt(dir)
	require.NoError(t, err)
	assert.Equal(t, scheduler.HaltCircuitBreaker, reason)
}
