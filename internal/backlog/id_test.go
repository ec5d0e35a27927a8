package backlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateNextIDFormatsAndIncrements(t *testing.T) {
	id, next := GenerateNextID(42, "WRK")
	assert.Equal(t, "WRK-042", id)
	assert.Equal(t, 43, next)
}

func TestGenerateNextIDNeverReused(t *testing.T) {
	seen := map[string]bool{}
	counter := 1
	for i := 0; i < 5; i++ {
		id, next := GenerateNextID(counter, "WRK")
		assert.False(t, seen[id])
		seen[id] = true
		counter = next
	}
	assert.Equal(t, 6, counter)
}
