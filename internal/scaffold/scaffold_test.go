package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcd/orcd/internal/config"
)

func TestInitWritesExpectedLayout(t *testing.T) {
	dir := t.TempDir()
	written, err := Init(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, written)

	for _, p := range []string{".orcd/config.yaml", "BACKLOG.yaml", "_ideas", "_worklog", "changes", ".orchestrator/workflows/scope.md"} {
		_, err := os.Stat(filepath.Join(dir, p))
		assert.NoError(t, err, "expected %s to exist", p)
	}
}

func TestInitProducesLoadableConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := Init(dir)
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, ".orcd", "config.yaml"), dir)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxWIP)
}

func TestInitRejectsExistingOrcdDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".orcd"), 0755))
	_, err := Init(dir)
	assert.Error(t, err)
}
