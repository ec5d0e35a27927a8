package backlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/orcd/orcd/internal/model"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "BACKLOG.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCurrentVersionRoundTrip(t *testing.T) {
	now := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	b := &model.BacklogFile{
		SchemaVersion: model.CurrentSchemaVersion,
		NextItemID:    2,
		Items: []model.Item{
			{ID: "WRK-001", Title: "Example", Status: model.StatusReady, Created: now, Updated: now},
		},
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "BACKLOG.yaml")
	require.NoError(t, Save(path, b))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.CurrentSchemaVersion, loaded.SchemaVersion)
	assert.Equal(t, 2, loaded.NextItemID)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "WRK-001", loaded.Items[0].ID)
	assert.True(t, loaded.Items[0].Created.Equal(now))
}

// S5 — v2->v3 migration with freeform description.
func TestMigrateV2ToV3FreeformDescription(t *testing.T) {
	content := `
schema_version: 2
next_item_id: 2
items:
  - id: WRK-001
    title: Example
    status: ready
    created: "2026-02-20T00:00:00Z"
    updated: "2026-02-20T00:00:00Z"
    description: |
      Context: foo
      Problem: bar
      Solution: baz
      Impact: qux
      Sizing rationale: quux
`
	path := writeTemp(t, content)
	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)

	d := loaded.Items[0].Description
	require.NotNil(t, d)
	assert.Equal(t, "foo", d.Context)
	assert.Equal(t, "bar", d.Problem)
	assert.Equal(t, "baz", d.Solution)
	assert.Equal(t, "qux", d.Impact)
	assert.Equal(t, "quux", d.SizingRationale)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	var probe versionProbe
	require.NoError(t, yaml.Unmarshal(onDisk, &probe))
	assert.Equal(t, model.CurrentSchemaVersion, probe.SchemaVersion)
}

func TestMigrateV2ToV3NoHeadersFallsBackToContext(t *testing.T) {
	content := `
schema_version: 2
next_item_id: 2
items:
  - id: WRK-001
    title: Example
    status: ready
    created: "2026-02-20T00:00:00Z"
    updated: "2026-02-20T00:00:00Z"
    description: "just some free text, no headers here"
`
	path := writeTemp(t, content)
	loaded, err := Load(path)
	require.NoError(t, err)
	d := loaded.Items[0].Description
	require.NotNil(t, d)
	assert.Equal(t, "just some free text, no headers here", d.Context)
	assert.Empty(t, d.Problem)
}

func TestMigrateV1ToV3Chain(t *testing.T) {
	content := `
next_item_id: 2
items:
  - id: WRK-001
    title: Example
    status: ready
    created: "2026-02-20T00:00:00Z"
    updated: "2026-02-20T00:00:00Z"
    description: "Context: legacy item"
`
	path := writeTemp(t, content)
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.CurrentSchemaVersion, loaded.SchemaVersion)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "legacy item", loaded.Items[0].Description.Context)
}

func TestMigrateIsIdempotent(t *testing.T) {
	content := `
schema_version: 2
next_item_id: 1
items: []
`
	path := writeTemp(t, content)
	_, err := Load(path)
	require.NoError(t, err)

	// Loading again must not error and must leave schema_version stable.
	loaded2, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.CurrentSchemaVersion, loaded2.SchemaVersion)
}

func TestLoadRejectsFutureVersion(t *testing.T) {
	content := `
schema_version: 99
next_item_id: 1
items: []
`
	path := writeTemp(t, content)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upgrade the tool")
}

func TestLoadRejectsMissingRequiredFields(t *testing.T) {
	content := `
schema_version: 3
next_item_id: 1
items:
  - id: WRK-001
    status: ready
    created: "2026-02-20T00:00:00Z"
    updated: "2026-02-20T00:00:00Z"
`
	path := writeTemp(t, content)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title")
}
