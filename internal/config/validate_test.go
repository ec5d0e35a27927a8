package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcd/orcd/internal/model"
)

func writeWorkflowFile(t *testing.T, root, rel string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte("do the thing"), 0644))
}

func validConfig(root string) *model.OrchestrateConfig {
	return &model.OrchestrateConfig{
		ProjectName: "demo",
		Pipelines: map[string]model.PipelineConfig{
			"default": {
				Name: "default",
				Phases: []model.PhaseDef{
					{Name: "implement", Pool: model.PoolMain, WorkflowFiles: []string{"workflows/implement.md"}},
				},
			},
		},
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	root := t.TempDir()
	writeWorkflowFile(t, root, "workflows/implement.md")
	cfg := validConfig(root)
	cfg.ApplyDefaults()
	assert.NoError(t, Validate(cfg, root))
}

func TestValidateRejectsMissingWorkflowFile(t *testing.T) {
	root := t.TempDir()
	cfg := validConfig(root)
	cfg.ApplyDefaults()
	err := Validate(cfg, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateRejectsDuplicatePhaseNames(t *testing.T) {
	root := t.TempDir()
	writeWorkflowFile(t, root, "workflows/implement.md")
	cfg := validConfig(root)
	cfg.Pipelines["default"] = model.PipelineConfig{
		Name: "default",
		Phases: []model.PhaseDef{
			{Name: "implement", Pool: model.PoolMain, WorkflowFiles: []string{"workflows/implement.md"}},
			{Name: "implement", Pool: model.PoolMain, WorkflowFiles: []string{"workflows/implement.md"}},
		},
	}
	cfg.ApplyDefaults()
	err := Validate(cfg, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate phase name")
}

func TestValidateRejectsUnknownPool(t *testing.T) {
	root := t.TempDir()
	writeWorkflowFile(t, root, "workflows/implement.md")
	cfg := validConfig(root)
	cfg.Pipelines["default"] = model.PipelineConfig{
		Name: "default",
		Phases: []model.PhaseDef{
			{Name: "implement", Pool: "weird", WorkflowFiles: []string{"workflows/implement.md"}},
		},
	}
	cfg.ApplyDefaults()
	err := Validate(cfg, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool must be")
}

func TestLoadAppliesDefaultsAndValidates(t *testing.T) {
	root := t.TempDir()
	writeWorkflowFile(t, root, "workflows/implement.md")
	data := `
project_name: demo
pipelines:
  default:
    name: default
    phases:
      - name: implement
        pool: main
        workflow_files: [workflows/implement.md]
`
	path := filepath.Join(root, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path, root)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxWIP)
	assert.Equal(t, model.AgentBackendSubprocess, cfg.AgentBackend)
}
