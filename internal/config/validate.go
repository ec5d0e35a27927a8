package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/orcd/orcd/internal/model"
)

var validBackends = map[model.AgentBackend]bool{
	model.AgentBackendSubprocess: true,
	model.AgentBackendAnthropic:  true,
}

var validPools = map[model.PhasePool]bool{model.PoolPre: true, model.PoolMain: true}

// Validate checks a loaded config for structural errors: duplicate
// phase names, unknown pools/backends, and missing workflow files on
// disk. Workflow file paths are resolved relative to projectRoot, the
// same way the teacher's Validate resolves prompt files.
func Validate(cfg *model.OrchestrateConfig, projectRoot string) error {
	if cfg.ProjectName == "" {
		return fmt.Errorf("config: 'project_name' is required")
	}
	if len(cfg.Pipelines) == 0 {
		return fmt.Errorf("config: at least one pipeline is required")
	}
	if !validBackends[cfg.AgentBackend] {
		return fmt.Errorf("config: unknown agent_backend %q", cfg.AgentBackend)
	}

	for name, p := range cfg.Pipelines {
		if len(p.Phases) == 0 {
			return fmt.Errorf("config: pipeline %q: at least one phase is required", name)
		}
		seen := make(map[string]bool)
		for i, ph := range p.Phases {
			if ph.Name == "" {
				return fmt.Errorf("config: pipeline %q: phase %d: 'name' is required", name, i+1)
			}
			if seen[ph.Name] {
				return fmt.Errorf("config: pipeline %q: duplicate phase name %q", name, ph.Name)
			}
			seen[ph.Name] = true

			if !validPools[ph.Pool] {
				return fmt.Errorf("config: pipeline %q: phase %q: pool must be %q or %q", name, ph.Name, model.PoolPre, model.PoolMain)
			}
			if len(ph.WorkflowFiles) == 0 {
				return fmt.Errorf("config: pipeline %q: phase %q: at least one workflow file is required", name, ph.Name)
			}
			for _, wf := range ph.WorkflowFiles {
				full := filepath.Join(projectRoot, wf)
				if _, err := os.Stat(full); err != nil {
					return fmt.Errorf("config: pipeline %q: phase %q: workflow file %q not found", name, ph.Name, full)
				}
			}
			if ph.TimeoutSec < 0 {
				return fmt.Errorf("config: pipeline %q: phase %q: timeout_seconds must be >= 0", name, ph.Name)
			}
		}
	}
	return nil
}
