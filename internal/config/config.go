// Package config loads and validates .orcd/config.yaml: the project's
// max WIP, guardrails, agent backend selection, and pipeline/phase
// definitions.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/orcd/orcd/internal/model"
)

// Load reads path, applies defaults, and validates the result against
// projectRoot (workflow files are resolved relative to it).
func Load(path, projectRoot string) (*model.OrchestrateConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg model.OrchestrateConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to deserialize %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := Validate(&cfg, projectRoot); err != nil {
		return nil, err
	}
	return &cfg, nil
}
