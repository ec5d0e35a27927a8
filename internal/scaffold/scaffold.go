// Package scaffold implements `orcd init`: a deterministic directory
// and starter-config layout, grounded on the teacher's fallback
// template writer (no AI-generation path — orcd's init is always the
// deterministic template).
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/orcd/orcd/internal/model"
)

const defaultConfig = `project_name: my-project
max_wip: 3
agent_backend: subprocess
agent_binary: claude
id_prefix: WRK
guardrails:
  max_iterations: 0
  circuit_breaker_threshold: 5
  phase_retry_limit: 1
pipelines:
  feature:
    name: feature
    phases:
      - name: scope
        pool: pre
        workflow_files: [".orchestrator/workflows/scope.md"]
      - name: implement
        pool: main
        workflow_files: [".orchestrator/workflows/implement.md"]
      - name: review
        pool: main
        workflow_files: [".orchestrator/workflows/review.md"]
`

const scopeWorkflow = `Read the item's description and produce a sizing assessment
(size, complexity, risk, impact) plus a short rationale.
`

const implementWorkflow = `Implement the item's description. Make the smallest change that
satisfies it, following the project's existing conventions.
`

const reviewWorkflow = `Review the implementation for correctness and style. Fix anything
that doesn't meet the project's conventions.
`

// Init scaffolds a new orcd project rooted at targetDir: config.yaml,
// an empty v3 BACKLOG.yaml, default pipeline workflow files, and the
// ancillary directories spec.md §6 expects to exist.
func Init(targetDir string) ([]string, error) {
	orcdDir := filepath.Join(targetDir, ".orcd")
	if _, err := os.Stat(orcdDir); err == nil {
		return nil, fmt.Errorf(".orcd directory already exists in %s", targetDir)
	}

	files := map[string]string{
		".orcd/config.yaml":                  defaultConfig,
		".orchestrator/workflows/scope.md":     scopeWorkflow,
		".orchestrator/workflows/implement.md": implementWorkflow,
		".orchestrator/workflows/review.md":    reviewWorkflow,
	}

	var written []string
	for rel, content := range files {
		full := filepath.Join(targetDir, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return nil, fmt.Errorf("creating directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", rel, err)
		}
		written = append(written, rel)
	}

	for _, dir := range []string{"_ideas", "_worklog", "changes"} {
		if err := os.MkdirAll(filepath.Join(targetDir, dir), 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
		written = append(written, dir+"/")
	}

	empty := model.BacklogFile{SchemaVersion: model.CurrentSchemaVersion, NextItemID: 1}
	data, err := yaml.Marshal(empty)
	if err != nil {
		return nil, err
	}
	backlogPath := filepath.Join(targetDir, "BACKLOG.yaml")
	if err := os.WriteFile(backlogPath, data, 0644); err != nil {
		return nil, fmt.Errorf("writing BACKLOG.yaml: %w", err)
	}
	written = append(written, "BACKLOG.yaml")

	return written, nil
}
