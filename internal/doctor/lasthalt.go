package doctor

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/orcd/orcd/internal/scheduler"
)

// lastHaltRelPath is where `orcd run` records why it stopped, so a
// later `orcd doctor` invocation can report on a process it didn't
// witness. model.RunState itself is rebuilt from the backlog on every
// start and carries nothing across process boundaries.
const lastHaltRelPath = ".orcd/last_halt.yaml"

type lastHaltRecord struct {
	Reason string `yaml:"reason"`
}

// WriteLastHalt records the run-loop's halt reason for projectRoot.
// Called by the run command after Run returns.
func WriteLastHalt(projectRoot string, reason scheduler.HaltReason) error {
	data, err := yaml.Marshal(lastHaltRecord{Reason: string(reason)})
	if err != nil {
		return err
	}
	path := filepath.Join(projectRoot, lastHaltRelPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadLastHalt loads the most recently recorded halt reason for
// projectRoot. A missing file (no prior run) reports haltNone's
// zero value as an empty HaltReason, not an error.
func ReadLastHalt(projectRoot string) (scheduler.HaltReason, error) {
	path := filepath.Join(projectRoot, lastHaltRelPath)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return scheduler.HaltReason(""), nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	var rec lastHaltRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	return scheduler.HaltReason(rec.Reason), nil
}
