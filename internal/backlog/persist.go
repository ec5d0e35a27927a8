// Package backlog implements the Backlog State Model: YAML persistence
// with atomic writes, the schema migration chain, monotonic ID
// generation, archival, and follow-up ingestion. It is pure data + file
// I/O — the only writer is the Coordinator (internal/coordinator),
// which this package has no knowledge of.
package backlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/orcd/orcd/internal/model"
)

// Load reads BACKLOG.yaml from path, running the migration chain until
// the file matches CurrentSchemaVersion, then parses the final form.
// Load does not support partial reads — any parse error aborts.
func Load(path string) (*model.BacklogFile, error) {
	for {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		version, err := probeVersion(data)
		if err != nil {
			return nil, err
		}

		if version == model.CurrentSchemaVersion {
			var b model.BacklogFile
			if err := yaml.Unmarshal(data, &b); err != nil {
				return nil, fmt.Errorf("failed to deserialize BACKLOG.yaml as v%d schema: %w", model.CurrentSchemaVersion, err)
			}
			if err := validateRequiredFields(&b); err != nil {
				return nil, err
			}
			return &b, nil
		}

		migrated, err := migrateOnce(path, version)
		if err != nil {
			return nil, err
		}
		if !migrated {
			// version < current but migrateOnce declined — should not
			// happen given the dispatch table, but avoid infinite loop.
			return nil, fmt.Errorf("BACKLOG.yaml schema_version %d has no migration path to %d", version, model.CurrentSchemaVersion)
		}
	}
}

func validateRequiredFields(b *model.BacklogFile) error {
	for i, it := range b.Items {
		if it.ID == "" {
			return fmt.Errorf("BACKLOG.yaml: item at index %d missing required field 'id'", i)
		}
		if it.Title == "" {
			return fmt.Errorf("BACKLOG.yaml: item %q missing required field 'title'", it.ID)
		}
		if it.Status == "" {
			return fmt.Errorf("BACKLOG.yaml: item %q missing required field 'status'", it.ID)
		}
		if it.Created.IsZero() {
			return fmt.Errorf("BACKLOG.yaml: item %q missing required field 'created'", it.ID)
		}
		if it.Updated.IsZero() {
			return fmt.Errorf("BACKLOG.yaml: item %q missing required field 'updated'", it.ID)
		}
	}
	return nil
}

// Save serializes the backlog file to path using the atomic
// write-then-rename pattern: a partial write or crash mid-save never
// corrupts the previously persisted file.
func Save(path string, b *model.BacklogFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(b)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data, 0644)
}

func parseTimeOrZero(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
