package backlog

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/orcd/orcd/internal/model"
)

// versionProbe reads just enough of a backlog file to learn its
// schema_version without committing to any particular item shape.
type versionProbe struct {
	SchemaVersion int `yaml:"schema_version"`
}

func probeVersion(data []byte) (int, error) {
	var p versionProbe
	if err := yaml.Unmarshal(data, &p); err != nil {
		return 0, fmt.Errorf("failed to deserialize BACKLOG.yaml: probing schema_version: %w", err)
	}
	if p.SchemaVersion == 0 {
		// Absent schema_version predates versioning; treat as v1.
		return 1, nil
	}
	return p.SchemaVersion, nil
}

// migrateOnce advances a file on disk by exactly one migration step,
// or reports that it is already at or above the current version. Each
// step is self-contained: read, transform, atomically rewrite. If a
// step fails, the file is left at its pre-step version and the next
// load() call resumes the chain from there.
func migrateOnce(path string, version int) (migrated bool, err error) {
	switch {
	case version == 1:
		if err := migrateV1ToV2(path); err != nil {
			return false, fmt.Errorf("migrating BACKLOG.yaml v1->v2: %w", err)
		}
		return true, nil
	case version <= 2:
		if err := migrateV2ToV3(path); err != nil {
			return false, fmt.Errorf("migrating BACKLOG.yaml v2->v3: %w", err)
		}
		return true, nil
	case version > model.CurrentSchemaVersion:
		return false, fmt.Errorf("BACKLOG.yaml schema_version %d is newer than this build supports (%d) — upgrade the tool", version, model.CurrentSchemaVersion)
	default:
		return false, nil
	}
}

// --- v1 -> v2 ---
//
// v1 predates phase_pool and last_phase_commit. The migration adds
// both fields (zero-valued) to every item and bumps schema_version.
// It is a structural no-op beyond that, so it is naturally idempotent:
// re-running it against an already-v2 file is never attempted because
// migrateOnce only dispatches it for version == 1.

type rawItemV1 struct {
	ID                  string        `yaml:"id"`
	Title               string        `yaml:"title"`
	Status              model.Status  `yaml:"status"`
	Phase               string        `yaml:"phase,omitempty"`
	Size                model.Size    `yaml:"size,omitempty"`
	Complexity          model.Level   `yaml:"complexity,omitempty"`
	Risk                model.Level   `yaml:"risk,omitempty"`
	Impact              model.Level   `yaml:"impact,omitempty"`
	RequiresHumanReview bool          `yaml:"requires_human_review,omitempty"`
	Origin              string        `yaml:"origin,omitempty"`
	BlockedFromStatus   model.Status  `yaml:"blocked_from_status,omitempty"`
	BlockedReason       string        `yaml:"blocked_reason,omitempty"`
	BlockedType         string        `yaml:"blocked_type,omitempty"`
	UnblockContext      string        `yaml:"unblock_context,omitempty"`
	Tags                []string      `yaml:"tags,omitempty"`
	Dependencies        []string      `yaml:"dependencies,omitempty"`
	Created             string        `yaml:"created"`
	Updated             string        `yaml:"updated"`
	PipelineType        string        `yaml:"pipeline_type,omitempty"`
	Description         string        `yaml:"description,omitempty"`
}

type rawFileV1 struct {
	SchemaVersion int         `yaml:"schema_version"`
	NextItemID    int         `yaml:"next_item_id"`
	Items         []rawItemV1 `yaml:"items"`
}

type rawItemV2 struct {
	rawItemV1   `yaml:",inline"`
	PhasePool   model.PhasePool `yaml:"phase_pool,omitempty"`
	LastPhaseCommit string      `yaml:"last_phase_commit,omitempty"`
}

type rawFileV2 struct {
	SchemaVersion int         `yaml:"schema_version"`
	NextItemID    int         `yaml:"next_item_id"`
	Items         []rawItemV2 `yaml:"items"`
}

func migrateV1ToV2(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var v1 rawFileV1
	if err := yaml.Unmarshal(data, &v1); err != nil {
		return fmt.Errorf("failed to deserialize BACKLOG.yaml as v1 schema: %w", err)
	}

	v2 := rawFileV2{SchemaVersion: 2, NextItemID: v1.NextItemID}
	for _, it := range v1.Items {
		v2.Items = append(v2.Items, rawItemV2{rawItemV1: it})
	}

	out, err := yaml.Marshal(&v2)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, out, 0644)
}

// --- v2 -> v3 ---
//
// v2's description is a freeform string. v3 replaces it with a
// structured record. The parser scans line-by-line for case-insensitive
// headers at line start (after trimming); content between headers
// populates the corresponding field. No match -> the whole text goes
// to Context, and a warning logs the item ID plus a text preview.
// Duplicate headers: later overwrites earlier. The parser is infallible
// — it always produces a Description, never an error.

var descHeaderRe = regexp.MustCompile(`(?i)^(context|problem|solution|impact|sizing rationale):\s*(.*)$`)

func parseFreeformDescription(itemID, text string) model.Description {
	var d model.Description
	var current *string
	matchedAny := false

	assign := func(field, rest string) *string {
		switch strings.ToLower(field) {
		case "context":
			return &d.Context
		case "problem":
			return &d.Problem
		case "solution":
			return &d.Solution
		case "impact":
			return &d.Impact
		case "sizing rationale":
			return &d.SizingRationale
		}
		_ = rest
		return nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := descHeaderRe.FindStringSubmatch(trimmed); m != nil {
			field, rest := m[1], m[2]
			target := assign(field, rest)
			if target != nil {
				matchedAny = true
				*target = strings.TrimSpace(rest)
				current = target
				continue
			}
		}
		if current != nil && trimmed != "" {
			if *current != "" {
				*current += "\n"
			}
			*current += line
		}
	}

	if !matchedAny {
		d = model.Description{Context: text}
		preview := text
		if len(preview) > 80 {
			preview = preview[:80] + "..."
		}
		log.Warn("v2->v3 migration: no description headers matched, using full text as context",
			"item_id", itemID, "preview", preview)
	}

	return d
}

func migrateV2ToV3(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// The probe reads each description as a raw node, so it accepts
	// either a string or a mapping. The rawFileV2 decode below types
	// description as a string, so a v2 file whose description is
	// already a mapping fails there with a deserialize error.
	var probe struct {
		SchemaVersion int `yaml:"schema_version"`
		NextItemID    int `yaml:"next_item_id"`
		Items         []struct {
			ID          string    `yaml:"id"`
			Description yaml.Node `yaml:"description"`
		} `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("failed to deserialize BACKLOG.yaml as v2 schema: %w", err)
	}

	var v2 rawFileV2
	if err := yaml.Unmarshal(data, &v2); err != nil {
		return fmt.Errorf("failed to deserialize BACKLOG.yaml as v2 schema: %w", err)
	}
	if v2.SchemaVersion >= model.CurrentSchemaVersion {
		return nil // already migrated; idempotent no-op
	}

	out := model.BacklogFile{SchemaVersion: model.CurrentSchemaVersion, NextItemID: v2.NextItemID}
	for i, raw := range v2.Items {
		it := model.Item{
			ID:                  raw.ID,
			Title:               raw.Title,
			Status:              raw.Status,
			Phase:               raw.Phase,
			PhasePool:           raw.PhasePool,
			Size:                raw.Size,
			Complexity:          raw.Complexity,
			Risk:                raw.Risk,
			Impact:              raw.Impact,
			RequiresHumanReview: raw.RequiresHumanReview,
			Origin:              raw.Origin,
			BlockedFromStatus:   raw.BlockedFromStatus,
			BlockedReason:       raw.BlockedReason,
			BlockedType:         raw.BlockedType,
			UnblockContext:      raw.UnblockContext,
			Tags:                raw.Tags,
			Dependencies:        raw.Dependencies,
			PipelineType:        raw.PipelineType,
			LastPhaseCommit:     raw.LastPhaseCommit,
		}
		it.Created = parseTimeOrZero(raw.Created)
		it.Updated = parseTimeOrZero(raw.Updated)

		node := probe.Items[i].Description
		if node.Kind == yaml.MappingNode {
			var d model.Description
			if err := node.Decode(&d); err == nil {
				it.Description = &d
			}
		} else {
			d := parseFreeformDescription(raw.ID, raw.Description)
			it.Description = &d
		}
		out.Items = append(out.Items, it)
	}

	data2, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data2, 0644)
}
