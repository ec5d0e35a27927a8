// Package inbox implements the drop-file input protocol: reading and
// parsing BACKLOG_INBOX.yaml. The Coordinator (internal/coordinator)
// owns when to read/delete the file; this package is pure parsing plus
// the read/delete file operations themselves, kept separate so the CLI
// "add" command can reuse the same validation path against an
// in-memory slice.
package inbox

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/orcd/orcd/internal/model"
)

// ErrNotFound mirrors the "NotFound -> reply Ok([])" common-path case
// from spec.md §4.6 step 1.
var ErrNotFound = fs.ErrNotExist

// Read attempts to read the inbox file. It returns (nil, ErrNotFound)
// when absent (the common path, not logged by callers), or the raw
// bytes otherwise. TOCTOU-safe: no existence pre-check.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Parse decodes inbox YAML into a slice of InboxItem. An empty or
// whitespace-only document parses to an empty, non-nil-error slice —
// callers distinguish "empty content" from "parse error" via the
// IsBlank helper on the raw bytes before calling Parse.
func Parse(data []byte) ([]model.InboxItem, error) {
	var items []model.InboxItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// IsBlank reports whether raw inbox content is empty or whitespace-only.
func IsBlank(data []byte) bool {
	return strings.TrimSpace(string(data)) == ""
}

// Delete removes the inbox file, tolerating NotFound.
func Delete(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}
