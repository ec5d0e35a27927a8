package backlog

import (
	"os"
	"path/filepath"
)

// writeFileAtomic writes data to a temporary file in the same
// directory as path and renames it over the target. A failure at any
// step leaves the prior file at path intact — grounded on the
// teacher's internal/state/atomic.go write-then-rename pattern.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
