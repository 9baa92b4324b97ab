package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ListSubdirs returns the immediate subdirectories of dir in name order.
// Entries ending in one of skipExt are rejected without a stat, so a
// directory named like an image file is never visited.
func ListSubdirs(dir string, skipExt []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", dir, err)
	}

	var dirs []string
	for _, e := range entries {
		if hasExt(e.Name(), skipExt) {
			continue
		}
		// Symlinked directories are not followed; a link cycle would never end.
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(dir, e.Name()))
		}
	}
	return dirs, nil
}

func hasExt(name string, exts []string) bool {
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}
