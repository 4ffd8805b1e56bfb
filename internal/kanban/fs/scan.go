package fs

import (
	"os"
	"path/filepath"
	"strings"
)

// ScanExports walks root and returns every directory holding a board.md, in
// walk order. A missing root yields no exports.
func ScanExports(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	if err := walkExports(absRoot, &dirs); err != nil {
		return nil, err
	}
	return dirs, nil
}

func walkExports(dir string, dirs *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			if entry.Name() == "board.md" {
				*dirs = append(*dirs, dir)
			}
			continue
		}
		// cards/ belongs to the board above it
		if entry.Name() == "cards" || shouldSkipDir(entry.Name()) {
			continue
		}
		if err := walkExports(filepath.Join(dir, entry.Name()), dirs); err != nil {
			return err
		}
	}
	return nil
}

// shouldSkipDir returns true for directories that should be skipped during scanning
func shouldSkipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "node_modules", "vendor", "__pycache__", "target", "build", "dist":
		return true
	}
	return false
}
