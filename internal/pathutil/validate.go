// Package pathutil validates and redacts file paths handled by spikenet.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RedactPath shortens a path to .../<parent>/<base> for error messages, so
// home directories and deep project paths are not echoed back verbatim.
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	base := filepath.Base(cleaned)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// ValidateOutputPath checks that a file to be written lies inside one of
// allowedDirs once symlinks in its existing ancestors are resolved. The
// file itself and some of its parents may not exist yet.
func ValidateOutputPath(path string, allowedDirs []string) error {
	if path == "" {
		return fmt.Errorf("output path is empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return fmt.Errorf("output path contains a null byte")
	}
	if len(allowedDirs) == 0 {
		return fmt.Errorf("no allowed output directories configured")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving output path %s: %w", RedactPath(path), err)
	}
	dir, err := resolveExisting(filepath.Dir(abs))
	if err != nil {
		return err
	}
	resolved := filepath.Join(dir, filepath.Base(abs))

	for _, allowed := range allowedDirs {
		a, err := filepath.Abs(allowed)
		if err != nil {
			continue
		}
		a, err = resolveExisting(a)
		if err != nil {
			continue
		}
		if within(resolved, a) {
			return nil
		}
	}
	return fmt.Errorf("output path %s is outside the allowed directories", RedactPath(abs))
}

// AllowedOutputDirs returns where spikenet may write results: the project
// root and ~/.spikenet.
func AllowedOutputDirs(root string) ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return []string{root, filepath.Join(home, ".spikenet")}, nil
}

// resolveExisting evaluates symlinks on the deepest existing ancestor of dir
// and re-appends the missing tail.
func resolveExisting(dir string) (string, error) {
	if r, err := filepath.EvalSymlinks(dir); err == nil {
		return r, nil
	}
	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve %s", RedactPath(dir))
	}
	r, err := resolveExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(r, filepath.Base(dir)), nil
}

// within reports whether path is base or below it.
func within(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(os.PathSeparator))
}
