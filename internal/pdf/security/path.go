// Package security confines the tool file surface to one configured
// directory. Paths arrive as untrusted strings from tool arguments; every
// candidate is resolved to an absolute path and checked against the
// directory before any filesystem access happens.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator checks candidate paths against the configured working
// directory.
type PathValidator struct {
	dir string
}

// NewPathValidator creates a validator rooted at dir. The directory does not
// have to exist yet; confinement is skipped until it does, so a configuration
// pointing at a directory created later still starts.
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	return &PathValidator{dir: dir}, nil
}

// SanitizePath strips null bytes, anchors relative paths at the configured
// directory, and rejects anything that resolves outside it. The returned
// path is absolute and safe to open.
func (v *PathValidator) SanitizePath(path string) (string, error) {
	return v.NormalizePath(strings.ReplaceAll(path, "\x00", ""))
}

// NormalizePath resolves a path to its validated absolute form. Relative
// paths are taken as relative to the configured directory, not the process
// working directory.
func (v *PathValidator) NormalizePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.dir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if err := v.ValidatePath(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// ValidatePath rejects paths that escape the configured directory.
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if _, err := os.Stat(v.dir); os.IsNotExist(err) {
		// Nothing to confine against yet.
		return nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	within, err := v.IsPathWithinDirectory(abs)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return fmt.Errorf("path is outside configured directory: %s", path)
	}
	return nil
}

// IsPathWithinDirectory reports whether path stays inside the configured
// directory. Symlinks are resolved on both sides and the containment must
// hold for the literal path and its resolved target alike, so a link inside
// the directory cannot smuggle in a target from outside it.
func (v *PathValidator) IsPathWithinDirectory(path string) (bool, error) {
	if _, err := os.Stat(v.dir); os.IsNotExist(err) {
		return true, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	absDir, err := filepath.Abs(v.dir)
	if err != nil {
		return false, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	cleanPath := filepath.Clean(abs)
	cleanDir := filepath.Clean(absDir)

	resolvedPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if target, err := filepath.EvalSymlinks(cleanPath); err == nil {
			resolvedPath = target
		}
	}
	resolvedDir := cleanDir
	if target, err := filepath.EvalSymlinks(cleanDir); err == nil {
		resolvedDir = target
	}

	inside := func(p string) bool {
		return p == cleanDir || p == resolvedDir ||
			strings.HasPrefix(p, cleanDir+string(filepath.Separator)) ||
			strings.HasPrefix(p, resolvedDir+string(filepath.Separator))
	}

	return inside(cleanPath) && inside(resolvedPath), nil
}
