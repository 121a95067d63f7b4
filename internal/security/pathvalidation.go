// Package security guards the files the command-line tools write: report
// exports, plots, charts and the run-history database.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathOutsideAllowed is returned when an output path resolves outside
// every permitted directory.
var ErrPathOutsideAllowed = errors.New("path outside allowed directories")

// maxFilenameLen bounds the length of a sanitised file name.
const maxFilenameLen = 128

// canonicalPath returns the absolute, symlink-free form of path. A path that
// does not exist yet is resolved through its nearest existing ancestor, so a
// symlinked parent directory cannot smuggle a new file elsewhere.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rest, _ := filepath.Rel(dir, abs)
			return filepath.Join(resolved, rest), nil
		}
		if dir == filepath.Dir(dir) {
			return abs, nil
		}
	}
}

// ValidatePathWithinDirectory checks that filePath stays inside dir once
// "..", symlinks and relative components are resolved.
func ValidatePathWithinDirectory(filePath, dir string) error {
	path, err := canonicalPath(filePath)
	if err != nil {
		return err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory path: %w", err)
	}
	root, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPathOutsideAllowed, filePath, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s escapes %s", ErrPathOutsideAllowed, filePath, dir)
	}
	return nil
}

// ValidatePathWithinAllowedDirs accepts filePath if it lies within any of
// allowedDirs.
func ValidatePathWithinAllowedDirs(filePath string, allowedDirs []string) error {
	if len(allowedDirs) == 0 {
		return fmt.Errorf("%w: no allowed directories specified", ErrPathOutsideAllowed)
	}
	for _, dir := range allowedDirs {
		if ValidatePathWithinDirectory(filePath, dir) == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be within one of %v", ErrPathOutsideAllowed, filePath, allowedDirs)
}

// ValidateExportPath checks an output path. Exports may go to the working
// directory, the temp directory or any of extraDirs.
func ValidateExportPath(filePath string, extraDirs ...string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	allowed := append([]string{cwd, os.TempDir()}, extraDirs...)
	return ValidatePathWithinAllowedDirs(filePath, allowed)
}

// SanitizeFilename turns an arbitrary case name into a safe file name.
// Anything other than ASCII letters, digits, '.', '_' and '-' becomes a
// single underscore; leading and trailing dots and underscores are trimmed.
// An empty result becomes "unnamed".
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unnamed"
	}
	return out
}

// ExportFileName builds "<sanitised name><suffix>", e.g. ("WLTP 3b", "_speed.png")
// gives "WLTP_3b_speed.png".
func ExportFileName(name, suffix string) string {
	return SanitizeFilename(name) + suffix
}
