// Package pathutil collects a small set of path-safety checks: normalizing
// a user-supplied root, confirming one path lives under another, and
// rejecting malformed input before it reaches the filesystem. No other
// package in this module imports it.
package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxPathLength bounds the paths this module will operate on.
const MaxPathLength = 4096

// NormalizePath resolves path to its cleaned absolute form. If the absolute
// path cannot be resolved (e.g. no working directory), it falls back to a
// cleaned version of the input.
func NormalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}

// IsSubpath reports whether child names a location at or under parent, once
// both are normalized.
func IsSubpath(parent, child string) bool {
	parent = NormalizePath(parent)
	child = NormalizePath(child)

	if parent == child {
		return true
	}

	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(rel, "..")
}

// ValidatePath rejects paths that are empty, contain a NUL byte, or exceed
// MaxPathLength, independent of whether the path exists.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("pathutil: path cannot be empty")
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("pathutil: path contains a null byte")
	}
	if len(path) > MaxPathLength {
		return fmt.Errorf("pathutil: path exceeds %d characters", MaxPathLength)
	}
	return nil
}
