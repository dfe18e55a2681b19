// Package sanitize turns free-form metadata and operator input into safe
// directory name components.
package sanitize

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// DefaultLabelLength caps sequence labels appended to run folder names.
	DefaultLabelLength = 50
)

// Validation errors.
var (
	// ErrEmptyComponent indicates an empty path component.
	ErrEmptyComponent = errors.New("path component cannot be empty")

	// ErrPathTraversal indicates a component that would leave its parent directory.
	ErrPathTraversal = errors.New("path component contains directory traversal")
)

// Label sanitizes a sequence name for use as a folder suffix.
//
// Rules applied:
//   - Keeps ASCII letters, digits, '_' and '-'
//   - Replaces every other rune with '_'
//   - Collapses runs of '_' and trims them from both ends
//   - Truncates to maxLen bytes (DefaultLabelLength when maxLen <= 0)
//
// Examples:
//
//	"T2_TurboRARE (pvm)"  -> "T2_TurboRARE_pvm"
//	"EPI-BOLD 1.5s/rep"   -> "EPI-BOLD_1_5s_rep"
//	"!!!"                 -> ""
func Label(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultLabelLength
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isLabelRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	label := b.String()
	for strings.Contains(label, "__") {
		label = strings.ReplaceAll(label, "__", "_")
	}
	label = strings.Trim(label, "_")

	if len(label) > maxLen {
		label = strings.TrimRight(label[:maxLen], "_")
	}
	return label
}

func isLabelRune(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '_' || r == '-'
}

// PathComponent checks that name can be used as exactly one directory level.
// Spaces and unicode are allowed; separators, NUL and dot segments are not.
func PathComponent(name string) error {
	if name == "" {
		return ErrEmptyComponent
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrPathTraversal, name)
	}
	for _, c := range name {
		if c == '/' || c == '\\' || c == '\x00' {
			return fmt.Errorf("%w: %q", ErrPathTraversal, name)
		}
	}
	if filepath.Clean(name) != name {
		return fmt.Errorf("%w: %q", ErrPathTraversal, name)
	}
	return nil
}
