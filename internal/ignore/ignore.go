// Package ignore reads gitignore-style exclude files that prune dataset
// scans.
//
// Patterns are converted to doublestar globs relative to the scan root:
//
//	Trash/          -> **/Trash
//	/incoming       -> incoming
//	phantoms/old    -> phantoms/old
//	*_test          -> **/*_test
//
// Negations are not supported and are skipped, as are blank lines and
// comments.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultFileName is the exclude file looked up in the scan root.
const DefaultFileName = ".fmrimapignore"

// ErrInvalidPattern is returned for lines that are not valid globs.
var ErrInvalidPattern = errors.New("invalid exclude pattern")

// Load reads root/name. A missing file yields no patterns and no error.
func Load(root, name string) ([]string, error) {
	file, err := os.Open(filepath.Join(root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	patterns, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return patterns, nil
}

// Parse converts every line of r, dropping duplicates while preserving
// order.
func Parse(r io.Reader) ([]string, error) {
	var patterns []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		pattern := ParseLine(scanner.Text())
		if pattern == "" || seen[pattern] {
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w on line %d: %q", ErrInvalidPattern, n, scanner.Text())
		}
		seen[pattern] = true
		patterns = append(patterns, pattern)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

// ParseLine converts one line. It returns "" for lines that carry no
// pattern.
func ParseLine(line string) string {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
		return ""
	}

	// The scanner only tests directories, so a trailing slash adds nothing.
	pattern := strings.TrimRight(line, "/")
	if pattern == "" {
		return ""
	}

	anchored := strings.HasPrefix(pattern, "/") || strings.Contains(pattern, "/")
	pattern = strings.TrimLeft(pattern, "/")
	if anchored || strings.HasPrefix(pattern, "**") {
		return pattern
	}
	return "**/" + pattern
}
