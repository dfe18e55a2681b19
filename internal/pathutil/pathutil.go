// Package pathutil normalizes operator-supplied root paths.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrInvalidRoot indicates the root does not resolve to an existing directory.
var ErrInvalidRoot = errors.New("invalid root")

// Expand replaces a leading ~ with the home directory and expands $VAR and
// ${VAR} references. Unset variables expand to the empty string.
func Expand(raw string) string {
	p := strings.TrimSpace(raw)
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		if home, err := os.UserHomeDir(); err == nil {
			p = home + p[1:]
		}
	}
	return os.ExpandEnv(p)
}

// Resolve expands raw, makes it absolute and requires an existing directory.
// Every failure wraps ErrInvalidRoot.
func Resolve(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidRoot)
	}

	abs, err := filepath.Abs(Expand(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidRoot, raw, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s does not exist", ErrInvalidRoot, abs)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidRoot, abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, abs)
	}

	return abs, nil
}

// Complete returns directory completions for a partially typed path.
// Suggestions keep the operator's spelling of the directory part (including
// a leading ~) so they can be offered as prefix matches, and end with a
// separator so completion can continue into the next level.
// Hidden entries are only offered once the typed name starts with a dot.
func Complete(typed string) []string {
	dirTyped, base := "", typed
	if i := strings.LastIndex(typed, string(filepath.Separator)); i >= 0 {
		dirTyped, base = typed[:i+1], typed[i+1:]
	}

	dir := "."
	if dirTyped != "" {
		dir = Expand(dirTyped)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		if !isDir(filepath.Join(dir, name), e) {
			continue
		}
		out = append(out, dirTyped+name+string(filepath.Separator))
	}
	sort.Strings(out)
	return out
}

func isDir(path string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink != 0 {
		info, err := os.Stat(path)
		return err == nil && info.IsDir()
	}
	return false
}
