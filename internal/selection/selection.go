// Package selection parses operator index selections such as "1,3,5-7".
package selection

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

var (
	// ErrAbort is returned for a literal "q" or "Q".
	ErrAbort = errors.New("aborted by operator")

	// ErrNoValidSelection is returned when nothing usable remains after
	// parsing.
	ErrNoValidSelection = errors.New("no valid selection")
)

// Mode selects how parsed indices are normalized.
type Mode int

const (
	// ModeSet deduplicates and sorts ascending. Reversed ranges are
	// expanded ascending.
	ModeSet Mode = iota

	// ModeOrdered keeps the operator's order and duplicates, expanding
	// ranges in the direction given.
	ModeOrdered
)

func (m Mode) String() string {
	switch m {
	case ModeSet:
		return "set"
	case ModeOrdered:
		return "ordered"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// IsAbort reports whether text is the quit token.
func IsAbort(text string) bool {
	t := strings.TrimSpace(text)
	return t == "q" || t == "Q"
}

// Parse parses comma-separated tokens, each "A" or "A-B", into indices.
// Whitespace is ignored, malformed tokens are dropped and values outside
// [1, n] are dropped (n <= 0 disables the upper bound).
func Parse(text string, mode Mode, n int) ([]int, error) {
	if IsAbort(text) {
		return nil, ErrAbort
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty input", ErrNoValidSelection)
	}

	var out []int
	for _, raw := range strings.Split(text, ",") {
		lo, hi, ok := parseToken(stripSpace(raw))
		if !ok {
			continue
		}
		out = appendRange(out, lo, hi, mode, n)
	}

	out = bounded(out, n)
	if mode == ModeSet {
		out = dedupSorted(out)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoValidSelection, text)
	}
	return out, nil
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func parseToken(tok string) (int, int, bool) {
	if tok == "" {
		return 0, 0, false
	}
	a, b, isRange := strings.Cut(tok, "-")
	lo, ok := parseUint(a)
	if !ok {
		return 0, 0, false
	}
	if !isRange {
		return lo, lo, true
	}
	hi, ok := parseUint(b)
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

func parseUint(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func appendRange(out []int, lo, hi int, mode Mode, n int) []int {
	// Clamp so "1-999999999" cannot expand past the bound.
	if n > 0 {
		lo, hi = min(lo, n+1), min(hi, n+1)
	}
	if lo > hi && mode == ModeSet {
		lo, hi = hi, lo
	}
	if lo <= hi {
		for i := lo; i <= hi; i++ {
			out = append(out, i)
		}
		return out
	}
	for i := lo; i >= hi; i-- {
		out = append(out, i)
	}
	return out
}

func bounded(in []int, n int) []int {
	out := in[:0]
	for _, v := range in {
		if v < 1 || (n > 0 && v > n) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func dedupSorted(in []int) []int {
	sort.Ints(in)
	out := in[:0]
	for i, v := range in {
		if i > 0 && v == in[i-1] {
			continue
		}
		out = append(out, v)
	}
	return out
}
