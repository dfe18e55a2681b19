// Package metadata extracts values from ParaVision parameter files.
//
// ParaVision writes JCAMP-DX style text: "##$KEY=value" lines, where array or
// string values are announced as "##$KEY=( n )" and the value follows on the
// next line, usually wrapped in angle brackets.
package metadata

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// NotFound is substituted for subject fields that cannot be read.
const NotFound = "[Not found]"

// ErrMetadataRead indicates a metadata file is missing, short or lacks the
// requested key. Callers substitute a sentinel and carry on.
var ErrMetadataRead = errors.New("metadata read failure")

const maxLineBytes = 1024 * 1024

// Subject holds the identifying fields of a study's subject file.
type Subject struct {
	ID    string
	Study string
}

// ReadSubject reads the subject ID and study name from fixed 1-based line
// numbers of the subject file. Fields that cannot be read are NotFound and
// the returned error wraps ErrMetadataRead; the Subject is always usable.
func ReadSubject(path string, idLine, studyLine int) (Subject, error) {
	s := Subject{ID: NotFound, Study: NotFound}

	lines, err := readLines(path, max(idLine, studyLine))
	if err != nil {
		return s, fmt.Errorf("%w: %s: %v", ErrMetadataRead, path, err)
	}

	var missing []string
	if v, ok := lineAt(lines, idLine); ok {
		s.ID = v
	} else {
		missing = append(missing, fmt.Sprintf("line %d (subject id)", idLine))
	}
	if v, ok := lineAt(lines, studyLine); ok {
		s.Study = v
	} else {
		missing = append(missing, fmt.Sprintf("line %d (study name)", studyLine))
	}

	if len(missing) > 0 {
		return s, fmt.Errorf("%w: %s: missing %s", ErrMetadataRead, path, strings.Join(missing, ", "))
	}
	return s, nil
}

func lineAt(lines []string, n int) (string, bool) {
	if n < 1 || n > len(lines) {
		return "", false
	}
	v := stripBrackets(lines[n-1])
	if v == "" {
		return "", false
	}
	return v, true
}

// readLines reads up to limit lines (all lines when limit <= 0).
func readLines(path string, limit int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if limit > 0 && len(lines) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func stripBrackets(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "<")
	s = strings.TrimSuffix(s, ">")
	return strings.TrimSpace(s)
}

// ReadSequenceName finds the line containing marker and returns the
// angle-bracket-delimited value on the following line.
func ReadSequenceName(path, marker string) (string, error) {
	lines, err := readLines(path, 0)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMetadataRead, path, err)
	}

	for i, line := range lines {
		if !strings.Contains(line, marker) {
			continue
		}
		if i+1 >= len(lines) {
			break
		}
		next := lines[i+1]
		start := strings.Index(next, "<")
		end := strings.LastIndex(next, ">")
		if start < 0 || end <= start {
			return "", fmt.Errorf("%w: %s: value after %q is not bracketed", ErrMetadataRead, path, marker)
		}
		name := strings.TrimSpace(next[start+1 : end])
		if name == "" {
			break
		}
		return name, nil
	}
	return "", fmt.Errorf("%w: %s: no value for %q", ErrMetadataRead, path, marker)
}

// ReadParam returns the value of a "##$key=value" parameter. Array-announced
// values ("##$key=( n )") are read from the next line.
func ReadParam(path, key string) (string, error) {
	lines, err := readLines(path, 0)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMetadataRead, path, err)
	}

	prefix := "##$" + key + "="
	for i, line := range lines {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(line, prefix))
		if strings.HasPrefix(value, "(") && i+1 < len(lines) {
			value = stripBrackets(lines[i+1])
		}
		return value, nil
	}
	return "", fmt.Errorf("%w: %s: no parameter %s", ErrMetadataRead, path, key)
}

// ReadIntParam is ReadParam followed by an integer conversion.
func ReadIntParam(path, key string) (int, error) {
	raw, err := ReadParam(path, key)
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: %s: empty value for %s", ErrMetadataRead, path, key)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %s=%q is not an integer", ErrMetadataRead, path, key, raw)
	}
	return n, nil
}
