// Package assignment persists the dataset → project/subproject mapping and
// drives the interactive flow that fills it.
//
// The store is a single JSON object at {root}/.fmri_project_map.json:
//
//	{
//	  "/data/raw/20240115_103000_study": {
//	    "project": "ProjA",
//	    "subproject": "Sub1"
//	  }
//	}
//
// Every read reloads the file and every write rewrites it in full. There is
// no locking across processes; the last writer wins.
package assignment

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// DefaultFileName is the store file created under the dataset root.
const DefaultFileName = ".fmri_project_map.json"

// ErrStoreCorrupted is returned when the store file is not a JSON object of
// assignments.
var ErrStoreCorrupted = errors.New("assignment store corrupted")

// Assignment places a dataset in the project taxonomy.
type Assignment struct {
	Project    string `json:"project" yaml:"project"`
	Subproject string `json:"subproject" yaml:"subproject"`
}

// Store reads and writes the assignment file.
type Store struct {
	mu       sync.Mutex
	filePath string
}

// Open returns the store for root, creating the file as {} if absent.
func Open(root string) (*Store, error) {
	return OpenFile(filepath.Join(root, DefaultFileName))
}

// OpenFile is Open with an explicit file path.
func OpenFile(path string) (*Store, error) {
	s := &Store{filePath: path}

	if _, err := os.Stat(path); err == nil {
		return s, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat assignment store: %w", err)
	}

	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		return nil, fmt.Errorf("failed to create assignment store: %w", err)
	}
	return s, nil
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.filePath
}

// Load returns the full mapping. A missing file is an empty mapping.
func (s *Store) Load() (map[string]Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (map[string]Assignment, error) {
	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return make(map[string]Assignment), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read assignment store: %w", err)
	}

	var m map[string]Assignment
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreCorrupted, err)
	}
	if m == nil {
		m = make(map[string]Assignment)
	}
	return m, nil
}

// Get returns the assignment for a dataset path, reloading the file.
func (s *Store) Get(datasetPath string) (Assignment, bool, error) {
	m, err := s.Load()
	if err != nil {
		return Assignment{}, false, err
	}
	a, ok := m[datasetPath]
	return a, ok, nil
}

// ListProjects returns the distinct project names, sorted.
func (s *Store) ListProjects() ([]string, error) {
	m, err := s.Load()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, a := range m {
		seen[a.Project] = true
	}
	return sortedKeys(seen), nil
}

// ListSubprojects returns the distinct subproject names under project,
// sorted.
func (s *Store) ListSubprojects(project string) ([]string, error) {
	m, err := s.Load()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, a := range m {
		if a.Project == project {
			seen[a.Subproject] = true
		}
	}
	return sortedKeys(seen), nil
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Set reloads the mapping, overwrites the single key and persists the
// whole mapping. Values are stored as given; empty strings are accepted.
func (s *Store) Set(datasetPath, project, subproject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return err
	}
	m[datasetPath] = Assignment{Project: project, Subproject: subproject}
	return s.save(m)
}

func (s *Store) save(m map[string]Assignment) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal assignments: %w", err)
	}
	data = append(data, '\n')

	// Write atomically
	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write assignment store: %w", err)
	}

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename assignment store: %w", err)
	}

	return nil
}
