// Package state persists robota's small JSON application state between runs.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	keyGitHubOrg = "GITHUB_ORG"
	keyMyIssues  = "my_issues"
)

// IssueRef is a cached row of the last personal issue listing.
type IssueRef struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
	Status  string `json:"status"`
	// Sprint is the name of the issue's active sprint, empty when none.
	Sprint string `json:"sprint,omitempty"`
}

// State is the typed view of the state file. Keys robota does not know about
// are carried through unchanged.
type State struct {
	GitHubOrg string
	MyIssues  []IssueRef

	extra map[string]json.RawMessage
}

// ActiveSprintKeys returns the keys of cached issues that sit in an active sprint.
func (s *State) ActiveSprintKeys() []string {
	var keys []string
	for _, ref := range s.MyIssues {
		if ref.Sprint != "" {
			keys = append(keys, ref.Key)
		}
	}
	return keys
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw[keyGitHubOrg]; ok {
		if err := json.Unmarshal(v, &s.GitHubOrg); err != nil {
			return fmt.Errorf("%s: %w", keyGitHubOrg, err)
		}
		delete(raw, keyGitHubOrg)
	}
	if v, ok := raw[keyMyIssues]; ok {
		if err := json.Unmarshal(v, &s.MyIssues); err != nil {
			return fmt.Errorf("%s: %w", keyMyIssues, err)
		}
		delete(raw, keyMyIssues)
	}

	s.extra = raw
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.extra)+2)
	for k, v := range s.extra {
		out[k] = v
	}
	if s.GitHubOrg != "" {
		out[keyGitHubOrg] = s.GitHubOrg
	}
	if s.MyIssues != nil {
		out[keyMyIssues] = s.MyIssues
	}
	return json.Marshal(out)
}

// Store owns the state file. It is loaded once and written on every update.
type Store struct {
	path string

	mu    sync.Mutex
	state State
}

// Open loads the state at path. A missing file is an empty state.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}

	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("failed to parse state %s: %w", path, err)
	}
	return s, nil
}

// Path returns the file the store persists to.
func (s *Store) Path() string {
	return s.path
}

// Get returns a copy of the current state.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	st.MyIssues = append([]IssueRef(nil), s.state.MyIssues...)
	return st
}

// Update applies fn and persists the result. Nothing is written, and the
// in-memory state is left alone, when fn fails.
func (s *Store) Update(fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state
	next.MyIssues = append([]IssueRef(nil), s.state.MyIssues...)
	if err := fn(&next); err != nil {
		return err
	}

	if err := s.write(next); err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Store) write(st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
