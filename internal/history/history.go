// Package history keeps an append-only log of executed queries with
// recency navigation and substring search, persisted to a per-user JSON
// file. Persistence is best-effort: failures never block query execution.
package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one executed query record.
type Entry struct {
	Query           string    `json:"query"`
	Timestamp       time.Time `json:"timestamp"`
	ExecutionTimeMS int64     `json:"execution_time_ms"`
	RowCount        *int      `json:"row_count"`
	Database        string    `json:"database"`
}

// Store holds the in-memory history and its navigation cursor. Entries
// are ordered oldest first and capped at maxEntries.
type Store struct {
	entries    []Entry
	maxEntries int
	cursor     int // index into entries; len(entries) means "not navigating"
	path       string
}

// DefaultMaxEntries is the cap used when the configured one is not
// positive.
const DefaultMaxEntries = 1000

// DefaultPath returns the per-user history file location, honoring
// XDG_DATA_HOME.
func DefaultPath() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			base = "."
		} else {
			base = filepath.Join(home, ".local", "share")
		}
	}
	return filepath.Join(base, "sqlterm", "history.json")
}

// New creates a store backed by the file at path, loading any existing
// entries. A corrupt or missing file yields an empty store rather than an
// error.
func New(maxEntries int, path string) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	s := &Store{maxEntries: maxEntries, path: path}
	s.load()
	s.cursor = len(s.entries)
	return s
}

// Add appends a query record, skipping a duplicate of the most recent
// entry (trimmed-whitespace equality), evicting the oldest entries beyond
// the cap, and persisting synchronously. The navigation cursor resets.
func (s *Store) Add(query string, executionTimeMS int64, rowCount *int, database string) {
	if len(s.entries) > 0 {
		last := s.entries[len(s.entries)-1]
		if strings.TrimSpace(last.Query) == strings.TrimSpace(query) {
			return
		}
	}

	s.entries = append(s.entries, Entry{
		Query:           query,
		Timestamp:       time.Now(),
		ExecutionTimeMS: executionTimeMS,
		RowCount:        rowCount,
		Database:        database,
	})

	if over := len(s.entries) - s.maxEntries; over > 0 {
		s.entries = append([]Entry(nil), s.entries[over:]...)
	}

	s.cursor = len(s.entries)
	s.save()
}

// Entries returns all entries, oldest first.
func (s *Store) Entries() []Entry {
	return s.entries
}

// Search returns entries whose query contains term, case-insensitively.
func (s *Store) Search(term string) []Entry {
	lower := strings.ToLower(term)
	var out []Entry
	for _, e := range s.entries {
		if strings.Contains(strings.ToLower(e.Query), lower) {
			out = append(out, e)
		}
	}
	return out
}

// Previous moves the cursor toward older entries and returns the entry
// under it. The cursor stays on the oldest entry once reached.
func (s *Store) Previous() *Entry {
	if len(s.entries) == 0 {
		return nil
	}
	if s.cursor > 0 {
		s.cursor--
	}
	return &s.entries[s.cursor]
}

// Next moves the cursor toward newer entries. It returns nil once the
// cursor runs past the newest entry.
func (s *Store) Next() *Entry {
	if len(s.entries) == 0 || s.cursor >= len(s.entries)-1 {
		return nil
	}
	s.cursor++
	return &s.entries[s.cursor]
}

// ResetNavigation moves the cursor back past the newest entry.
func (s *Store) ResetNavigation() {
	s.cursor = len(s.entries)
}

// Clear removes all entries and persists the empty log.
func (s *Store) Clear() {
	s.entries = nil
	s.cursor = 0
	s.save()
}

// Len returns the entry count.
func (s *Store) Len() int { return len(s.entries) }

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return
	}
	s.entries = entries
}

func (s *Store) save() {
	if s.path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return
	}
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(s.path, data, 0o644)
}
