// Package history records one JSON entry per install run so past runs can
// be listed and inspected.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of an install run.
type Status string

const (
	// StatusOK means every item was installed.
	StatusOK Status = "ok"
	// StatusFailed means at least one item failed.
	StatusFailed Status = "failed"
	// StatusCancelled means the run was cancelled.
	StatusCancelled Status = "cancelled"
)

// ErrNotFound is returned by Get when no entry matches.
var ErrNotFound = errors.New("history entry not found")

// Entry describes a single install run.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version"`
	Platform  string        `json:"platform"`
	Root      string        `json:"root"`
	Status    Status        `json:"status"`
	Summary   Summary       `json:"summary"`
	Failures  []Failure     `json:"failures,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Summary counts what a run did.
type Summary struct {
	// Items is the number of planned items.
	Items int `json:"items"`
	// Bytes is the planned size of all items with a known size.
	Bytes int64 `json:"bytes"`
	// Cached counts items that were already present and valid.
	Cached int `json:"cached"`
	// Downloaded is the number of bytes actually transferred.
	Downloaded int64 `json:"downloaded"`
}

// Failure is an item that could not be installed.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Store manages history entries in a directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates a Store for dir. The directory is created on first Record.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory entries are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Record assigns an ID and, when unset, a timestamp to e and persists it.
func (s *Store) Record(e Entry) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	e.ID = generateID(e.Timestamp)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	if err := s.writeEntry(&e); err != nil {
		return nil, fmt.Errorf("failed to write history entry: %w", err)
	}
	return &e, nil
}

func (s *Store) writeEntry(e *Entry) error {
	path := filepath.Join(s.dir, e.ID+".json")

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// List returns entries newest first. A limit of 0 or less returns all.
func (s *Store) List(limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry whose ID equals id or, failing that, the single
// entry whose ID starts with it.
func (s *Store) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return nil, err
	}

	var match *Entry
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
		if strings.HasPrefix(entries[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous history id %q", id)
			}
			match = &entries[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

// Cleanup removes entries recorded more than retentionDays ago and returns
// how many were removed. A retention of 0 or less keeps everything.
func (s *Store) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readAll()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, e := range entries {
		if !e.Timestamp.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.ID+".json")); err != nil {
			continue
		}
		removed++
	}
	return removed, nil
}

// readAll parses every entry in the directory, skipping unreadable files.
func (s *Store) readAll() ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	entries := []Entry{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, f.Name()))
		if err != nil {
			continue
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// generateID creates an ID like "install-2024-06-15T10-30-00-1b4e28ba".
func generateID(ts time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("install-%s-%s", ts.UTC().Format("2006-01-02T15-04-05"), suffix)
}
