package history

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	t.Parallel()

	if _, err := New(""); err == nil {
		t.Fatal("New(\"\") error = nil, want error")
	}
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s == nil {
		t.Fatal("New() returned nil")
	}
}

func TestStore_Record(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "history")
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	e, err := s.Record(Entry{
		Version: "1.20.1",
		Status:  StatusFailed,
		Summary: Summary{Items: 3, Bytes: 300, Cached: 1, Downloaded: 200},
		Failures: []Failure{
			{Path: "libraries/a.jar", Error: "network failure"},
		},
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if !strings.HasPrefix(e.ID, "install-") {
		t.Errorf("ID = %q, want install- prefix", e.ID)
	}
	if e.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
	if _, err := os.Stat(filepath.Join(dir, e.ID+".json")); err != nil {
		t.Errorf("entry file not written: %v", err)
	}

	got, err := s.Get(e.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Version != "1.20.1" || got.Summary.Downloaded != 200 || len(got.Failures) != 1 {
		t.Errorf("Get() = %+v, want the recorded entry", got)
	}
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	base := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	for i, v := range []string{"a", "b", "c"} {
		if _, err := s.Record(Entry{Version: v, Timestamp: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	all, err := s.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(List(0)) = %d, want 3", len(all))
	}
	if all[0].Version != "c" || all[2].Version != "a" {
		t.Errorf("List() order = %s,%s,%s, want newest first", all[0].Version, all[1].Version, all[2].Version)
	}

	limited, err := s.List(2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("len(List(2)) = %d, want 2", len(limited))
	}
}

func TestStore_ListMissingDir(t *testing.T) {
	t.Parallel()

	s, err := New(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	entries, err := s.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("List() = %v, want empty non-nil slice", entries)
	}
}

func TestStore_ListSkipsGarbage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Record(Entry{Version: "ok"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := s.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("len(List()) = %d, want 1", len(entries))
	}
}

func TestStore_Get(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	e, err := s.Record(Entry{Version: "x", Timestamp: ts})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	t.Run("prefix", func(t *testing.T) {
		t.Parallel()
		got, err := s.Get(e.ID[:len(e.ID)-4])
		if err != nil {
			t.Fatalf("Get(prefix) error = %v", err)
		}
		if got.ID != e.ID {
			t.Errorf("Get(prefix).ID = %q, want %q", got.ID, e.ID)
		}
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		_, err := s.Get("install-1999")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		if _, err := s.Get(""); err == nil {
			t.Error("Get(\"\") error = nil, want error")
		}
	})
}

func TestStore_Cleanup(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Record(Entry{Version: "old", Timestamp: time.Now().AddDate(0, 0, -40)}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Record(Entry{Version: "new"}); err != nil {
		t.Fatal(err)
	}

	removed, err := s.Cleanup(30)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Cleanup() removed %d, want 1", removed)
	}

	entries, err := s.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Version != "new" {
		t.Errorf("List() after Cleanup = %+v, want only new", entries)
	}

	if removed, _ := s.Cleanup(0); removed != 0 {
		t.Errorf("Cleanup(0) removed %d, want 0", removed)
	}
}

func TestStore_ConcurrentRecord(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Record(Entry{Version: "v"}); err != nil {
				t.Errorf("Record() error = %v", err)
			}
		}()
	}
	wg.Wait()

	entries, err := s.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 10 {
		t.Errorf("len(List()) = %d, want 10", len(entries))
	}
}
