package tuner

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jamesainslie/rig/pkg/rig/types"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	resources := Detect()
	if resources.CPUCores != runtime.NumCPU() {
		t.Errorf("CPUCores = %d, want %d (runtime.NumCPU())", resources.CPUCores, runtime.NumCPU())
	}
}

func TestWorkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cores    int
		override int
		want     int
	}{
		{"single core uses the floor", 1, 0, 4},
		{"four cores", 4, 0, 8},
		{"many cores are capped", 32, 0, 16},
		{"override wins", 32, 3, 3},
		{"override is capped", 1, 500, 64},
		{"negative override ignored", 4, -1, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Workers(SystemResources{CPUCores: tt.cores}, tt.override)
			if got != tt.want {
				t.Errorf("Workers(%d, %d) = %d, want %d", tt.cores, tt.override, got, tt.want)
			}
		})
	}
}

func TestFreeSpace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	free, err := FreeSpace(dir)
	if err != nil {
		t.Fatalf("FreeSpace() error = %v", err)
	}
	if free <= 0 {
		t.Errorf("FreeSpace() = %d, want > 0", free)
	}

	missing, err := FreeSpace(filepath.Join(dir, "not", "yet", "created"))
	if err != nil {
		t.Fatalf("FreeSpace(missing) error = %v", err)
	}
	if missing <= 0 {
		t.Errorf("FreeSpace(missing) = %d, want > 0", missing)
	}
}

func TestRequired(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "libraries"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "libraries", "half.jar"), make([]byte, 50), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "libraries", "big.jar"), make([]byte, 500), 0o644); err != nil {
		t.Fatal(err)
	}

	items := []types.Item{
		{Path: "libraries/new.jar", Size: 100},
		{Path: "libraries/half.jar", Size: 100},
		{Path: "libraries/big.jar", Size: 100},
		{Path: "libraries/unknown.jar", Size: types.UnknownSize},
	}

	if got := Required(root, items); got != 150 {
		t.Errorf("Required() = %d, want 150", got)
	}
}

func TestPreflight(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	if err := Preflight(root, []types.Item{{Path: "a", Size: 1}}); err != nil {
		t.Errorf("Preflight(small) error = %v", err)
	}

	huge := []types.Item{{Path: "a", Size: 1 << 62}}
	err := Preflight(root, huge)
	if !errors.Is(err, ErrInsufficientSpace) {
		t.Errorf("Preflight(huge) error = %v, want ErrInsufficientSpace", err)
	}
}
