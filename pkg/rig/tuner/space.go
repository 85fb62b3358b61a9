package tuner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/rig/pkg/rig/types"
)

// ErrInsufficientSpace is returned by Preflight when a plan does not fit.
var ErrInsufficientSpace = errors.New("insufficient disk space")

// FreeSpace returns the bytes available to the caller on the filesystem
// holding path. A path that does not exist yet is measured at its nearest
// existing ancestor.
func FreeSpace(path string) (int64, error) {
	dir, err := existingAncestor(path)
	if err != nil {
		return 0, err
	}
	return freeSpace(dir)
}

// Required returns how many more bytes the items need under root. Files
// already present count only for the part of the expected size they do not
// cover; items of unknown size count as zero.
func Required(root string, items []types.Item) int64 {
	var need int64
	for _, it := range items {
		if !it.HasSize() {
			continue
		}
		need += it.Size
		if info, err := os.Stat(filepath.Join(root, it.Path)); err == nil && info.Mode().IsRegular() {
			need -= min(info.Size(), it.Size)
		}
	}
	return need
}

// Preflight fails with ErrInsufficientSpace when the items need more bytes
// than the filesystem under root has available.
func Preflight(root string, items []types.Item) error {
	free, err := FreeSpace(root)
	if err != nil {
		return fmt.Errorf("checking free space: %w", err)
	}
	need := Required(root, items)
	if need > free {
		return fmt.Errorf("%w: need %s, %s available under %s", ErrInsufficientSpace,
			humanize.IBytes(uint64(need)), humanize.IBytes(uint64(free)), root)
	}
	return nil
}

func existingAncestor(path string) (string, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for {
		_, err := os.Stat(dir)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", err
		}
		dir = parent
	}
}
