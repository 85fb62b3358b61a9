// Package verify checks an install tree against a plan. It hashes every
// planned file concurrently to find missing and corrupt files, and walks the
// shared content directories for files no plan references.
package verify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/rig/pkg/rig/download"
	"github.com/jamesainslie/rig/pkg/rig/integrity"
	"github.com/jamesainslie/rig/pkg/rig/logging"
	"github.com/jamesainslie/rig/pkg/rig/tree"
	"github.com/jamesainslie/rig/pkg/rig/types"
)

var logger = logging.Get("verify")

// Status is the state of one planned file.
type Status int

// File states.
const (
	StatusOK Status = iota
	StatusMissing
	StatusCorrupt
	StatusSizeMismatch
	StatusError
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissing:
		return "missing"
	case StatusCorrupt:
		return "corrupt"
	case StatusSizeMismatch:
		return "size-mismatch"
	default:
		return "error"
	}
}

// Problem is a planned file that is not in a good state.
type Problem struct {
	Item   types.Item
	Status Status
	Err    error
}

// Orphan is a file under a shared content directory that no plan references.
type Orphan struct {
	Path string
	Size int64
}

// Progress is passed to Options.OnProgress while checking.
type Progress struct {
	Checked int64
	Total   int64
	Bytes   int64
}

// Options configures a Checker.
type Options struct {
	// Root is the install root. Required.
	Root string

	// Workers bounds concurrent hashing. Defaults to download.DefaultWorkers.
	Workers int

	// Cache, when set, skips hashing files it has already verified and
	// records files that hash correctly.
	Cache download.Verifier

	// OnProgress is called after each file. It must be safe to call from
	// multiple goroutines.
	OnProgress func(Progress)
}

// Validate fills in defaults.
func (o *Options) Validate() error {
	if o.Root == "" {
		return errors.New("install root is required")
	}
	if o.Workers < 1 {
		o.Workers = download.DefaultWorkers
	}
	return nil
}

// Report is the result of Check.
type Report struct {
	// Checked is the number of planned items examined.
	Checked int
	// Problems lists the items that are not OK, ordered by path.
	Problems []Problem
	// Bytes is the combined size of the files hashed.
	Bytes int64
	// Elapsed is how long the check took.
	Elapsed time.Duration
}

// OK reports whether no problems were found.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

// Checker verifies files under one root.
type Checker struct {
	opts Options
	root string
}

// New returns a Checker.
func New(opts Options) (*Checker, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	return &Checker{opts: opts, root: root}, nil
}

// Check examines every item. Items without a digest are checked for
// presence and, when known, size. A cancelled ctx stops the check and is
// returned as the error.
func (c *Checker) Check(ctx context.Context, items []types.Item) (*Report, error) {
	start := time.Now()

	var (
		mu       sync.Mutex
		problems []Problem
		checked  atomic.Int64
		hashed   atomic.Int64
		total    = int64(len(items))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)

	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			status, size, err := c.checkOne(item)
			if status != StatusOK {
				mu.Lock()
				problems = append(problems, Problem{Item: item, Status: status, Err: err})
				mu.Unlock()
			}
			n := checked.Add(1)
			b := hashed.Add(size)
			if c.opts.OnProgress != nil {
				c.opts.OnProgress(Progress{Checked: n, Total: total, Bytes: b})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(problems, func(i, j int) bool { return problems[i].Item.Path < problems[j].Item.Path })

	report := &Report{
		Checked:  int(checked.Load()),
		Problems: problems,
		Bytes:    hashed.Load(),
		Elapsed:  time.Since(start),
	}
	logger.Info("verify finished", "root", c.root, "checked", report.Checked, "problems", len(problems), "elapsed", report.Elapsed)
	return report, nil
}

// checkOne returns the status of item and the number of bytes hashed.
func (c *Checker) checkOne(item types.Item) (Status, int64, error) {
	path := filepath.Join(c.root, item.Path)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return StatusMissing, 0, nil
	}
	if err != nil {
		return StatusError, 0, err
	}
	if !info.Mode().IsRegular() {
		return StatusError, 0, fmt.Errorf("%s is not a regular file", item.Path)
	}
	if item.HasSize() && info.Size() != item.Size {
		return StatusSizeMismatch, 0, nil
	}
	if item.SHA1 == "" {
		return StatusOK, 0, nil
	}
	if c.opts.Cache != nil && c.opts.Cache.Verified(path, info, item.SHA1) {
		return StatusOK, 0, nil
	}

	ok, err := integrity.Check(path, item.SHA1)
	if err != nil {
		return StatusError, 0, err
	}
	if !ok {
		return StatusCorrupt, info.Size(), nil
	}
	if c.opts.Cache != nil {
		if err := c.opts.Cache.Record(path, info, item.SHA1); err != nil {
			logger.Warn("failed to record verified file", "path", path, "error", err)
		}
	}
	return StatusOK, info.Size(), nil
}

// OrphanDirs are the root-relative directories shared between versions
// whose contents are fully described by plans.
var OrphanDirs = []string{
	tree.LibrariesDir,
	filepath.Join(tree.AssetsDir, tree.AssetObjectsDir),
}

// Orphans walks OrphanDirs and returns every regular file not named by
// referenced, ordered by path. Paths are root-relative.
func (c *Checker) Orphans(ctx context.Context, referenced []types.Item) ([]Orphan, error) {
	known := make(map[string]struct{}, len(referenced))
	for _, it := range referenced {
		known[filepath.Clean(it.Path)] = struct{}{}
	}

	var (
		mu      sync.Mutex
		orphans []Orphan
	)

	conf := fastwalk.Config{Follow: false}
	walk := func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fastwalk.ErrSkipFiles
		}
		if err != nil {
			logger.Debug("walk error", "path", path, "error", err)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(c.root, path)
		if err != nil {
			return nil
		}
		if _, ok := known[rel]; ok {
			return nil
		}

		var size int64
		if info, err := d.Info(); err == nil {
			size = info.Size()
		}
		mu.Lock()
		orphans = append(orphans, Orphan{Path: rel, Size: size})
		mu.Unlock()
		return nil
	}

	for _, dir := range OrphanDirs {
		abs := filepath.Join(c.root, dir)
		if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		err := fastwalk.Walk(&conf, abs, walk)
		if err != nil && !errors.Is(err, fastwalk.ErrSkipFiles) {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(orphans, func(i, j int) bool { return orphans[i].Path < orphans[j].Path })
	return orphans, nil
}
