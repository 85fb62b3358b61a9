package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/jamesainslie/rig/pkg/rig/cache"
	"github.com/jamesainslie/rig/pkg/rig/config"
	"github.com/jamesainslie/rig/pkg/rig/download"
	"github.com/jamesainslie/rig/pkg/rig/install"
	"github.com/jamesainslie/rig/pkg/rig/manifest"
	"github.com/jamesainslie/rig/pkg/rig/tree"
	"github.com/jamesainslie/rig/pkg/rig/tuner"
)

const (
	lockFile    = ".rig.lock"
	lockTimeout = 5 * time.Second
	lockRetry   = 250 * time.Millisecond
)

// errLocked is returned when another rig process holds the install root.
var errLocked = errors.New("install root is in use by another rig process")

// session holds what every command needs to work on the install root.
type session struct {
	installer *install.Installer
	engine    *download.Engine
	cache     *cache.Cache
	workers   int
}

// verifier returns the verification cache, or nil when it is disabled.
func (s *session) verifier() download.Verifier {
	if s.cache == nil {
		return nil
	}
	return s.cache
}

// Close releases the verification cache.
func (s *session) Close() {
	if s.cache == nil {
		return
	}
	if err := s.cache.Close(); err != nil {
		logger.Warn("failed to close cache", "error", err)
	}
}

// openSession builds the installer from cfg and the global flags. The
// verification cache is optional: when it cannot be opened (another process
// holds it, say) the session works without it.
func openSession(offlineMode bool) (*session, error) {
	if err := config.EnsureDir(cfg.Root); err != nil {
		return nil, fmt.Errorf("failed to create install root: %w", err)
	}

	s := &session{
		workers: tuner.Workers(tuner.Detect(), cfg.Workers),
	}

	if cfg.Cache.Enabled && !noCache {
		c, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			logger.Warn("verification cache unavailable", "path", cfg.Cache.Path, "error", err)
			printVerbose("Verification cache unavailable: %v", err)
		} else {
			s.cache = c
		}
	}

	s.engine = download.New(download.Options{
		Root:      cfg.Root,
		Workers:   s.workers,
		Client:    cfg.HTTP.Client(),
		Cache:     s.verifier(),
		UserAgent: cfg.HTTP.UserAgent,
	})

	in, err := install.New(install.Options{
		Root:     cfg.Root,
		Features: manifest.NewFeatureSet(cfg.Features...),
		Offline:  offlineMode,
		API:      cfg.API,
		Engine:   s.engine,
		Preflight: func(p *install.Plan) error {
			return tuner.Preflight(p.Tree.Root(), p.Items)
		},
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.installer = in

	printVerbose("Root: %s, platform %s, %d workers", in.Root(), in.Platform(), s.workers)
	return s, nil
}

// lockRoot takes the install root's lock file, waiting briefly for another
// process to release it.
func lockRoot(ctx context.Context, root string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(root, lockFile))

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, lockRetry)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s", errLocked, root)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", errLocked, root)
	}
	return lock, nil
}

// installedVersions lists the version ids whose manifest is present under
// root, sorted.
func installedVersions(root string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, tree.VersionsDir))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	ids := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(tree.ManifestPath(root, e.Name())); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
