package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/rig/cmd/rig/tui"
	"github.com/jamesainslie/rig/pkg/rig/config"
	"github.com/jamesainslie/rig/pkg/rig/download"
	"github.com/jamesainslie/rig/pkg/rig/history"
	"github.com/jamesainslie/rig/pkg/rig/install"
	"github.com/jamesainslie/rig/pkg/rig/manifest"
	"github.com/jamesainslie/rig/pkg/rig/tree"
	"github.com/jamesainslie/rig/pkg/rig/types"
)

func TestCommandsRegistered(t *testing.T) {
	t.Parallel()

	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"install", "plan", "versions", "verify", "history", "config", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, buf.String(), "rig dev")
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 130, exitCode(fmt.Errorf("install: %w", context.Canceled)))
	assert.Equal(t, 130, exitCode(download.ErrCancelled))
	assert.Equal(t, 2, exitCode(fmt.Errorf("%w: 3 files", errProblems)))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestRunStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, history.StatusOK, runStatus(nil))
	assert.Equal(t, history.StatusCancelled, runStatus(fmt.Errorf("x: %w", download.ErrCancelled)))
	assert.Equal(t, history.StatusCancelled, runStatus(context.Canceled))
	assert.Equal(t, history.StatusFailed, runStatus(download.ErrNetwork))
}

func samplePlan(t *testing.T) *install.Plan {
	t.Helper()
	tr, err := tree.New(t.TempDir(), "1.20.1", "java-runtime-gamma")
	require.NoError(t, err)
	return &install.Plan{
		Tree:     tr,
		Platform: types.Platform{OS: types.OSLinux, Arch: types.ArchX64},
		Manifest: &manifest.Root{ID: "1.20.1"},
		Items: []types.Item{
			{Path: "libraries/a.jar", Size: 10},
			{Path: "libraries/b.jar", Size: 20},
		},
	}
}

func TestHistoryEntry(t *testing.T) {
	t.Parallel()

	plan := samplePlan(t)
	snap := tui.Snapshot{
		Cached:      1,
		Transferred: 20,
		Failures:    []tui.Failure{{Path: "libraries/b.jar", Err: download.ErrNetwork}},
	}

	e := historyEntry(plan, snap, download.ErrNetwork, 3*time.Second)
	assert.Equal(t, "1.20.1", e.Version)
	assert.Equal(t, "linux/x64", e.Platform)
	assert.Equal(t, plan.Tree.Root(), e.Root)
	assert.Equal(t, history.StatusFailed, e.Status)
	assert.Equal(t, history.Summary{Items: 2, Bytes: 30, Cached: 1, Downloaded: 20}, e.Summary)
	require.Len(t, e.Failures, 1)
	assert.Equal(t, "libraries/b.jar", e.Failures[0].Path)

	t.Run("run error without item failures", func(t *testing.T) {
		t.Parallel()
		e := historyEntry(plan, tui.Snapshot{}, install.ErrNotCached, time.Second)
		require.Len(t, e.Failures, 1)
		assert.Empty(t, e.Failures[0].Path)
		assert.Contains(t, e.Failures[0].Error, "not available offline")
	})

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		e := historyEntry(plan, tui.Snapshot{}, nil, time.Second)
		assert.Equal(t, history.StatusOK, e.Status)
		assert.Empty(t, e.Failures)
	})
}

func TestFailures(t *testing.T) {
	t.Parallel()

	assert.Nil(t, failures(tui.Snapshot{}))

	errs := failures(tui.Snapshot{Failures: []tui.Failure{
		{Path: "a", Err: download.ErrNetwork},
		{Path: "b", Err: download.ErrIO},
	}})
	require.NotNil(t, errs)
	assert.Len(t, errs.Errors, 2)
	assert.ErrorIs(t, errs, download.ErrNetwork)
	assert.ErrorIs(t, errs, download.ErrIO)
}

func TestInstalledVersions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ids, err := installedVersions(root)
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, id := range []string{"1.20.1", "1.8.9"} {
		path := tree.ManifestPath(root, id)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	}
	// A directory without a manifest is not an installed version.
	require.NoError(t, os.MkdirAll(filepath.Join(root, tree.VersionsDir, "partial"), 0o755))
	// Neither is the cached version list.
	require.NoError(t, os.WriteFile(filepath.Join(root, tree.VersionListRel()), []byte("{}"), 0o644))

	ids, err = installedVersions(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.20.1", "1.8.9"}, ids)
}

func TestLockRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	first, err := lockRoot(context.Background(), root)
	require.NoError(t, err)
	defer func() { _ = first.Unlock() }()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err = lockRoot(ctx, root)
	assert.Error(t, err, "a held root cannot be locked again")
}

func TestSelectVersions(t *testing.T) {
	refs := []manifest.VersionRef{{ID: "c"}, {ID: "b"}, {ID: "a"}}
	installed := func(id string) bool { return id != "b" }

	t.Cleanup(func() {
		installedOnly = false
		versionsLimit = 0
	})

	got := selectVersions(refs, installed)
	require.Len(t, got, 3)
	assert.True(t, got[0].installed)
	assert.False(t, got[1].installed)

	installedOnly = true
	got = selectVersions(refs, installed)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[1].ID)

	installedOnly = false
	versionsLimit = 1
	got = selectVersions(refs, installed)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func TestReleaseDate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2023-06-12", releaseDate("2023-06-12T13:25:51+00:00"))
	assert.Equal(t, "soon", releaseDate("soon"))
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcd...", truncateString("abcdefghij", 7))
	assert.Equal(t, "ab", truncateString("abcdef", 2))
}

func TestEnvOverrides(t *testing.T) {
	t.Parallel()

	got := envOverrides([]string{"HOME=/root", "RIG_WORKERS=4", "RIG_ROOT=/games", "PATH=/bin"})
	assert.Equal(t, []string{"RIG_ROOT=/games", "RIG_WORKERS=4"}, got)
}

func TestWriteConfig(t *testing.T) {
	t.Parallel()

	c := &config.Config{Root: "/games/rig", Workers: 6}
	c.HTTP.Timeout = 30 * time.Second

	var buf bytes.Buffer
	writeConfig(&buf, c)

	out := buf.String()
	assert.Contains(t, out, "root:")
	assert.Contains(t, out, "/games/rig")
	assert.Contains(t, out, "http.timeout:")
	assert.Contains(t, out, "30s")
}
