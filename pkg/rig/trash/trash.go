// Package trash removes files rig no longer references. Files go to the
// desktop trash where a trash tool is available and are deleted otherwise.
package trash

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/jamesainslie/rig/pkg/rig/logging"
)

var logger = logging.Get("trash")

// commandTimeout is the maximum time to wait for one trash command.
const commandTimeout = 30 * time.Second

// Method is how a file was removed.
type Method string

// Removal methods.
const (
	MethodFinder   Method = "finder"
	MethodGio      Method = "gio"
	MethodTrashCLI Method = "trash-put"
	MethodDelete   Method = "delete"
)

// Options configures Remove.
type Options struct {
	// Permanent skips the trash and deletes directly.
	Permanent bool
}

// Result reports what Remove did.
type Result struct {
	// Removed lists the paths that are gone.
	Removed []string
	// Bytes is the combined size of the removed files.
	Bytes int64
	// Methods counts removals per method.
	Methods map[Method]int
}

// Remove removes every path, continuing past failures. The returned error
// aggregates every failure and is nil when all paths were removed.
func Remove(ctx context.Context, paths []string, opts Options) (*Result, error) {
	res := &Result{Methods: make(map[Method]int)}
	var errs *multierror.Error

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}

		info, err := os.Lstat(path)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("cannot trash %q: %w", path, err))
			continue
		}

		method, err := move(ctx, path, opts.Permanent)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		logger.Debug("removed", "path", path, "method", method)
		res.Removed = append(res.Removed, path)
		res.Methods[method]++
		if info.Mode().IsRegular() {
			res.Bytes += info.Size()
		}
	}

	return res, errs.ErrorOrNil()
}

// MoveToTrash moves a single file or directory to the system trash,
// deleting it when no trash is available.
func MoveToTrash(ctx context.Context, path string) (Method, error) {
	if _, err := os.Lstat(path); err != nil {
		return "", fmt.Errorf("cannot trash %q: %w", path, err)
	}
	return move(ctx, path, false)
}

func move(ctx context.Context, path string, permanent bool) (Method, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve absolute path for %q: %w", path, err)
	}

	if !permanent {
		switch runtime.GOOS {
		case "darwin":
			if trashMacOS(ctx, absPath) {
				return MethodFinder, nil
			}
		case "linux":
			if m, ok := trashLinux(ctx, absPath); ok {
				return m, nil
			}
		}
	}

	if err := os.RemoveAll(absPath); err != nil {
		return "", fmt.Errorf("failed to delete %q: %w", absPath, err)
	}
	return MethodDelete, nil
}

// trashMacOS asks Finder to move path to the Trash, which keeps "Put Back"
// working.
func trashMacOS(ctx context.Context, path string) bool {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
	return exec.CommandContext(ctx, "osascript", "-e", script).Run() == nil
}

// trashLinux tries gio, then trash-cli.
func trashLinux(ctx context.Context, path string) (Method, bool) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if gioPath, err := exec.LookPath("gio"); err == nil {
		if exec.CommandContext(ctx, gioPath, "trash", path).Run() == nil {
			return MethodGio, true
		}
	}
	if trashPath, err := exec.LookPath("trash-put"); err == nil {
		if exec.CommandContext(ctx, trashPath, path).Run() == nil {
			return MethodTrashCLI, true
		}
	}
	return "", false
}
