package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/rig/cmd/rig/tui"
	"github.com/jamesainslie/rig/pkg/rig/download"
	"github.com/jamesainslie/rig/pkg/rig/history"
	"github.com/jamesainslie/rig/pkg/rig/install"
)

// eventBuffer decouples the workers from a slow reporter.
const eventBuffer = 256

var installCmd = &cobra.Command{
	Use:   "install <version>",
	Short: "Install a version",
	Long: `Install a version and everything it needs to run.

The version may be an id from the published version list or one of the
aliases latest-release and latest-snapshot. Manifests that inherit from
another version (mod loaders, for example) are installed together with
their parent's files.

Press ctrl+c to cancel; files completed so far are kept and a later run
picks up where this one stopped.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

// runInstall plans and downloads one version while a reporter renders the
// event stream.
func runInstall(cmd *cobra.Command, args []string) error {
	id := args[0]

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	useTUI := !noTUI && !quiet && tui.IsTerminal(os.Stdout)
	if useTUI {
		if err := initLogging(true); err != nil {
			return fmt.Errorf("failed to initialize TUI logging: %w", err)
		}
	}

	s, err := openSession(offline)
	if err != nil {
		return err
	}
	defer s.Close()

	lock, err := lockRoot(ctx, s.installer.Root())
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	rep := newReporter(useTUI, "Installing "+id, cancel)

	var (
		plan   *install.Plan
		runErr error
		start  = time.Now()
		events = make(chan download.Event, eventBuffer)
	)
	go func() {
		defer close(events)
		plan, runErr = s.installer.Plan(ctx, id, events)
		if runErr != nil {
			return
		}
		rep.Planned(plan.Items)
		_, runErr = s.installer.Apply(ctx, plan, events, start)
	}()

	snap, repErr := rep.Run(events)
	if repErr != nil {
		logger.Warn("progress view failed", "error", repErr)
	}
	elapsed := time.Since(start)

	if plan != nil {
		recordInstall(plan, snap, runErr, elapsed)
	}

	if failed := failures(snap); failed != nil && !quiet {
		fmt.Fprintln(os.Stderr, failed.Error())
	}
	if runErr != nil {
		return fmt.Errorf("install %s: %w", id, runErr)
	}

	printInfo("Installed %s: %s files (%s), %s already present, %s downloaded in %s",
		plan.Manifest.ID,
		humanize.Comma(int64(snap.Planned)),
		humanize.IBytes(uint64(plan.TotalSize())),
		humanize.Comma(int64(snap.Cached)),
		humanize.IBytes(uint64(snap.Transferred)),
		elapsed.Round(time.Millisecond))
	return nil
}

// newReporter picks the progress view for the current output.
func newReporter(useTUI bool, title string, cancel context.CancelFunc) tui.Reporter {
	if useTUI {
		return tui.NewProgram(title, cancel)
	}
	var w io.Writer = os.Stdout
	if quiet {
		w = io.Discard
	}
	return tui.NewPlain(w, verbose)
}

// failures aggregates the per-item errors of a run, or returns nil.
func failures(snap tui.Snapshot) *multierror.Error {
	var errs *multierror.Error
	for _, f := range snap.Failures {
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", f.Path, f.Err))
	}
	return errs
}

// runStatus classifies the outcome of a run for history.
func runStatus(err error) history.Status {
	switch {
	case err == nil:
		return history.StatusOK
	case errors.Is(err, context.Canceled), errors.Is(err, download.ErrCancelled):
		return history.StatusCancelled
	default:
		return history.StatusFailed
	}
}

// historyEntry builds the history record of a run.
func historyEntry(plan *install.Plan, snap tui.Snapshot, err error, elapsed time.Duration) history.Entry {
	e := history.Entry{
		Timestamp: time.Now(),
		Version:   plan.Manifest.ID,
		Platform:  plan.Platform.String(),
		Root:      plan.Tree.Root(),
		Status:    runStatus(err),
		Summary: history.Summary{
			Items:      len(plan.Items),
			Bytes:      plan.TotalSize(),
			Cached:     snap.Cached,
			Downloaded: snap.Transferred,
		},
		Elapsed: elapsed,
	}
	for _, f := range snap.Failures {
		e.Failures = append(e.Failures, history.Failure{Path: f.Path, Error: f.Err.Error()})
	}
	if err != nil && len(e.Failures) == 0 && e.Status == history.StatusFailed {
		e.Failures = append(e.Failures, history.Failure{Error: err.Error()})
	}
	return e
}

// recordInstall writes the run to history. Failing to do so is logged, not
// returned: the install itself is what matters.
func recordInstall(plan *install.Plan, snap tui.Snapshot, err error, elapsed time.Duration) {
	if !cfg.History.Enabled {
		return
	}
	store, herr := history.New(cfg.History.Path)
	if herr != nil {
		logger.Warn("history unavailable", "error", herr)
		return
	}
	entry, herr := store.Record(historyEntry(plan, snap, err, elapsed))
	if herr != nil {
		logger.Warn("failed to record history", "error", herr)
		return
	}
	printVerbose("Recorded history entry %s", entry.ID)
}
