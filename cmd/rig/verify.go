package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/rig/pkg/rig/download"
	"github.com/jamesainslie/rig/pkg/rig/install"
	"github.com/jamesainslie/rig/pkg/rig/trash"
	"github.com/jamesainslie/rig/pkg/rig/types"
	"github.com/jamesainslie/rig/pkg/rig/verify"
)

var (
	verifyFull      bool
	verifyRepair    bool
	verifyOrphans   bool
	verifyPrune     bool
	verifyPermanent bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify [version...]",
	Short: "Check installed files",
	Long: `Check the files of installed versions against their plans.

Every planned file is checked for presence, size and digest. Plans are
computed from the metadata already on disk, so verify works offline. With no
arguments every installed version is checked.

Libraries and asset objects are shared between versions. --orphans lists the
files in those directories that no installed version references; --prune
moves them to the trash (or deletes them with --permanent).`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyFull, "full", false, "rehash every file, ignoring the verification cache")
	verifyCmd.Flags().BoolVar(&verifyRepair, "repair", false, "download missing and damaged files again")
	verifyCmd.Flags().BoolVar(&verifyOrphans, "orphans", false, "list files no installed version references")
	verifyCmd.Flags().BoolVar(&verifyPrune, "prune", false, "remove files no installed version references")
	verifyCmd.Flags().BoolVar(&verifyPermanent, "permanent", false, "with --prune, delete instead of moving to the trash")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	root := s.installer.Root()
	installed, err := installedVersions(root)
	if err != nil {
		return fmt.Errorf("failed to list installed versions: %w", err)
	}

	targets := args
	if len(targets) == 0 {
		targets = installed
	}
	if len(targets) == 0 {
		printInfo("No installed versions under %s.", root)
		return nil
	}

	if verifyRepair || verifyPrune {
		lock, err := lockRoot(ctx, root)
		if err != nil {
			return err
		}
		defer func() { _ = lock.Unlock() }()
	}

	plans, err := planAll(ctx, s.installer, targets, installed)
	if err != nil {
		return err
	}

	var cache download.Verifier
	if !verifyFull {
		cache = s.verifier()
	}
	checker, err := verify.New(verify.Options{Root: root, Workers: s.workers, Cache: cache})
	if err != nil {
		return err
	}

	damaged := 0
	for _, id := range targets {
		report, err := checker.Check(ctx, plans[id].Items)
		if err != nil {
			return fmt.Errorf("verify %s: %w", id, err)
		}
		printReport(id, report)

		if report.OK() {
			continue
		}
		if !verifyRepair {
			damaged += len(report.Problems)
			continue
		}
		if err := repair(ctx, s, report); err != nil {
			printError("repair %s: %v", id, err)
			damaged += len(report.Problems)
		}
	}

	if verifyOrphans || verifyPrune {
		if err := orphans(ctx, s, checker, plans); err != nil {
			return err
		}
	}

	if damaged > 0 {
		return fmt.Errorf("%w: %d file(s) missing or damaged", errProblems, damaged)
	}
	return nil
}

// planAll plans every target and every installed version. Orphan detection
// needs the plans of all installed versions, since libraries and assets are
// shared between them.
func planAll(ctx context.Context, in *install.Installer, targets, installed []string) (map[string]*install.Plan, error) {
	plans := make(map[string]*install.Plan, len(installed))
	for _, id := range targets {
		plan, err := in.Plan(ctx, id, nil)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", id, err)
		}
		plans[id] = plan
	}
	for _, id := range installed {
		if _, ok := plans[id]; ok {
			continue
		}
		plan, err := in.Plan(ctx, id, nil)
		if err != nil {
			if verifyOrphans || verifyPrune {
				return nil, fmt.Errorf("plan %s (needed to find unreferenced files): %w", id, err)
			}
			logger.Debug("skipping installed version", "id", id, "error", err)
			continue
		}
		plans[id] = plan
	}
	return plans, nil
}

func printReport(id string, report *verify.Report) {
	if report.OK() {
		printInfo("%s: %s files ok (%s hashed in %s)", id,
			humanize.Comma(int64(report.Checked)),
			humanize.IBytes(uint64(report.Bytes)),
			report.Elapsed.Round(time.Millisecond))
		return
	}
	printInfo("%s: %d of %s files have problems", id, len(report.Problems), humanize.Comma(int64(report.Checked)))
	for _, p := range report.Problems {
		line := fmt.Sprintf("  %-13s %s", p.Status, filepath.ToSlash(p.Item.Path))
		if p.Err != nil {
			line += ": " + p.Err.Error()
		}
		printInfo("%s", line)
	}
}

// repair downloads the problem items of report again.
func repair(ctx context.Context, s *session, report *verify.Report) error {
	items := make([]types.Item, 0, len(report.Problems))
	for _, p := range report.Problems {
		items = append(items, p.Item)
	}
	if err := s.engine.Run(ctx, items, nil); err != nil {
		return err
	}
	printInfo("  repaired %d file(s)", len(items))
	return nil
}

// orphans lists, and with --prune removes, files under the shared content
// directories that no planned version references.
func orphans(ctx context.Context, s *session, checker *verify.Checker, plans map[string]*install.Plan) error {
	var referenced []types.Item
	for _, plan := range plans {
		referenced = append(referenced, plan.Items...)
	}

	found, err := checker.Orphans(ctx, referenced)
	if err != nil {
		return fmt.Errorf("failed to scan for unreferenced files: %w", err)
	}
	if len(found) == 0 {
		printInfo("No unreferenced files.")
		return nil
	}

	var total int64
	for _, o := range found {
		total += o.Size
		printVerbose("unreferenced: %s (%s)", filepath.ToSlash(o.Path), humanize.IBytes(uint64(o.Size)))
	}
	printInfo("%d unreferenced file(s), %s", len(found), humanize.IBytes(uint64(total)))

	if !verifyPrune {
		if !verbose {
			for _, o := range found {
				printInfo("  %s", filepath.ToSlash(o.Path))
			}
		}
		return nil
	}

	root := s.installer.Root()
	paths := make([]string, 0, len(found))
	for _, o := range found {
		paths = append(paths, filepath.Join(root, o.Path))
	}

	res, err := trash.Remove(ctx, paths, trash.Options{Permanent: verifyPermanent})
	if s.cache != nil {
		for _, p := range res.Removed {
			if ferr := s.cache.Forget(p); ferr != nil {
				logger.Debug("failed to forget removed file", "path", p, "error", ferr)
			}
		}
	}

	methods := make([]string, 0, len(res.Methods))
	for m, n := range res.Methods {
		methods = append(methods, fmt.Sprintf("%s: %d", m, n))
	}
	slices.Sort(methods)
	printInfo("Removed %d file(s), %s %v", len(res.Removed), humanize.IBytes(uint64(res.Bytes)), methods)
	return err
}
