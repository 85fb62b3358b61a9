package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/rig/pkg/rig/config"
	"github.com/jamesainslie/rig/pkg/rig/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View install history",
	Long: `View the history of install runs.

Every install records what was planned, how much was downloaded and which
files failed.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of an install run",
	Long:  `Display an install run by its ID or a unique prefix of it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, error) {
	store, err := history.New(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

// runHistory lists recent install runs.
func runHistory(cmd *cobra.Command, _ []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}

	entries, err := store.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'rig install <version>' to install a version.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%-36s  %-16s  %-9s  %-8s  %-10s  %s\n", "ID", "VERSION", "STATUS", "FILES", "SIZE", "WHEN")
	fmt.Fprintln(out, strings.Repeat("-", 100))

	for _, e := range entries {
		fmt.Fprintf(out, "%-36s  %-16s  %-9s  %-8s  %-10s  %s\n",
			truncateString(e.ID, 36),
			truncateString(e.Version, 16),
			e.Status,
			humanize.Comma(int64(e.Summary.Items)),
			humanize.IBytes(uint64(e.Summary.Bytes)),
			humanize.Time(e.Timestamp),
		)
	}

	fmt.Fprintln(out, strings.Repeat("-", 100))
	fmt.Fprintf(out, "\nShowing %d entries. Use --limit to see more.\n", len(entries))
	fmt.Fprintln(out, "Use 'rig history show <id>' for details on a specific entry.")

	return nil
}

// runHistoryShow displays one install run.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}

	entry, err := store.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nInstall Details")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "ID:         %s\n", entry.ID)
	fmt.Fprintf(out, "Timestamp:  %s\n", entry.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Version:    %s\n", entry.Version)
	fmt.Fprintf(out, "Platform:   %s\n", entry.Platform)
	fmt.Fprintf(out, "Root:       %s\n", entry.Root)
	fmt.Fprintf(out, "Status:     %s\n", entry.Status)
	fmt.Fprintf(out, "Files:      %s (%s already present)\n",
		humanize.Comma(int64(entry.Summary.Items)), humanize.Comma(int64(entry.Summary.Cached)))
	fmt.Fprintf(out, "Total Size: %s\n", humanize.IBytes(uint64(entry.Summary.Bytes)))
	fmt.Fprintf(out, "Downloaded: %s\n", humanize.IBytes(uint64(entry.Summary.Downloaded)))
	fmt.Fprintf(out, "Elapsed:    %s\n", entry.Elapsed.Round(time.Millisecond))

	if len(entry.Failures) > 0 {
		fmt.Fprintln(out, "\nFailures:")
		fmt.Fprintln(out, strings.Repeat("-", 60))

		limit := min(len(entry.Failures), 50)
		for _, f := range entry.Failures[:limit] {
			if f.Path == "" {
				fmt.Fprintf(out, "%s\n", f.Error)
				continue
			}
			fmt.Fprintf(out, "%s: %s\n", filepath.ToSlash(f.Path), f.Error)
		}
		if len(entry.Failures) > limit {
			fmt.Fprintf(out, "\n... and %d more failures\n", len(entry.Failures)-limit)
		}
	}

	return nil
}

// runHistoryClean removes old history entries.
func runHistoryClean(_ *cobra.Command, _ []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}

	retentionDays := cfg.History.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)

	removed, err := store.Cleanup(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("Removed %d entries.", removed)
	return nil
}
