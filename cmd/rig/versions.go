package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/rig/pkg/rig/manifest"
	"github.com/jamesainslie/rig/pkg/rig/tree"
)

var (
	versionTypes  []string
	versionsLimit int
	installedOnly bool
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List published versions",
	Long: `List the versions in the published version list, newest first.

Installed versions are marked with *. Use --type to restrict the list to
release, snapshot, old_beta or old_alpha.`,
	Args: cobra.NoArgs,
	RunE: runVersions,
}

func init() {
	versionsCmd.Flags().StringSliceVarP(&versionTypes, "type", "t", nil, "version types to show (release, snapshot, old_beta, old_alpha)")
	versionsCmd.Flags().IntVarP(&versionsLimit, "limit", "l", 0, "maximum number of versions to show (0=all)")
	versionsCmd.Flags().BoolVar(&installedOnly, "installed", false, "only show installed versions")
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, _ []string) error {
	s, err := openSession(offline)
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := s.installer.VersionList(cmd.Context(), nil)
	if err != nil {
		return err
	}

	kinds := make([]manifest.VersionType, 0, len(versionTypes))
	for _, t := range versionTypes {
		kinds = append(kinds, manifest.VersionType(strings.TrimSpace(t)))
	}

	root := s.installer.Root()
	refs := selectVersions(list.Filter(kinds...), func(id string) bool {
		_, err := os.Stat(tree.ManifestPath(root, id))
		return err == nil
	})

	if len(refs) == 0 {
		printInfo("No versions found.")
		return nil
	}

	out := cmd.OutOrStdout()
	if !quiet {
		fmt.Fprintf(out, "Latest release: %s, latest snapshot: %s\n\n", list.Latest.Release, list.Latest.Snapshot)
		fmt.Fprintf(out, "  %-28s  %-10s  %s\n", "ID", "TYPE", "RELEASED")
		fmt.Fprintln(out, strings.Repeat("-", 60))
	}
	for _, r := range refs {
		mark := " "
		if r.installed {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %-28s  %-10s  %s\n", mark, truncateString(r.ID, 28), r.Type, releaseDate(r.ReleaseTime))
	}
	return nil
}

type listedVersion struct {
	manifest.VersionRef
	installed bool
}

// selectVersions applies --installed and --limit.
func selectVersions(refs []manifest.VersionRef, isInstalled func(string) bool) []listedVersion {
	out := make([]listedVersion, 0, len(refs))
	for _, r := range refs {
		lv := listedVersion{VersionRef: r, installed: isInstalled(r.ID)}
		if installedOnly && !lv.installed {
			continue
		}
		out = append(out, lv)
		if versionsLimit > 0 && len(out) == versionsLimit {
			break
		}
	}
	return out
}

// releaseDate trims an RFC 3339 timestamp to its date.
func releaseDate(ts string) string {
	if len(ts) >= len("2006-01-02") {
		return ts[:len("2006-01-02")]
	}
	return ts
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
