package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/rig/pkg/rig/output"
)

var (
	planFormat   string
	planDetailed bool
)

var planCmd = &cobra.Command{
	Use:   "plan <version>",
	Short: "Show what installing a version involves",
	Long: `Resolve a version and print its install plan without downloading the
planned files. The metadata the plan is computed from (manifest, asset
index, runtime manifest) is fetched into the install root.

Output formats: ` + strings.Join(output.Available(), ", "),
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planFormat, "output", "o", "pretty", "output format")
	planCmd.Flags().BoolVarP(&planDetailed, "detailed", "d", false, "list every file in pretty output")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	formatter, err := output.Get(planFormat)
	if err != nil {
		return err
	}

	s, err := openSession(offline)
	if err != nil {
		return err
	}
	defer s.Close()

	plan, err := s.installer.Plan(cmd.Context(), args[0], nil)
	if err != nil {
		return fmt.Errorf("plan %s: %w", args[0], err)
	}

	result := output.FromPlan(plan)
	result.Detailed = planDetailed
	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}
