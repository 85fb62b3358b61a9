package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/rig/pkg/rig/config"
	"github.com/jamesainslie/rig/pkg/rig/download"
	"github.com/jamesainslie/rig/pkg/rig/logging"
)

var logger = logging.Get("cli")

// Global flags.
var (
	cfgFile string
	offline bool
	noCache bool
	noTUI   bool
	verbose bool
	quiet   bool
)

// cfg is loaded before any subcommand runs.
var cfg *config.Config

// annotationNoConfig marks commands that must work without a readable
// config file.
const annotationNoConfig = "rig.no-config"

var rootCmd = &cobra.Command{
	Use:   "rig",
	Short: "Install game versions with their libraries, assets and runtime",
	Long: `Rig resolves a game version manifest, plans every file the version needs
(client jar, libraries, natives, assets and the bundled Java runtime) and
downloads them concurrently into an install root, verifying each file.

Files already present with the right digest are never downloaded again, so
installing a second version only fetches what it does not share with the
first.

Examples:
  rig install 1.20.1           # Install a version
  rig install latest-release   # Install the newest release
  rig plan 1.20.1 -o json      # Show what would be downloaded
  rig versions --type release  # List published releases
  rig verify --orphans         # Check installed files, list stray ones
  rig history                  # View past installs`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/rig/config.yaml)")
	rootCmd.PersistentFlags().StringP("root", "r", "", "install root (default: $XDG_DATA_HOME/rig)")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "override download worker count (0=auto)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "never touch the network; use files already on disk")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "rehash every file instead of trusting the verification cache")
	rootCmd.PersistentFlags().BoolVar(&noTUI, "no-tui", false, "print progress as plain lines")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "minimal output")
}

// setup loads configuration and starts logging for every subcommand.
func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[annotationNoConfig] == "true" {
		return nil
	}

	loaded, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	cfg = loaded

	if err := initLogging(false); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Debug("configuration loaded", "root", cfg.Root, "workers", cfg.Workers, "offline", offline)
	return nil
}

// initLogging (re)configures logging. In TUI mode nothing is written to
// stderr; warnings are collected for the progress view instead.
func initLogging(tuiMode bool) error {
	lc, err := cfg.Logging.Logging()
	if err != nil {
		return err
	}
	switch {
	case verbose:
		lc.ConsoleLevel = "debug"
	case quiet:
		lc.ConsoleLevel = "error"
	default:
		lc.ConsoleLevel = "warn"
	}
	lc.TUIMode = tuiMode
	return logging.Init(lc)
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context so downloads stop cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// errProblems is returned when verify finds damaged files.
var errProblems = errors.New("verification found problems")

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, download.ErrCancelled):
		return 130
	case errors.Is(err, errProblems):
		return 2
	default:
		return 1
	}
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
