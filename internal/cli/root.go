// Package cli implements the cobra-based CLI commands for task-worktree.
//
// Each subcommand (create, list, status, get, remove, merge, fetch-base-ref,
// project, settings) is defined in its own file within this package. This
// file defines the root command that serves as the parent for all
// subcommands and handles global flags and exit codes.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/task-worktree/internal/model"
)

// Global flag variables shared across all subcommands. They are bound to
// cobra persistent flags on the root command.
var (
	// jsonOutput is shorthand for --output json.
	jsonOutput bool

	// outputFormat selects text, json or yaml rendering of results.
	outputFormat string

	// verbose enables debug logging on stderr.
	verbose bool

	// configFile overrides the TOML config location.
	configFile string

	// dbDriver, dbDSN and settingsFile override the matching config keys.
	dbDriver     string
	dbDSN        string
	settingsFile string
)

// Version, Commit and Date are set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "task-worktree",
		Short: "Isolated git worktrees for concurrent agent tasks",
		Long: `task-worktree provisions one git worktree per agent task, next to the
project repository under ../worktrees/, on a branch rendered from your
branch template and forked from the project's base ref.

Workspaces are rediscovered from disk by branch prefix, so every command
works on workspaces created by earlier invocations.`,

		SilenceUsage:  true,
		SilenceErrors: true,

		// Reject a bad --output before any command touches the repository.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return validateFormat(currentFormat())
		},

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&jsonOutput, "json", false, "Output in JSON format (same as --output json)")
	pf.StringVarP(&outputFormat, "output", "o", formatText, "Output format: text, json, yaml")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	pf.StringVar(&configFile, "config", "", "Config file (default: $TASK_WORKTREE_CONFIG or <user config dir>/task-worktree/config.toml)")
	pf.StringVar(&dbDriver, "db-driver", "", "Project database driver: sqlite3 or pgx")
	pf.StringVar(&dbDSN, "db-dsn", "", "Project database DSN (SQLite file path or Postgres URL)")
	pf.StringVar(&settingsFile, "settings", "", "Path to settings.json")

	rootCmd.AddCommand(NewCreateCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewGetCommand())
	rootCmd.AddCommand(NewRemoveCommand())
	rootCmd.AddCommand(NewMergeCommand())
	rootCmd.AddCommand(NewFetchBaseRefCommand())
	rootCmd.AddCommand(NewProjectCommand())
	rootCmd.AddCommand(NewSettingsCommand())

	return rootCmd
}

// Execute runs the root command and exits with the code carried by the
// returned error.
func Execute(rootCmd *cobra.Command) {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	reportError(rootCmd.OutOrStdout(), rootCmd.ErrOrStderr(), err)
	os.Exit(ExitCode(err))
}

// ExitCode maps an error to the process exit code. nil is 0; errors without
// a model code (flag parsing, unknown commands) are 1.
func ExitCode(err error) int {
	return int(model.CodeOf(err))
}

// reportError writes err for the user. Structured formats get a failure
// envelope on stdout; text gets "Error: ..." on stderr.
func reportError(stdout, stderr io.Writer, err error) {
	if format := currentFormat(); format != formatText {
		if renderErr := render(stdout, format, model.Failure(err), nil); renderErr == nil {
			return
		}
	}
	fmt.Fprintf(stderr, "Error: %s\n", err)
}

// currentFormat resolves --json and --output into one format name.
func currentFormat() string {
	if jsonOutput {
		return formatJSON
	}
	return strings.ToLower(strings.TrimSpace(outputFormat))
}

// IsJSONOutput returns whether results are rendered as JSON.
func IsJSONOutput() bool {
	return currentFormat() == formatJSON
}
