package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/task-worktree/internal/model"
)

// NewStatusCommand creates the "status" cobra command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [worktree-path]",
		Short: "Show uncommitted changes in a workspace",
		Long: `Show staged, unstaged and untracked files in a workspace.

Examples:
  task-worktree status ../worktrees/fix-bug-1700000000000
  task-worktree status --json`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runStatus(cmd, path)
		},
	}
}

func runStatus(cmd *cobra.Command, path string) error {
	path, err := resolveProjectPath(path)
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.manager(nil).Status(path)
	if err != nil {
		return err
	}

	return printResult(cmd.OutOrStdout(), model.Result{Success: true, Status: &report}, func(w io.Writer) {
		printStatusText(w, report)
	})
}
