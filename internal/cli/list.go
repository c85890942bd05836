// Package cli: list.go implements the "task-worktree list" command.
//
// The list command shows the project's workspaces as git reports them:
// every worktree on a managed branch prefix (agent/, pr/, orch/ and the
// branch template's own prefix). Records are rebuilt from disk on each run.
package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/task-worktree/internal/model"
)

// NewListCommand creates the "list" cobra command.
func NewListCommand() *cobra.Command {
	flags := &projectFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the project's workspaces",
		Long: `List the workspaces of a project.

Examples:
  task-worktree list
  task-worktree list -C ~/src/app --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, flags)
		},
	}

	flags.register(cmd)
	return cmd
}

// runList is the main logic function for the list command.
func runList(cmd *cobra.Command, flags *projectFlags) error {
	projectPath, projectID, err := flags.resolve()
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	m := s.manager(nil)
	worktrees, err := m.List(projectPath)
	if err != nil {
		return err
	}
	if flags.id != "" {
		for i := range worktrees {
			worktrees[i].ProjectID = projectID
		}
	}

	return printResult(cmd.OutOrStdout(), model.Result{Success: true, Worktrees: worktrees}, func(w io.Writer) {
		printWorkspaceTable(w, worktrees)
	})
}
