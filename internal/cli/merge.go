package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/task-worktree/internal/model"
)

// NewMergeCommand creates the "merge" cobra command.
func NewMergeCommand() *cobra.Command {
	flags := &projectFlags{}

	cmd := &cobra.Command{
		Use:   "merge <id>",
		Short: "Merge a workspace branch into the default branch and remove it",
		Long: `Check out origin's default branch in the project, merge the workspace
branch into it and remove the workspace.

If the merge fails (for example on a conflict) the workspace is kept.

Examples:
  task-worktree merge wt-3f2a1bc09d4e`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd, args[0], flags)
		},
	}

	flags.register(cmd)
	return cmd
}

func runMerge(cmd *cobra.Command, id string, flags *projectFlags) error {
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
	s.adopt(m, projectPath, projectID)

	if err := m.Merge(projectPath, id); err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), model.Result{Success: true}, func(w io.Writer) {
		fmt.Fprintf(w, "Merged and removed workspace %s\n", id)
	})
}
