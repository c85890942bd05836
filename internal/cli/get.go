package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/task-worktree/internal/model"
)

// NewGetCommand creates the "get" cobra command.
func NewGetCommand() *cobra.Command {
	flags := &projectFlags{}

	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show a workspace by id",
		Long: `Show one workspace by id, or every known workspace when no id is given.

Examples:
  task-worktree get wt-3f2a1bc09d4e
  task-worktree get --json`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runGet(cmd, id, flags)
		},
	}

	flags.register(cmd)
	return cmd
}

func runGet(cmd *cobra.Command, id string, flags *projectFlags) error {
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

	if id == "" {
		all := m.All()
		return printResult(cmd.OutOrStdout(), model.Result{Success: true, Worktrees: all}, func(w io.Writer) {
			printWorkspaceTable(w, all)
		})
	}

	info, err := m.Get(id)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), model.Result{Success: true, Worktree: &info}, func(w io.Writer) {
		printWorkspaceText(w, fmt.Sprintf("Workspace %s", info.ID), info)
	})
}
