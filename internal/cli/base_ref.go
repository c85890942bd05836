package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/task-worktree/internal/model"
)

// NewFetchBaseRefCommand creates the "fetch-base-ref" cobra command.
func NewFetchBaseRefCommand() *cobra.Command {
	flags := &projectFlags{}

	cmd := &cobra.Command{
		Use:   "fetch-base-ref",
		Short: "Resolve and fetch the project's base ref",
		Long: `Resolve the ref new workspaces fork from and fetch it.

When the configured ref no longer exists on the remote, origin's default
branch is fetched instead and saved as the project's base ref.

Examples:
  task-worktree fetch-base-ref -p app`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetchBaseRef(cmd, flags)
		},
	}

	flags.register(cmd)
	return cmd
}

func runFetchBaseRef(cmd *cobra.Command, flags *projectFlags) error {
	projectPath, projectID, err := flags.resolve()
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	m, err := s.managerWithStore(cmd.Context())
	if err != nil {
		return err
	}
	base, err := m.FetchBaseRef(cmd.Context(), projectID, projectPath)
	if err != nil {
		return err
	}

	return printResult(cmd.OutOrStdout(), model.Result{Success: true, BaseRef: &base}, func(w io.Writer) {
		fmt.Fprintf(w, "Fetched %s\n", base.FullRef)
	})
}
