package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/task-worktree/internal/branch"
	"github.com/shinji-kodama/task-worktree/internal/model"
)

// NewSettingsCommand creates the "settings" command group.
func NewSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change repository settings",
	}
	cmd.AddCommand(newSettingsShowCommand(), newSettingsSetCommand())
	return cmd
}

func newSettingsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective repository settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			return printSettings(cmd, s)
		},
	}
}

type settingsSetFlags struct {
	branchTemplate string
	pushOnCreate   bool
}

func newSettingsSetCommand() *cobra.Command {
	flags := &settingsSetFlags{}

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change repository settings",
		Long: `Change repository settings in settings.json. Other keys in the file are kept.

The branch template may use {slug} and {timestamp}.

Examples:
  task-worktree settings set --branch-template "agent/{slug}"
  task-worktree settings set --push-on-create=false`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			repo := map[string]any{}
			if cmd.Flags().Changed("branch-template") {
				repo["branchTemplate"] = flags.branchTemplate
			}
			if cmd.Flags().Changed("push-on-create") {
				repo["pushOnCreate"] = flags.pushOnCreate
			}
			if len(repo) == 0 {
				return model.NewError(model.CodeInvalidArgument, "nothing to change: pass --branch-template or --push-on-create")
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.settings.Update(map[string]any{"repository": repo}); err != nil {
				return model.WrapError(model.CodeGeneral, "failed to update settings", err)
			}
			return printSettings(cmd, s)
		},
	}

	cmd.Flags().StringVar(&flags.branchTemplate, "branch-template", branch.DefaultTemplate, "Template for new branch names")
	cmd.Flags().BoolVar(&flags.pushOnCreate, "push-on-create", true, "Push new branches to origin")
	return cmd
}

func printSettings(cmd *cobra.Command, s *session) error {
	current := model.RepositorySettings{
		BranchTemplate: s.settings.BranchTemplate(),
		PushOnCreate:   s.settings.PushOnCreate(),
	}
	return printResult(cmd.OutOrStdout(), model.Result{Success: true, Settings: &current}, func(w io.Writer) {
		fmt.Fprintf(w, "Settings file:    %s\n", s.settings.Path())
		fmt.Fprintf(w, "Branch template:  %s\n", current.BranchTemplate)
		fmt.Fprintf(w, "Push on create:   %t\n", current.PushOnCreate)
	})
}
