// Package cli: create.go implements the "task-worktree create" command.
//
// The create command provisions a workspace for a task:
//  1. Renders a branch name from the settings branch template
//  2. Resolves the project's base ref and fetches it (with fallback)
//  3. Runs `git worktree add -b` into ../worktrees/<slug>-<millis>
//  4. Excludes the agent log and optionally enables agent auto-approve
//  5. Pushes the branch upstream when pushOnCreate is enabled
//
// With --branch an existing branch is checked out instead, skipping the
// base-ref fetch and the push.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/task-worktree/internal/model"
	"github.com/shinji-kodama/task-worktree/internal/worktree"
)

// createFlags holds the flag values for the create command.
type createFlags struct {
	project projectFlags

	// autoApprove writes agent settings that skip permission prompts.
	autoApprove bool

	// branch checks out an existing branch instead of creating one.
	branch string

	// path overrides the workspace location (only with --branch).
	path string
}

// NewCreateCommand creates the "create" cobra command.
func NewCreateCommand() *cobra.Command {
	flags := &createFlags{}

	cmd := &cobra.Command{
		Use:   "create <task-name>",
		Short: "Create a workspace for a task",
		Long: `Create an isolated git worktree for a task.

The branch name comes from repository.branchTemplate in settings.json
(default "agent/{slug}-{timestamp}"). The branch is forked from the
project's base ref, which is fetched first; if it no longer exists on the
remote, origin's default branch is used and saved as the new base ref.

Examples:
  task-worktree create "Fix login bug"
  task-worktree create -C ~/src/app -p app "Refactor auth" --auto-approve
  task-worktree create --branch feature/login "Review login"`,

		Args: cobra.RangeArgs(0, 1),

		RunE: func(cmd *cobra.Command, args []string) error {
			taskName := ""
			if len(args) == 1 {
				taskName = args[0]
			}
			return runCreate(cmd, taskName, flags)
		},
	}

	flags.project.register(cmd)
	cmd.Flags().BoolVar(&flags.autoApprove, "auto-approve", false, "Let the coding agent skip permission prompts in this workspace")
	cmd.Flags().StringVar(&flags.branch, "branch", "", "Check out this existing branch instead of creating one")
	cmd.Flags().StringVar(&flags.path, "path", "", "Workspace directory (only with --branch)")

	return cmd
}

// runCreate is the main logic function for the create command.
func runCreate(cmd *cobra.Command, taskName string, flags *createFlags) error {
	// Step 1: Resolve the project.
	projectPath, projectID, err := flags.project.resolve()
	if err != nil {
		return err
	}
	if flags.path != "" && flags.branch == "" {
		return model.NewError(model.CodeInvalidArgument, "--path requires --branch")
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	// Step 2: Create the workspace.
	var info model.WorkspaceInfo
	if flags.branch != "" {
		m := s.manager(nil)
		info, err = m.CreateFromBranch(worktree.CreateFromBranchRequest{
			ProjectPath:  projectPath,
			BranchName:   flags.branch,
			ProjectID:    projectID,
			TaskName:     taskName,
			WorktreePath: flags.path,
		})
	} else {
		m, storeErr := s.managerWithStore(cmd.Context())
		if storeErr != nil {
			return storeErr
		}
		info, err = m.Create(cmd.Context(), worktree.CreateRequest{
			ProjectPath: projectPath,
			TaskName:    taskName,
			ProjectID:   projectID,
			AutoApprove: flags.autoApprove,
		})
	}
	if err != nil {
		return err
	}

	// Step 3: Output the result.
	return printResult(cmd.OutOrStdout(), model.Result{Success: true, Worktree: &info}, func(w io.Writer) {
		printWorkspaceText(w, fmt.Sprintf("Created workspace %q", info.Name), info)
	})
}
