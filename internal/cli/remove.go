// Package cli: remove.go implements the "task-worktree remove" command.
//
// The remove command tears a workspace down completely:
//  1. `git worktree remove --force` and `git worktree prune`
//  2. Deletion of the workspace directory (retrying once with write
//     permission granted)
//  3. Deletion of the local branch and, best effort, of the branch on origin
//
// By default, the command prompts for confirmation before proceeding.
// The --force flag skips the confirmation prompt.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/task-worktree/internal/model"
	"github.com/shinji-kodama/task-worktree/internal/worktree"
)

// removeFlags holds the flag values for the remove command.
type removeFlags struct {
	project projectFlags

	// force skips the interactive confirmation prompt when true.
	force bool

	// path and branch describe a workspace whose id is not known.
	path   string
	branch string
}

// NewRemoveCommand creates the "remove" cobra command.
func NewRemoveCommand() *cobra.Command {
	flags := &removeFlags{}

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a workspace and its branch",
		Long: `Remove a workspace: its git worktree, its directory, its local branch
and the same branch on origin.

Workspaces on disk are discovered first, so any id shown by "list" can be
removed. For a workspace that is not discovered, pass --path and --branch.
Removing a workspace that is already gone succeeds without doing anything.

Unless --force is specified, the command prompts for confirmation.

Examples:
  task-worktree remove wt-3f2a1bc09d4e
  task-worktree remove --force wt-3f2a1bc09d4e`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, args[0], flags)
		},
	}

	flags.project.register(cmd)
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Remove without confirmation")
	cmd.Flags().StringVar(&flags.path, "path", "", "Workspace path, when the id is not discovered")
	cmd.Flags().StringVar(&flags.branch, "branch", "", "Workspace branch, when the id is not discovered")

	return cmd
}

// runRemove is the main logic function for the remove command.
func runRemove(cmd *cobra.Command, id string, flags *removeFlags) error {
	projectPath, projectID, err := flags.project.resolve()
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	// Step 1: Find the target workspace.
	m := s.manager(nil)
	s.adopt(m, projectPath, projectID)

	target := worktree.RemoveRequest{
		ProjectPath: projectPath,
		ID:          id,
		Path:        flags.path,
		Branch:      flags.branch,
	}
	if info, err := m.Get(id); err == nil {
		target.Path = info.Path
		target.Branch = info.Branch
	} else if strings.TrimSpace(target.Path) == "" {
		// Neither tracked nor on disk: an earlier remove already finished.
		return printResult(cmd.OutOrStdout(), model.Result{Success: true}, func(w io.Writer) {
			fmt.Fprintf(w, "Workspace %s not found; nothing to remove\n", id)
		})
	}

	// Step 2: Prompt for confirmation unless --force is specified. Structured
	// output is meant for scripts, which cannot answer a prompt.
	if !flags.force && currentFormat() == formatText {
		confirmed, err := promptConfirmation(cmd.InOrStdin(), cmd.OutOrStdout(), target)
		if err != nil {
			return model.WrapError(model.CodeGeneral, "failed to read user input", err)
		}
		if !confirmed {
			return model.NewError(model.CodeCancelled, "operation cancelled by user")
		}
	}

	// Step 3: Remove.
	if err := m.Remove(target); err != nil {
		return err
	}

	return printResult(cmd.OutOrStdout(), model.Result{Success: true}, func(w io.Writer) {
		fmt.Fprintf(w, "Removed workspace %s\n", id)
	})
}

// promptConfirmation asks the user to confirm the remove operation.
// It reads a single line and checks for "y" or "yes".
func promptConfirmation(in io.Reader, out io.Writer, target worktree.RemoveRequest) (bool, error) {
	fmt.Fprintf(out, "About to remove workspace %s:\n", target.ID)
	if target.Path != "" {
		fmt.Fprintf(out, "  - directory %s will be deleted\n", target.Path)
	}
	if target.Branch != "" {
		fmt.Fprintf(out, "  - branch %s will be deleted locally and on origin\n", target.Branch)
	}
	fmt.Fprint(out, "\nContinue? [y/N] ")

	// bufio.Scanner handles both LF and CRLF line endings.
	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "y" || answer == "yes", nil
	}

	// A closed stdin counts as "no".
	if err := scanner.Err(); err != nil {
		return false, err
	}
	return false, nil
}
