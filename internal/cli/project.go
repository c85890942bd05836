// Package cli: project.go implements the "task-worktree project" commands.
//
// Projects live in the project database and carry the git hints base-ref
// resolution reads: a remote, a branch and a saved base ref such as
// "origin/main". Every field is optional.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/task-worktree/internal/model"
)

// NewProjectCommand creates the "project" command group.
func NewProjectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects and their base-ref settings",
	}

	cmd.AddCommand(
		newProjectAddCommand(),
		newProjectShowCommand(),
		newProjectListCommand(),
		newProjectSetBaseRefCommand(),
		newProjectRemoveCommand(),
	)
	return cmd
}

type projectAddFlags struct {
	name    string
	path    string
	remote  string
	branch  string
	baseRef string
}

func newProjectAddCommand() *cobra.Command {
	flags := &projectAddFlags{}

	cmd := &cobra.Command{
		Use:   "add [id]",
		Short: "Register or update a project",
		Long: `Register a project, or update the fields given as flags on an existing one.

The id defaults to the project directory name.

Examples:
  task-worktree project add
  task-worktree project add app --path ~/src/app --base-ref origin/develop
  task-worktree project add app --remote upstream --branch release`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runProjectAdd(cmd, id, flags)
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "Display name (default: the id)")
	cmd.Flags().StringVar(&flags.path, "path", "", "Repository path (default: current directory)")
	cmd.Flags().StringVar(&flags.remote, "remote", "", "Remote to fork workspaces from")
	cmd.Flags().StringVar(&flags.branch, "branch", "", "Branch on that remote to fork from")
	cmd.Flags().StringVar(&flags.baseRef, "base-ref", "", `Saved base ref, e.g. "origin/main"`)
	return cmd
}

func runProjectAdd(cmd *cobra.Command, id string, flags *projectAddFlags) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.store(cmd.Context())
	if err != nil {
		return err
	}

	path, err := resolveProjectPath(flags.path)
	if err != nil {
		return err
	}
	id = resolveProjectID(id, path)

	// Start from the stored row so flags that were not given keep their value.
	p, err := st.GetProject(cmd.Context(), id)
	if err != nil {
		if model.CodeOf(err) != model.CodeNotFound {
			return err
		}
		p = model.Project{ID: id, Name: id, Path: path}
	}

	changed := cmd.Flags().Changed
	if changed("name") {
		p.Name = flags.name
	}
	if changed("path") {
		p.Path = path
	}
	if changed("remote") {
		p.GitRemote = flags.remote
	}
	if changed("branch") {
		p.GitBranch = flags.branch
	}
	if changed("base-ref") {
		p.BaseRef = flags.baseRef
	}

	if err := st.UpsertProject(cmd.Context(), p); err != nil {
		return err
	}
	saved, err := st.GetProject(cmd.Context(), id)
	if err != nil {
		return err
	}

	return printResult(cmd.OutOrStdout(), model.Result{Success: true, Project: &saved}, func(w io.Writer) {
		printProjectText(w, saved)
	})
}

func newProjectShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			st, err := s.store(cmd.Context())
			if err != nil {
				return err
			}
			p, err := st.GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), model.Result{Success: true, Project: &p}, func(w io.Writer) {
				printProjectText(w, p)
			})
		},
	}
}

func newProjectListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			st, err := s.store(cmd.Context())
			if err != nil {
				return err
			}
			projects, err := st.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), model.Result{Success: true, Projects: projects}, func(w io.Writer) {
				if len(projects) == 0 {
					fmt.Fprintln(w, "No projects found.")
					return
				}
				fmt.Fprintf(w, "%-20s %-20s %s\n", "ID", "BASE REF", "PATH")
				for _, p := range projects {
					fmt.Fprintf(w, "%-20s %-20s %s\n", p.ID, orDash(p.BaseRef), p.Path)
				}
			})
		},
	}
}

func newProjectSetBaseRefCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-base-ref <id> <ref>",
		Short: `Save the ref new workspaces fork from, e.g. "origin/main"`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			st, err := s.store(cmd.Context())
			if err != nil {
				return err
			}
			if err := st.UpdateProjectBaseRef(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			p, err := st.GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), model.Result{Success: true, Project: &p}, func(w io.Writer) {
				printProjectText(w, p)
			})
		},
	}
}

func newProjectRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Forget a project (its workspaces are left alone)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			st, err := s.store(cmd.Context())
			if err != nil {
				return err
			}
			if err := st.DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), model.Result{Success: true}, func(w io.Writer) {
				fmt.Fprintf(w, "Removed project %s\n", args[0])
			})
		},
	}
}
