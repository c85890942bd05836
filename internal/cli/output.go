package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/task-worktree/internal/model"
)

// Output formats accepted by --output.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// printResult renders res in the current output format. text is called for
// the text format; it may be nil when there is nothing to print.
func printResult(w io.Writer, res model.Result, text func(io.Writer)) error {
	return render(w, currentFormat(), res, text)
}

func render(w io.Writer, format string, res model.Result, text func(io.Writer)) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return enc.Close()
	case formatText:
		if text != nil {
			text(w)
		}
		return nil
	default:
		return validateFormat(format)
	}
}

// validateFormat rejects output formats render does not know.
func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return model.Errorf(model.CodeInvalidArgument, "unknown output format %q (valid: text, json, yaml)", format)
	}
}

// printWorkspaceText prints one workspace as an indented block.
func printWorkspaceText(w io.Writer, heading string, info model.WorkspaceInfo) {
	fmt.Fprintln(w, heading)
	fmt.Fprintf(w, "  ID:        %s\n", info.ID)
	fmt.Fprintf(w, "  Name:      %s\n", info.Name)
	fmt.Fprintf(w, "  Branch:    %s\n", info.Branch)
	fmt.Fprintf(w, "  Path:      %s\n", info.Path)
	fmt.Fprintf(w, "  Project:   %s\n", info.ProjectID)
	fmt.Fprintf(w, "  Status:    %s\n", info.Status)
	fmt.Fprintf(w, "  Created:   %s\n", info.CreatedAt)
}

// printWorkspaceTable prints workspaces as aligned columns:
//
//	ID                BRANCH                        PATH
//	wt-3f2a1bc09d4e   agent/fix-bug-1700000000000   /src/worktrees/fix-bug-1700000000000
func printWorkspaceTable(w io.Writer, worktrees []model.WorkspaceInfo) {
	if len(worktrees) == 0 {
		fmt.Fprintln(w, "No workspaces found.")
		return
	}

	fmt.Fprintf(w, "%-17s %-30s %s\n", "ID", "BRANCH", "PATH")
	for _, wt := range worktrees {
		fmt.Fprintf(w, "%-17s %-30s %s\n", wt.ID, wt.Branch, wt.Path)
	}
}

// printStatusText prints a change summary grouped by kind.
func printStatusText(w io.Writer, report model.WorkspaceStatusReport) {
	if !report.HasChanges {
		fmt.Fprintln(w, "Clean: no uncommitted changes.")
		return
	}
	printFileGroup(w, "Staged", report.StagedFiles)
	printFileGroup(w, "Unstaged", report.UnstagedFiles)
	printFileGroup(w, "Untracked", report.UntrackedFiles)
}

func printFileGroup(w io.Writer, title string, files []string) {
	if len(files) == 0 {
		return
	}
	fmt.Fprintf(w, "%s (%d):\n", title, len(files))
	for _, f := range files {
		fmt.Fprintf(w, "  %s\n", f)
	}
}

// printProjectText prints a project row.
func printProjectText(w io.Writer, p model.Project) {
	fmt.Fprintf(w, "Project %q\n", p.ID)
	fmt.Fprintf(w, "  Name:      %s\n", p.Name)
	fmt.Fprintf(w, "  Path:      %s\n", p.Path)
	fmt.Fprintf(w, "  Remote:    %s\n", orDash(p.GitRemote))
	fmt.Fprintf(w, "  Branch:    %s\n", orDash(p.GitBranch))
	fmt.Fprintf(w, "  Base ref:  %s\n", orDash(p.BaseRef))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
