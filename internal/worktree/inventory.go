package worktree

import (
	"path/filepath"
	"strings"

	"github.com/shinji-kodama/task-worktree/internal/branch"
	"github.com/shinji-kodama/task-worktree/internal/identity"
	"github.com/shinji-kodama/task-worktree/internal/model"
)

// List returns the workspaces of projectPath.
//
// Every branch-carrying entry of `git worktree list` is considered. Entries
// whose path is tracked in the registry are returned as tracked. Untracked
// entries on a managed branch (see branch.IsManaged) get a synthesized record
// that is not stored. Everything else is omitted.
//
// Branch-prefix recognition is a heuristic: a hand-made branch named like
// "agent/x" is reported as a workspace.
func (m *Manager) List(projectPath string) ([]model.WorkspaceInfo, error) {
	projectPath = strings.TrimSpace(projectPath)
	if projectPath == "" {
		return nil, model.NewError(model.CodeInvalidArgument, "projectPath is required")
	}

	entries, err := m.git.ListWorktrees(projectPath)
	if err != nil {
		return nil, model.Classify(model.CodeCommandFailed, err)
	}

	prefixes := branch.ManagedPrefixes(m.settings.BranchTemplate())
	now := m.now()

	worktrees := make([]model.WorkspaceInfo, 0, len(entries))
	for _, entry := range entries {
		if tracked, ok := m.findTracked(entry.Path); ok {
			worktrees = append(worktrees, tracked)
			continue
		}
		if !branch.IsManaged(entry.Branch, prefixes) {
			continue
		}
		worktrees = append(worktrees, model.WorkspaceInfo{
			ID:        identity.IDFor(entry.Path),
			Name:      filepath.Base(entry.Path),
			Branch:    entry.Branch,
			Path:      entry.Path,
			ProjectID: filepath.Base(projectPath),
			Status:    model.StatusActive,
			CreatedAt: model.Timestamp(now),
		})
	}
	return worktrees, nil
}

// Adopt registers every managed workspace of projectPath that the registry
// does not know yet and returns how many were added. projectID, when set,
// replaces the directory-name project id of the adopted records.
//
// A fresh process starts with an empty registry; Adopt lets it act on
// workspaces created earlier (merge requires a tracked workspace).
func (m *Manager) Adopt(projectPath, projectID string) (int, error) {
	worktrees, err := m.List(projectPath)
	if err != nil {
		return 0, err
	}

	projectID = strings.TrimSpace(projectID)
	added := 0
	for _, wt := range worktrees {
		if _, ok := m.registry.Get(wt.ID); ok {
			continue
		}
		if projectID != "" {
			wt.ProjectID = projectID
		}
		m.registry.Put(wt)
		added++
	}
	return added, nil
}

// Get returns the tracked workspace with the given id.
func (m *Manager) Get(id string) (model.WorkspaceInfo, error) {
	info, ok := m.registry.Get(id)
	if !ok {
		return model.WorkspaceInfo{}, model.NewError(model.CodeNotFound, "Worktree not found")
	}
	return info, nil
}

// All returns every tracked workspace.
func (m *Manager) All() []model.WorkspaceInfo {
	return m.registry.Snapshot()
}

// Status summarizes the uncommitted changes in the workspace at worktreePath.
func (m *Manager) Status(worktreePath string) (model.WorkspaceStatusReport, error) {
	worktreePath = strings.TrimSpace(worktreePath)
	if worktreePath == "" {
		return model.WorkspaceStatusReport{}, model.NewError(model.CodeInvalidArgument, "worktreePath is required")
	}

	out, err := m.git.StatusPorcelain(worktreePath)
	if err != nil {
		return model.WorkspaceStatusReport{}, model.Classify(model.CodeCommandFailed, err)
	}
	return ParseStatus(out), nil
}

// ParseStatus classifies `git status --porcelain` lines.
//
// "??" lines are untracked. Otherwise a two-letter code containing A, M or D
// counts as staged, and one containing M or D counts as unstaged, so a
// modified file appears in both lists.
func ParseStatus(output string) model.WorkspaceStatusReport {
	report := model.WorkspaceStatusReport{
		StagedFiles:    []string{},
		UnstagedFiles:  []string{},
		UntrackedFiles: []string{},
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || len(line) < 4 {
			continue
		}
		code, file := line[:2], line[3:]

		if code == "??" {
			report.UntrackedFiles = append(report.UntrackedFiles, file)
			continue
		}
		if strings.ContainsAny(code, "AMD") {
			report.StagedFiles = append(report.StagedFiles, file)
		}
		if strings.ContainsAny(code, "MD") {
			report.UnstagedFiles = append(report.UnstagedFiles, file)
		}
	}

	report.HasChanges = len(report.StagedFiles) > 0 ||
		len(report.UnstagedFiles) > 0 ||
		len(report.UntrackedFiles) > 0
	return report
}

// findTracked looks an on-disk path up in the registry, first verbatim and
// then canonicalized.
func (m *Manager) findTracked(path string) (model.WorkspaceInfo, bool) {
	if info, ok := m.registry.FindByPath(path); ok {
		return info, true
	}
	if canonical := identity.Canonicalize(path); canonical != path {
		return m.registry.FindByPath(canonical)
	}
	return model.WorkspaceInfo{}, false
}
