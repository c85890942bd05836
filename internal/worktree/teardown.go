package worktree

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/shinji-kodama/task-worktree/internal/git"
	"github.com/shinji-kodama/task-worktree/internal/model"
)

// RemoveRequest identifies a workspace to tear down. Path and Branch are used
// only when ID is not tracked.
type RemoveRequest struct {
	ProjectPath string
	ID          string
	Path        string
	Branch      string
}

// Remove destroys a workspace: its git worktree, its directory, its local
// branch and (best effort) the same branch on origin, then forgets it.
//
// Only failing to delete the directory is fatal. Repeating a Remove for a
// workspace that is already gone succeeds.
func (m *Manager) Remove(req RemoveRequest) error {
	projectPath := strings.TrimSpace(req.ProjectPath)
	if projectPath == "" {
		return model.NewError(model.CodeInvalidArgument, "projectPath is required")
	}

	tracked, isTracked := m.registry.Get(req.ID)
	path, branchName := strings.TrimSpace(req.Path), strings.TrimSpace(req.Branch)
	if isTracked {
		path, branchName = tracked.Path, tracked.Branch
	}
	if path == "" {
		return model.NewError(model.CodeInvalidArgument, "Worktree path not provided")
	}

	// Step 1: Detach the worktree from the repository. A stale or already
	// removed worktree makes git complain; the directory delete below decides.
	if err := m.git.RemoveWorktree(projectPath, path); err != nil {
		slog.Debug("git worktree remove failed", "path", path, "error", err)
	}
	if err := m.git.PruneWorktrees(projectPath); err != nil {
		slog.Debug("git worktree prune failed", "error", err)
	}

	// Step 2: Delete whatever is left on disk.
	if err := m.deleteDirectory(path); err != nil {
		return err
	}

	// Step 3: Delete the branch locally and on origin.
	if branchName != "" {
		m.deleteBranch(projectPath, branchName)
	}

	// Step 4: Forget it.
	if isTracked {
		m.registry.Delete(tracked.ID)
	}
	return nil
}

// Merge merges a tracked workspace's branch into the project's default
// branch and then removes the workspace.
//
// When checkout or merge fails the workspace and its registry entry are left
// untouched so the conflict can be resolved by hand.
func (m *Manager) Merge(projectPath, id string) error {
	projectPath = strings.TrimSpace(projectPath)
	if projectPath == "" {
		return model.NewError(model.CodeInvalidArgument, "projectPath is required")
	}

	tracked, ok := m.registry.Get(id)
	if !ok {
		return model.NewError(model.CodeNotFound, "Worktree not found")
	}

	defaultBranch := m.git.DefaultBranch(projectPath, git.DefaultRemote)
	if err := m.git.Checkout(projectPath, defaultBranch); err != nil {
		return model.Classify(model.CodeCommandFailed, err)
	}
	if err := m.git.Merge(projectPath, tracked.Branch); err != nil {
		return model.Classify(model.CodeCommandFailed, err)
	}

	// The merge has landed; cleanup problems do not undo it.
	if err := m.Remove(RemoveRequest{
		ProjectPath: projectPath,
		ID:          tracked.ID,
		Path:        tracked.Path,
		Branch:      tracked.Branch,
	}); err != nil {
		slog.Warn("merged workspace could not be removed", "id", tracked.ID, "path", tracked.Path, "error", err)
	}
	return nil
}

// deleteDirectory removes path recursively. On a permission error write
// access is granted recursively and the delete is retried once.
func (m *Manager) deleteDirectory(path string) error {
	if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	err := m.removeAll(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrPermission) {
		return model.WrapError(model.CodeRemovalFailed, "Failed to remove "+path, err)
	}

	slog.Debug("granting write permission before retrying removal", "path", path)
	if chmodErr := m.grantWrite(path); chmodErr != nil {
		slog.Debug("permission escalation failed", "path", path, "error", chmodErr)
	}
	if err := m.removeAll(path); err != nil {
		return model.WrapError(model.CodeRemovalFailed, "Failed to remove "+path, err)
	}
	return nil
}

// grantWrite makes everything under path writable by the owner.
func (m *Manager) grantWrite(path string) error {
	if m.goos == "windows" {
		_, err := m.runner.Run("cmd", []string{"/C", "attrib", "-R", "/S", "/D", path + `\*`}, "")
		return err
	}
	_, err := m.runner.Run("chmod", []string{"-R", "u+w", path}, "")
	return err
}

// deleteBranch force-deletes branchName locally, pruning and retrying once
// when git still thinks it is checked out somewhere, then deletes it on
// origin. Failures are logged and otherwise ignored.
func (m *Manager) deleteBranch(projectPath, branchName string) {
	if err := m.git.DeleteBranch(projectPath, branchName); err != nil {
		if strings.Contains(err.Error(), "checked out at") {
			_ = m.git.PruneWorktrees(projectPath)
			err = m.git.DeleteBranch(projectPath, branchName)
		}
		if err != nil {
			slog.Debug("failed to delete local branch", "branch", branchName, "error", err)
		}
	}

	remoteBranch := strings.TrimPrefix(branchName, git.DefaultRemote+"/")
	if err := m.git.DeleteRemoteBranch(projectPath, git.DefaultRemote, remoteBranch); err != nil {
		slog.Warn("failed to delete remote branch", "remote", git.DefaultRemote, "branch", remoteBranch, "error", err)
	}
}
