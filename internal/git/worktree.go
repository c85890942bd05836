package git

import (
	"os"
	"path/filepath"
	"strings"
)

// WorktreeEntry is one line of `git worktree list` output that names a branch.
//
// Example line:
//
//	/home/me/worktrees/fix-bug-1700000000000  3f2a1bc [agent/fix-bug-1700000000000]
type WorktreeEntry struct {
	// Path is the absolute worktree path as printed by git.
	Path string

	// Head is the abbreviated commit SHA, when present.
	Head string

	// Branch is the bracketed branch name.
	Branch string
}

// AddWorktree creates a worktree at path on a new branch forked from base
// (`git worktree add -b <branch> <path> <base>`).
func (c *Client) AddWorktree(dir, branch, path, base string) error {
	_, err := c.Run(dir, "worktree", "add", "-b", branch, path, base)
	return err
}

// AddWorktreeForBranch checks an existing branch out into a new worktree.
func (c *Client) AddWorktreeForBranch(dir, path, branch string) error {
	_, err := c.Run(dir, "worktree", "add", path, branch)
	return err
}

// ListWorktrees runs `git worktree list` and returns the entries that carry a
// bracketed branch name. Bare and detached entries are skipped.
func (c *Client) ListWorktrees(dir string) ([]WorktreeEntry, error) {
	out, err := c.Run(dir, "worktree", "list")
	if err != nil {
		return nil, err
	}
	return ParseWorktreeList(out), nil
}

// RemoveWorktree runs `git worktree remove --force <path>`. The force flag
// lets git remove worktrees with untracked or modified files.
func (c *Client) RemoveWorktree(dir, path string) error {
	_, err := c.Run(dir, "worktree", "remove", "--force", path)
	return err
}

// PruneWorktrees drops administrative data for worktrees whose directories
// no longer exist.
func (c *Client) PruneWorktrees(dir string) error {
	_, err := c.Run(dir, "worktree", "prune", "--verbose")
	return err
}

// ParseWorktreeList parses human-readable `git worktree list` output.
//
// Only lines containing both "[" and "]" are returned. The branch is taken
// from the last "[", which git forbids in ref names, so a "[" inside the path
// is never mistaken for it. The path is everything before the commit column,
// so paths containing spaces survive.
func ParseWorktreeList(output string) []WorktreeEntry {
	var entries []WorktreeEntry

	for _, line := range strings.Split(output, "\n") {
		open := strings.LastIndexByte(line, '[')
		if open < 0 {
			continue
		}
		closeIdx := strings.IndexByte(line[open:], ']')
		if closeIdx < 0 {
			continue
		}
		branch := line[open+1 : open+closeIdx]

		head := strings.TrimSpace(line[:open])
		if head == "" {
			continue
		}

		entry := WorktreeEntry{Branch: branch, Path: head}
		// The last field before the bracket is the abbreviated SHA.
		if sp := strings.LastIndexAny(head, " \t"); sp >= 0 {
			entry.Path = strings.TrimSpace(head[:sp])
			entry.Head = strings.TrimSpace(head[sp+1:])
		}
		if entry.Path == "" {
			continue
		}
		entries = append(entries, entry)
	}

	return entries
}

// ResolveGitDir returns the git directory of the working tree at path.
//
// In a linked worktree ".git" is a FILE containing "gitdir: <dir>", which
// points at <main>/.git/worktrees/<name>. In a main checkout it is the
// directory itself. Relative gitdir values are resolved against path.
func ResolveGitDir(path string) string {
	gitPath := filepath.Join(path, ".git")

	// Lstat so a symlinked .git is not mistaken for a directory.
	info, err := os.Lstat(gitPath)
	if err != nil || info.IsDir() {
		return gitPath
	}

	content, err := os.ReadFile(gitPath)
	if err != nil {
		return gitPath
	}

	resolved := gitPath
	for _, line := range strings.Split(string(content), "\n") {
		rest, ok := strings.CutPrefix(line, "gitdir:")
		if !ok {
			continue
		}
		dir := strings.TrimSpace(rest)
		if dir == "" {
			continue
		}
		if filepath.IsAbs(dir) {
			resolved = dir
		} else {
			resolved = filepath.Join(path, dir)
		}
	}
	return resolved
}

// ResolveCommonDir returns the repository directory shared by all worktrees
// of the working tree at path. A linked worktree's git directory names it in
// a "commondir" file; otherwise the git directory itself is returned.
//
// Repository-wide files such as info/exclude live here, not in the
// per-worktree git directory.
func ResolveCommonDir(path string) string {
	gitDir := ResolveGitDir(path)

	content, err := os.ReadFile(filepath.Join(gitDir, "commondir"))
	if err != nil {
		return gitDir
	}
	common := strings.TrimSpace(string(content))
	if common == "" {
		return gitDir
	}
	if filepath.IsAbs(common) {
		return filepath.Clean(common)
	}
	return filepath.Join(gitDir, common)
}
