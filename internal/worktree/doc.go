// Package worktree implements the workspace lifecycle for agent tasks.
//
// A workspace is a git worktree checked out next to a project repository under
// <project>/../worktrees/, on a branch rendered from the user's branch
// template and forked from the project's resolved base ref. The Manager
// creates, lists, inspects, removes and merges workspaces.
//
// All external effects go through a command.Runner. In-process tracking lives
// in a registry.Registry owned by the caller; List reconciles that registry
// with what git reports on disk, so workspaces created by an earlier process
// are still discovered (by branch prefix) after a restart.
package worktree
