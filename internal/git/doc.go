// Package git wraps the git CLI operations used by task-worktree.
//
// Every invocation goes through a command.Runner, so the same Client drives
// real repositories in production and a scripted fake in tests.
//
// Design decisions:
//   - We shell out to `git` rather than using a Go Git library because
//     worktree, remote-show and push semantics must match the user's own git
//     installation exactly (credentials helpers, hooks, config).
//   - Methods return the runner's *command.ExitError unchanged. Callers
//     decide which failures are fatal and which are best-effort.
package git
