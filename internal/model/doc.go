// Package model defines the domain types and value objects for the
// task-worktree tool.
//
// This package contains plain data structures with no external dependencies.
// WorkspaceInfo records live only in the in-process registry; they are
// either created by the lifecycle or re-synthesized from `git worktree list`
// output, so there are no persistent workspace state files.
//
// The package also defines error codes (ErrorCode) and a custom error type
// (Error) that carries a code for mapping onto process exit statuses and the
// structured Result envelope.
package model
