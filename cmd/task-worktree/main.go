// Package main is the entry point for the task-worktree CLI.
//
// The binary provisions and tears down git worktrees for agent tasks. All
// functionality lives in the internal/cli package.
//
// Build-time variables (version, commit, date) are injected via ldflags.
package main

import (
	"github.com/shinji-kodama/task-worktree/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	cli.Execute(cli.NewRootCommand())
}
