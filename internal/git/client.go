package git

import (
	"strings"

	"github.com/shinji-kodama/task-worktree/internal/command"
)

// DefaultRemote is the remote assumed when a project does not name one.
const DefaultRemote = "origin"

// FallbackDefaultBranch is used when a remote does not advertise its HEAD.
const FallbackDefaultBranch = "main"

// Client runs git subcommands through a command.Runner.
type Client struct {
	runner command.Runner
}

// NewClient creates a Client backed by runner.
func NewClient(runner command.Runner) *Client {
	return &Client{runner: runner}
}

// Run executes `git <args>` in dir and returns stdout.
func (c *Client) Run(dir string, args ...string) (string, error) {
	out, err := c.runner.Run("git", args, dir)
	if err != nil {
		return "", err
	}
	return out.Stdout, nil
}

// Remotes returns the names of the configured remotes.
func (c *Client) Remotes(dir string) ([]string, error) {
	out, err := c.Run(dir, "remote")
	if err != nil {
		return nil, err
	}
	var remotes []string
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			remotes = append(remotes, name)
		}
	}
	return remotes, nil
}

// DefaultBranch returns the branch the remote advertises as HEAD, parsed from
// the "HEAD branch:" line of `git remote show <remote>`. Any failure yields
// FallbackDefaultBranch.
func (c *Client) DefaultBranch(dir, remote string) string {
	if remote == "" {
		remote = DefaultRemote
	}
	out, err := c.Run(dir, "remote", "show", remote)
	if err != nil {
		return FallbackDefaultBranch
	}
	if branch := ParseHeadBranch(out); branch != "" {
		return branch
	}
	return FallbackDefaultBranch
}

// ParseHeadBranch extracts the value of the first non-empty "HEAD branch:"
// line of `git remote show` output.
func ParseHeadBranch(output string) string {
	const marker = "HEAD branch:"
	for _, line := range strings.Split(output, "\n") {
		idx := strings.Index(line, marker)
		if idx < 0 {
			continue
		}
		if branch := strings.TrimSpace(line[idx+len(marker):]); branch != "" {
			return branch
		}
	}
	return ""
}

// LocalBranchExists checks refs/heads/<name> with `git rev-parse --verify`.
// Only the exit code matters; the printed SHA is ignored.
func (c *Client) LocalBranchExists(dir, name string) bool {
	_, err := c.Run(dir, "rev-parse", "--verify", "refs/heads/"+name)
	return err == nil
}

// Fetch runs `git fetch <remote> <branch>`.
func (c *Client) Fetch(dir, remote, branch string) error {
	_, err := c.Run(dir, "fetch", remote, branch)
	return err
}

// Checkout switches the working tree at dir to branch.
func (c *Client) Checkout(dir, branch string) error {
	_, err := c.Run(dir, "checkout", branch)
	return err
}

// Merge merges branch into the branch checked out at dir.
func (c *Client) Merge(dir, branch string) error {
	_, err := c.Run(dir, "merge", branch)
	return err
}

// DeleteBranch force-deletes a local branch (`git branch -D`).
func (c *Client) DeleteBranch(dir, branch string) error {
	_, err := c.Run(dir, "branch", "-D", branch)
	return err
}

// PushSetUpstream publishes branch to remote and sets it as upstream.
func (c *Client) PushSetUpstream(dir, remote, branch string) error {
	_, err := c.Run(dir, "push", "--set-upstream", remote, branch)
	return err
}

// DeleteRemoteBranch deletes branch on remote.
func (c *Client) DeleteRemoteBranch(dir, remote, branch string) error {
	_, err := c.Run(dir, "push", remote, "--delete", branch)
	return err
}

// StatusPorcelain returns `git status --porcelain --untracked-files=all` output.
func (c *Client) StatusPorcelain(dir string) (string, error) {
	return c.Run(dir, "status", "--porcelain", "--untracked-files=all")
}

// CurrentBranch returns the short name of the branch checked out at dir, or
// "HEAD" when detached.
func (c *Client) CurrentBranch(dir string) (string, error) {
	out, err := c.Run(dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
