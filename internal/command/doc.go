// Package command runs the external version-control and forge CLIs.
//
// It is the only I/O boundary between task-worktree and the tools it
// drives. The Runner interface is intentionally narrow so the lifecycle can
// be exercised with a scripted fake in tests.
//
// Commands run synchronously. There is no timeout or cancellation: a tool
// that blocks (for example on a credential prompt) blocks the caller.
package command
