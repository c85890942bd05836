package command

import (
	"bytes"
	"errors"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Output holds the captured streams of a finished command.
type Output struct {
	Stdout string
	Stderr string
}

// Runner executes a program with arguments in an optional working directory.
// A non-zero exit is reported as an *ExitError.
type Runner interface {
	Run(name string, args []string, dir string) (Output, error)
}

// ExitError is returned when a command cannot be started or exits non-zero.
//
// Message is the trimmed stderr if non-empty, else the trimmed stdout, else
// "Command failed" (or the start error, when the program could not be launched).
type ExitError struct {
	Name    string
	Args    []string
	Message string
	Output  Output
	Err     error
}

// Error returns the tool's own message so it can be surfaced verbatim.
func (e *ExitError) Error() string {
	return e.Message
}

// Unwrap returns the underlying *exec.ExitError or start error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// CommandLine renders the invocation as a shell-quoted string.
func (e *ExitError) CommandLine() string {
	return shellquote.Join(append([]string{e.Name}, e.Args...)...)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner creates a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes name with args. When dir is non-empty the process runs there.
func (r *ExecRunner) Run(name string, args []string, dir string) (Output, error) {
	slog.Debug("run command", "cmd", shellquote.Join(append([]string{name}, args...)...), "dir", dir)

	// #nosec G204 -- arguments come from the lifecycle, not a shell
	cmd := exec.Command(name, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return out, nil
	}

	exitErr := &ExitError{
		Name:   name,
		Args:   append([]string(nil), args...),
		Output: out,
		Err:    err,
	}

	var runErr *exec.ExitError
	if errors.As(err, &runErr) {
		exitErr.Message = FailureMessage(out)
	} else {
		// The program never ran (missing binary, bad cwd).
		exitErr.Message = err.Error()
	}

	slog.Debug("command failed", "cmd", exitErr.CommandLine(), "error", exitErr.Message)
	return out, exitErr
}

// FailureMessage picks the most useful text from a failed command's output.
func FailureMessage(out Output) string {
	if msg := strings.TrimSpace(out.Stderr); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(out.Stdout); msg != "" {
		return msg
	}
	return "Command failed"
}
