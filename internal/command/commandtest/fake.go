// Package commandtest provides a scripted command.Runner for tests.
package commandtest

import (
	"strings"
	"sync"

	"github.com/shinji-kodama/task-worktree/internal/command"
)

// Call records one invocation seen by the Fake.
type Call struct {
	Name string
	Args []string
	Dir  string
}

// Line renders the call as "name arg1 arg2 ...".
func (c Call) Line() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Handler produces the result for a matched call.
type Handler func(c Call) (command.Output, error)

type rule struct {
	prefix  string
	exact   bool
	handler Handler
}

// Fake is a command.Runner whose responses are scripted by command line.
// Unmatched commands succeed with empty output. It is safe for concurrent use.
type Fake struct {
	mu    sync.Mutex
	rules []rule
	calls []Call
}

// NewFake creates an empty Fake.
func NewFake() *Fake {
	return &Fake{}
}

// On registers handler for calls whose line equals line exactly.
// Later registrations take precedence over earlier ones.
func (f *Fake) On(line string, handler Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{prefix: line, exact: true, handler: handler})
}

// OnPrefix registers handler for calls whose line starts with prefix.
func (f *Fake) OnPrefix(prefix string, handler Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{prefix: prefix, handler: handler})
}

// Stdout scripts a successful call that prints stdout.
func (f *Fake) Stdout(line, stdout string) {
	f.On(line, func(Call) (command.Output, error) {
		return command.Output{Stdout: stdout}, nil
	})
}

// Fail scripts a failing call whose stderr is message.
func (f *Fake) Fail(line, message string) {
	f.On(line, func(c Call) (command.Output, error) {
		return Failure(c, message)
	})
}

// Failure builds the error a real runner returns for a non-zero exit.
func Failure(c Call, message string) (command.Output, error) {
	out := command.Output{Stderr: message}
	return out, &command.ExitError{
		Name:    c.Name,
		Args:    c.Args,
		Message: command.FailureMessage(out),
		Output:  out,
	}
}

// Run implements command.Runner.
func (f *Fake) Run(name string, args []string, dir string) (command.Output, error) {
	c := Call{Name: name, Args: append([]string(nil), args...), Dir: dir}
	line := c.Line()

	f.mu.Lock()
	f.calls = append(f.calls, c)
	var handler Handler
	for i := len(f.rules) - 1; i >= 0; i-- {
		r := f.rules[i]
		if (r.exact && line == r.prefix) || (!r.exact && strings.HasPrefix(line, r.prefix)) {
			handler = r.handler
			break
		}
	}
	f.mu.Unlock()

	if handler == nil {
		return command.Output{}, nil
	}
	return handler(c)
}

// Calls returns a copy of every recorded call in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Lines returns the rendered line of every recorded call.
func (f *Fake) Lines() []string {
	calls := f.Calls()
	lines := make([]string, 0, len(calls))
	for _, c := range calls {
		lines = append(lines, c.Line())
	}
	return lines
}

// Count returns how many recorded calls rendered exactly as line.
func (f *Fake) Count(line string) int {
	n := 0
	for _, l := range f.Lines() {
		if l == line {
			n++
		}
	}
	return n
}

// CountPrefix returns how many recorded calls start with prefix.
func (f *Fake) CountPrefix(prefix string) int {
	n := 0
	for _, l := range f.Lines() {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls but keeps the script.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
