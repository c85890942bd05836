package command

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

// TestFailureMessage verifies the stderr > stdout > generic precedence.
func TestFailureMessage(t *testing.T) {
	tests := []struct {
		name string
		out  Output
		want string
	}{
		{"stderr wins", Output{Stdout: "out", Stderr: "  fatal: bad ref\n"}, "fatal: bad ref"},
		{"stdout when stderr blank", Output{Stdout: "conflict\n", Stderr: " \n"}, "conflict"},
		{"generic when both blank", Output{}, "Command failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FailureMessage(tt.out))
		})
	}
}

func TestExecRunner_Success(t *testing.T) {
	skipWithoutShell(t)
	r := NewExecRunner()

	out, err := r.Run("sh", []string{"-c", "printf hello"}, "")
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Stdout)
}

func TestExecRunner_WorkingDirectory(t *testing.T) {
	skipWithoutShell(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), []byte("x"), 0o644))

	out, err := NewExecRunner().Run("ls", nil, dir)
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, "marker")
}

// TestExecRunner_Failure checks that non-zero exits surface the trimmed stderr.
func TestExecRunner_Failure(t *testing.T) {
	skipWithoutShell(t)

	_, err := NewExecRunner().Run("sh", []string{"-c", "echo 'boom happened' >&2; exit 3"}, "")
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, "boom happened", exitErr.Error())
	assert.True(t, strings.HasPrefix(exitErr.CommandLine(), "sh -c "))
	assert.Equal(t, []string{"-c", "echo 'boom happened' >&2; exit 3"}, exitErr.Args)
}

func TestExecRunner_FailureFallsBackToStdout(t *testing.T) {
	skipWithoutShell(t)

	_, err := NewExecRunner().Run("sh", []string{"-c", "echo only-stdout; exit 1"}, "")
	require.Error(t, err)
	assert.Equal(t, "only-stdout", err.Error())
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, err := NewExecRunner().Run("definitely-not-a-real-binary-xyz", nil, "")
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.NotEmpty(t, exitErr.Message)
}
