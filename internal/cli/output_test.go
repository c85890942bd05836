package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/task-worktree/internal/model"
	"github.com/shinji-kodama/task-worktree/internal/worktree"
)

func sampleWorkspace() model.WorkspaceInfo {
	return model.WorkspaceInfo{
		ID:        "wt-3f2a1bc09d4e",
		Name:      "Fix Bug",
		Branch:    "agent/fix-bug-1700000000000",
		Path:      "/src/worktrees/fix-bug-1700000000000",
		ProjectID: "app",
		Status:    model.StatusActive,
		CreatedAt: "2023-11-14T22:13:20Z",
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "plain error", err: errors.New("boom"), want: 1},
		{name: "not found", err: model.NewError(model.CodeNotFound, "Worktree not found"), want: 9},
		{name: "wrapped code", err: fmt.Errorf("outer: %w", model.NewError(model.CodePathConflict, "exists")), want: 3},
		{name: "cancelled", err: model.NewError(model.CodeCancelled, "operation cancelled by user"), want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestRender(t *testing.T) {
	info := sampleWorkspace()
	res := model.Result{Success: true, Worktree: &info}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, formatJSON, res, nil))
		assert.Contains(t, buf.String(), `"success": true`)
		assert.Contains(t, buf.String(), `"projectId": "app"`)
		assert.NotContains(t, buf.String(), "lastActivity")
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, formatYAML, res, nil))
		assert.Contains(t, buf.String(), "success: true")
		assert.Contains(t, buf.String(), "branch: agent/fix-bug-1700000000000")
	})

	t.Run("text calls the callback", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, formatText, res, func(w io.Writer) {
			printWorkspaceText(w, "Workspace", info)
		}))
		assert.Contains(t, buf.String(), "ID:        wt-3f2a1bc09d4e")
	})

	t.Run("text without callback prints nothing", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, formatText, res, nil))
		assert.Empty(t, buf.String())
	})

	t.Run("json keeps an empty list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, formatJSON, model.Result{Success: true, Worktrees: []model.WorkspaceInfo{}}, nil))
		assert.Contains(t, buf.String(), `"worktrees": []`)
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		err := render(&buf, "xml", res, nil)
		assert.Equal(t, model.CodeInvalidArgument, model.CodeOf(err))
	})
}

func TestValidateFormat(t *testing.T) {
	for _, format := range []string{formatText, formatJSON, formatYAML} {
		assert.NoError(t, validateFormat(format), format)
	}
	assert.Equal(t, model.CodeInvalidArgument, model.CodeOf(validateFormat("xml")))
}

func TestPrintWorkspaceTable(t *testing.T) {
	var empty bytes.Buffer
	printWorkspaceTable(&empty, nil)
	assert.Equal(t, "No workspaces found.\n", empty.String())

	var buf bytes.Buffer
	printWorkspaceTable(&buf, []model.WorkspaceInfo{sampleWorkspace()})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "agent/fix-bug-1700000000000")
}

func TestPrintStatusText(t *testing.T) {
	var clean bytes.Buffer
	printStatusText(&clean, model.WorkspaceStatusReport{})
	assert.Contains(t, clean.String(), "Clean")

	var buf bytes.Buffer
	printStatusText(&buf, model.WorkspaceStatusReport{
		HasChanges:     true,
		StagedFiles:    []string{"a.go"},
		UntrackedFiles: []string{"b.go", "c.go"},
	})
	assert.Contains(t, buf.String(), "Staged (1):\n  a.go\n")
	assert.Contains(t, buf.String(), "Untracked (2):")
	assert.NotContains(t, buf.String(), "Unstaged")
}

func TestReportError(t *testing.T) {
	t.Cleanup(func() { jsonOutput, outputFormat = false, formatText })

	t.Run("text goes to stderr", func(t *testing.T) {
		jsonOutput, outputFormat = false, formatText
		var stdout, stderr bytes.Buffer
		reportError(&stdout, &stderr, model.NewError(model.CodeNotFound, "Worktree not found"))
		assert.Empty(t, stdout.String())
		assert.Equal(t, "Error: Worktree not found\n", stderr.String())
	})

	t.Run("json writes a failure envelope", func(t *testing.T) {
		jsonOutput = true
		var stdout, stderr bytes.Buffer
		reportError(&stdout, &stderr, model.NewError(model.CodeNotFound, "Worktree not found"))
		assert.Contains(t, stdout.String(), `"success": false`)
		assert.Contains(t, stdout.String(), `"error": "Worktree not found"`)
		assert.Empty(t, stderr.String())
	})
}

func TestPromptConfirmation(t *testing.T) {
	target := worktree.RemoveRequest{ID: "wt-3f2a1bc09d4e", Path: "/src/worktrees/x", Branch: "agent/x"}

	tests := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "YES\r\n", want: true},
		{input: "n\n", want: false},
		{input: "\n", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got, err := promptConfirmation(strings.NewReader(tt.input), &out, target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "/src/worktrees/x")
			assert.Contains(t, out.String(), "agent/x")
		})
	}
}
