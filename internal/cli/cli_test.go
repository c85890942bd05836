package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/task-worktree/internal/config"
	"github.com/shinji-kodama/task-worktree/internal/model"
)

// cliEnv points every command at throwaway config, database and settings
// files.
type cliEnv struct {
	dir      string
	dsn      string
	settings string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigPath, filepath.Join(dir, "config.toml"))
	t.Setenv(config.EnvDatabaseDriver, "")
	t.Setenv(config.EnvDatabaseDSN, "")
	t.Setenv(config.EnvSettingsPath, "")
	return cliEnv{
		dir:      dir,
		dsn:      filepath.Join(dir, "data", "projects.db"),
		settings: filepath.Join(dir, "settings.json"),
	}
}

// run executes the CLI and returns stdout. stdin feeds prompts.
func (e cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--db-dsn", e.dsn, "--settings", e.settings}, args...))

	err := root.ExecuteContext(context.Background())
	t.Cleanup(func() { jsonOutput, outputFormat, verbose = false, formatText, false })
	return stdout.String(), err
}

func (e cliEnv) runJSON(t *testing.T, args ...string) model.Result {
	t.Helper()
	out, err := e.run(t, "", append([]string{"--json"}, args...)...)
	require.NoError(t, err, out)

	var res model.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	require.True(t, res.Success, out)
	return res
}

// setupProject creates <tmp>/app with one commit on main, pushed to a bare
// origin whose HEAD is main.
func setupProject(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	base := t.TempDir()
	origin := filepath.Join(base, "origin.git")
	project := filepath.Join(base, "app")
	require.NoError(t, os.MkdirAll(project, 0o755))

	gitIn := func(dir string, args ...string) {
		t.Helper()
		out, err := exec.Command("git", append([]string{"-C", dir}, args...)...).CombinedOutput()
		require.NoError(t, err, "git %v failed: %s", args, string(out))
	}

	gitIn(base, "init", "--bare", origin)
	gitIn(origin, "symbolic-ref", "HEAD", "refs/heads/main")
	gitIn(project, "init")
	gitIn(project, "symbolic-ref", "HEAD", "refs/heads/main")
	gitIn(project, "config", "user.email", "test@example.com")
	gitIn(project, "config", "user.name", "Test User")
	gitIn(project, "config", "commit.gpgsign", "false")
	require.NoError(t, os.WriteFile(filepath.Join(project, "README.md"), []byte("# app\n"), 0o644))
	gitIn(project, "add", ".")
	gitIn(project, "commit", "-m", "initial commit")
	gitIn(project, "remote", "add", "origin", origin)
	gitIn(project, "push", "-u", "origin", "main")
	return project
}

func TestCLI_Lifecycle(t *testing.T) {
	project := setupProject(t)
	env := newCLIEnv(t)

	// Register the project with an explicit base ref.
	res := env.runJSON(t, "project", "add", "--path", project, "--base-ref", "origin/main")
	require.NotNil(t, res.Project)
	assert.Equal(t, "app", res.Project.ID)
	assert.Equal(t, "origin/main", res.Project.BaseRef)

	// Create a workspace.
	res = env.runJSON(t, "create", "-C", project, "Fix Login Bug")
	require.NotNil(t, res.Worktree)
	created := *res.Worktree
	assert.True(t, strings.HasPrefix(created.Branch, "agent/fix-login-bug-"), created.Branch)
	assert.Equal(t, "app", created.ProjectID)
	assert.DirExists(t, created.Path)

	// A later invocation rediscovers it.
	res = env.runJSON(t, "list", "-C", project)
	require.Len(t, res.Worktrees, 1)
	assert.Equal(t, created.ID, res.Worktrees[0].ID)
	assert.Equal(t, created.Branch, res.Worktrees[0].Branch)

	res = env.runJSON(t, "get", "-C", project, created.ID)
	require.NotNil(t, res.Worktree)
	assert.Equal(t, created.Path, res.Worktree.Path)

	// Status reports an untracked file.
	require.NoError(t, os.WriteFile(filepath.Join(created.Path, "notes.txt"), []byte("x"), 0o644))
	res = env.runJSON(t, "status", created.Path)
	require.NotNil(t, res.Status)
	assert.True(t, res.Status.HasChanges)
	assert.Equal(t, []string{"notes.txt"}, res.Status.UntrackedFiles)

	// Remove it.
	env.runJSON(t, "remove", "-C", project, "--force", created.ID)
	assert.NoDirExists(t, created.Path)

	res = env.runJSON(t, "list", "-C", project)
	assert.Empty(t, res.Worktrees)
}

func TestCLI_RemoveDeclined(t *testing.T) {
	project := setupProject(t)
	env := newCLIEnv(t)
	env.runJSON(t, "project", "add", "--path", project)

	res := env.runJSON(t, "create", "-C", project, "Keep Me")
	require.NotNil(t, res.Worktree)

	out, err := env.run(t, "n\n", "remove", "-C", project, res.Worktree.ID)
	require.Error(t, err)
	assert.Equal(t, 10, ExitCode(err))
	assert.Contains(t, out, "Continue? [y/N]")
	assert.DirExists(t, res.Worktree.Path)
}

func TestCLI_RemoveTwiceSucceeds(t *testing.T) {
	project := setupProject(t)
	env := newCLIEnv(t)
	env.runJSON(t, "project", "add", "--path", project)

	res := env.runJSON(t, "create", "-C", project, "Short Lived")
	require.NotNil(t, res.Worktree)
	id := res.Worktree.ID

	env.runJSON(t, "remove", "-C", project, "--force", id)
	env.runJSON(t, "remove", "-C", project, "--force", id)
	assert.NoDirExists(t, res.Worktree.Path)

	out, err := env.run(t, "", "--json", "list", "-C", project)
	require.NoError(t, err)
	assert.Contains(t, out, `"worktrees": []`)
}

func TestCLI_UnknownOutputFormatChangesNothing(t *testing.T) {
	project := setupProject(t)
	env := newCLIEnv(t)
	env.runJSON(t, "project", "add", "--path", project)

	res := env.runJSON(t, "create", "-C", project, "Keep Me")
	require.NotNil(t, res.Worktree)

	// No prompt is skipped and nothing is deleted.
	_, err := env.run(t, "n\n", "-o", "xml", "remove", "-C", project, res.Worktree.ID)
	require.Error(t, err)
	assert.Equal(t, int(model.CodeInvalidArgument), ExitCode(err))
	assert.DirExists(t, res.Worktree.Path)

	// No workspace is created behind a failed command.
	_, err = env.run(t, "", "-o", "xml", "create", "-C", project, "Never Made")
	require.Error(t, err)
	assert.Equal(t, int(model.CodeInvalidArgument), ExitCode(err))

	res = env.runJSON(t, "list", "-C", project)
	assert.Len(t, res.Worktrees, 1)
}

func TestCLI_FetchBaseRefFallsBack(t *testing.T) {
	project := setupProject(t)
	env := newCLIEnv(t)
	env.runJSON(t, "project", "add", "--path", project, "--base-ref", "origin/gone")

	res := env.runJSON(t, "fetch-base-ref", "-C", project)
	require.NotNil(t, res.BaseRef)
	assert.Equal(t, "origin/main", res.BaseRef.FullRef)

	res = env.runJSON(t, "project", "show", "app")
	require.NotNil(t, res.Project)
	assert.Equal(t, "origin/main", res.Project.BaseRef, "fallback is saved")
}

func TestCLI_GetUnknownWorkspace(t *testing.T) {
	project := setupProject(t)
	env := newCLIEnv(t)

	_, err := env.run(t, "", "get", "-C", project, "wt-000000000000")
	require.Error(t, err)
	assert.Equal(t, int(model.CodeNotFound), ExitCode(err))
}

func TestCLI_Projects(t *testing.T) {
	env := newCLIEnv(t)
	dir := t.TempDir()

	env.runJSON(t, "project", "add", "web", "--path", dir, "--remote", "upstream", "--branch", "release")

	// Flags that are not given keep their stored value.
	res := env.runJSON(t, "project", "add", "web", "--name", "Web App")
	require.NotNil(t, res.Project)
	assert.Equal(t, "Web App", res.Project.Name)
	assert.Equal(t, "upstream", res.Project.GitRemote)
	assert.Equal(t, "release", res.Project.GitBranch)
	assert.Equal(t, dir, res.Project.Path)

	res = env.runJSON(t, "project", "set-base-ref", "web", "upstream/release")
	assert.Equal(t, "upstream/release", res.Project.BaseRef)

	res = env.runJSON(t, "project", "list")
	require.Len(t, res.Projects, 1)

	env.runJSON(t, "project", "remove", "web")
	_, err := env.run(t, "", "project", "show", "web")
	assert.Equal(t, int(model.CodeNotFound), ExitCode(err))
}

func TestCLI_Settings(t *testing.T) {
	env := newCLIEnv(t)

	res := env.runJSON(t, "settings", "show")
	require.NotNil(t, res.Settings)
	assert.Equal(t, "agent/{slug}-{timestamp}", res.Settings.BranchTemplate)
	assert.True(t, res.Settings.PushOnCreate)

	res = env.runJSON(t, "settings", "set", "--branch-template", "task/{slug}", "--push-on-create=false")
	assert.Equal(t, "task/{slug}", res.Settings.BranchTemplate)
	assert.False(t, res.Settings.PushOnCreate)

	data, err := os.ReadFile(env.settings)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"branchTemplate": "task/{slug}"`)

	_, err = env.run(t, "", "settings", "set")
	assert.Equal(t, int(model.CodeInvalidArgument), ExitCode(err))
}

func TestCLI_YAMLOutput(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "", "-o", "yaml", "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "success: true")
	assert.Contains(t, out, "pushOnCreate: true")
}
