package worktree

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/shinji-kodama/task-worktree/internal/baseref"
	"github.com/shinji-kodama/task-worktree/internal/branch"
	"github.com/shinji-kodama/task-worktree/internal/command"
	"github.com/shinji-kodama/task-worktree/internal/git"
	"github.com/shinji-kodama/task-worktree/internal/identity"
	"github.com/shinji-kodama/task-worktree/internal/model"
	"github.com/shinji-kodama/task-worktree/internal/registry"
)

// WorktreesDirName is the directory, beside the project, that holds workspaces.
const WorktreesDirName = "worktrees"

// ProjectStore is the project database as seen by the lifecycle.
type ProjectStore interface {
	ProjectSettings(ctx context.Context, projectID string) (model.ProjectSettingsRow, error)
	UpdateProjectBaseRef(ctx context.Context, projectID, fullRef string) error
}

// Settings supplies the user's repository preferences.
type Settings interface {
	BranchTemplate() string
	PushOnCreate() bool
}

// Manager runs the workspace lifecycle.
//
// A Manager is safe for concurrent use. The registry lock is never held
// across an external command.
type Manager struct {
	runner   command.Runner
	git      *git.Client
	resolver *baseref.Resolver
	store    ProjectStore
	settings Settings
	registry *registry.Registry

	// Overridable in tests.
	now       func() time.Time
	removeAll func(path string) error
	goos      string
}

// NewManager wires a Manager. reg is shared with every other consumer of the
// same process-scoped workspace table.
func NewManager(runner command.Runner, store ProjectStore, settings Settings, reg *registry.Registry) *Manager {
	client := git.NewClient(runner)
	return &Manager{
		runner:    runner,
		git:       client,
		resolver:  baseref.NewResolver(client, store),
		store:     store,
		settings:  settings,
		registry:  reg,
		now:       time.Now,
		removeAll: os.RemoveAll,
		goos:      runtime.GOOS,
	}
}

// CreateRequest describes a new task workspace.
type CreateRequest struct {
	ProjectPath string
	TaskName    string
	ProjectID   string

	// AutoApprove writes agent settings that skip permission prompts.
	AutoApprove bool
}

// Create provisions a workspace for a task on a fresh branch forked from the
// project's base ref.
//
// Nothing is created on disk until the base ref has been resolved and
// fetched, so a fetch failure leaves no partial workspace behind.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (model.WorkspaceInfo, error) {
	projectPath := strings.TrimSpace(req.ProjectPath)
	taskName := strings.TrimSpace(req.TaskName)
	projectID := strings.TrimSpace(req.ProjectID)
	if projectPath == "" || taskName == "" || projectID == "" {
		return model.WorkspaceInfo{}, model.NewError(model.CodeInvalidArgument, "Missing required parameters")
	}

	// Step 1: Name the branch and the directory.
	now := m.now()
	slug := branch.Slugify(taskName)
	timestamp := strconv.FormatInt(now.UnixMilli(), 10)
	branchName := branch.Render(m.settings.BranchTemplate(), slug, timestamp)

	worktreePath, err := m.workspacePath(projectPath, slug+"-"+timestamp)
	if err != nil {
		return model.WorkspaceInfo{}, err
	}
	if err := ensureAbsent(worktreePath); err != nil {
		return model.WorkspaceInfo{}, err
	}

	// Step 2: Resolve and fetch the base ref.
	row, err := m.store.ProjectSettings(ctx, projectID)
	if err != nil {
		return model.WorkspaceInfo{}, err
	}
	base, err := m.resolver.Resolve(projectPath, row)
	if err != nil {
		return model.WorkspaceInfo{}, err
	}
	fetched, err := m.resolver.FetchWithFallback(ctx, projectPath, projectID, base)
	if err != nil {
		return model.WorkspaceInfo{}, err
	}

	// Step 3: Create the worktree.
	if err := os.MkdirAll(filepath.Dir(worktreePath), 0o755); err != nil {
		return model.WorkspaceInfo{}, model.WrapError(model.CodeGeneral, "Failed to create worktrees directory", err)
	}
	slog.Debug("creating worktree", "branch", branchName, "path", worktreePath, "base", fetched.FullRef)
	if err := m.git.AddWorktree(projectPath, branchName, worktreePath, fetched.FullRef); err != nil {
		return model.WorkspaceInfo{}, model.Classify(model.CodeCommandFailed, err)
	}
	if err := ensureCreated(worktreePath); err != nil {
		return model.WorkspaceInfo{}, err
	}

	// Step 4: Workspace hygiene.
	ensureLogExcluded(worktreePath)
	if req.AutoApprove {
		ensureAgentAutoApprove(worktreePath)
	}

	// Step 5: Track it.
	info := newWorkspaceInfo(worktreePath, taskName, branchName, projectID, now)
	m.registry.Put(info)

	// Step 6: Publish the branch. The workspace is already usable locally.
	if m.settings.PushOnCreate() {
		if err := m.git.PushSetUpstream(info.Path, git.DefaultRemote, branchName); err != nil {
			slog.Warn("failed to push new branch", "branch", branchName, "error", err)
		}
	}

	return info, nil
}

// CreateFromBranchRequest describes a workspace for an existing branch.
type CreateFromBranchRequest struct {
	ProjectPath string
	BranchName  string
	ProjectID   string

	// TaskName labels the workspace. Defaults to BranchName with "/" → "-".
	TaskName string

	// WorktreePath overrides the default location under <project>/../worktrees.
	WorktreePath string
}

// CreateFromBranch checks an existing branch out into a new workspace.
// No base ref is fetched and no branch is created.
func (m *Manager) CreateFromBranch(req CreateFromBranchRequest) (model.WorkspaceInfo, error) {
	projectPath := strings.TrimSpace(req.ProjectPath)
	branchName := strings.TrimSpace(req.BranchName)
	projectID := strings.TrimSpace(req.ProjectID)
	if projectPath == "" || branchName == "" || projectID == "" {
		return model.WorkspaceInfo{}, model.NewError(model.CodeInvalidArgument, "Missing required parameters")
	}

	name := strings.TrimSpace(req.TaskName)
	if name == "" {
		name = strings.ReplaceAll(branchName, "/", "-")
	}

	now := m.now()
	worktreePath := strings.TrimSpace(req.WorktreePath)
	if worktreePath == "" {
		var err error
		worktreePath, err = m.workspacePath(projectPath, fmt.Sprintf("%s-%d", branch.Slugify(name), now.UnixMilli()))
		if err != nil {
			return model.WorkspaceInfo{}, err
		}
	}
	if err := ensureAbsent(worktreePath); err != nil {
		return model.WorkspaceInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(worktreePath), 0o755); err != nil {
		return model.WorkspaceInfo{}, model.WrapError(model.CodeGeneral, "Failed to create worktrees directory", err)
	}

	if err := m.git.AddWorktreeForBranch(projectPath, worktreePath, branchName); err != nil {
		return model.WorkspaceInfo{}, model.WrapError(model.CodeCommandFailed,
			"Failed to create worktree for branch "+branchName, err)
	}
	if err := ensureCreated(worktreePath); err != nil {
		return model.WorkspaceInfo{}, err
	}

	ensureLogExcluded(worktreePath)

	info := newWorkspaceInfo(worktreePath, name, branchName, projectID, now)
	m.registry.Put(info)
	return info, nil
}

// FetchBaseRef resolves the project's base ref and fetches it, falling back
// to origin's default branch when the configured ref is gone.
func (m *Manager) FetchBaseRef(ctx context.Context, projectID, projectPath string) (model.BaseRefInfo, error) {
	projectID = strings.TrimSpace(projectID)
	projectPath = strings.TrimSpace(projectPath)
	if projectID == "" || projectPath == "" {
		return model.BaseRefInfo{}, model.NewError(model.CodeInvalidArgument, "projectId and projectPath are required")
	}

	row, err := m.store.ProjectSettings(ctx, projectID)
	if err != nil {
		return model.BaseRefInfo{}, err
	}
	base, err := m.resolver.Resolve(projectPath, row)
	if err != nil {
		return model.BaseRefInfo{}, err
	}
	return m.resolver.FetchWithFallback(ctx, projectPath, projectID, base)
}

// workspacePath returns <projectPath>/../worktrees/<name>, with name
// confined to the worktrees directory.
func (m *Manager) workspacePath(projectPath, name string) (string, error) {
	root := filepath.Join(projectPath, "..", WorktreesDirName)
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	path, err := securejoin.SecureJoin(root, name)
	if err != nil {
		return "", model.WrapError(model.CodeInvalidArgument, "Invalid worktree path", err)
	}
	return path, nil
}

// newWorkspaceInfo builds the tracked record for a freshly created workspace.
// The path is canonicalized so it matches what `git worktree list` prints.
func newWorkspaceInfo(path, name, branchName, projectID string, now time.Time) model.WorkspaceInfo {
	canonical := identity.Canonicalize(path)
	return model.WorkspaceInfo{
		ID:        identity.IDFor(canonical),
		Name:      name,
		Branch:    branchName,
		Path:      canonical,
		ProjectID: projectID,
		Status:    model.StatusActive,
		CreatedAt: model.Timestamp(now),
	}
}

func ensureAbsent(path string) error {
	if _, err := os.Lstat(path); err == nil {
		return model.Errorf(model.CodePathConflict, "Worktree directory already exists: %s", path)
	}
	return nil
}

func ensureCreated(path string) error {
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return model.Errorf(model.CodeDirectoryNotCreated, "Worktree directory was not created: %s", path)
	}
	return nil
}
