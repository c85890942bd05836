// Package model defines the domain types for the task-worktree tool.
//
// All entities in this package are transient: a WorkspaceInfo is held in the
// process-lifetime registry, and a ProjectSettingsRow is read from the project
// store on demand.
package model

import (
	"fmt"
	"strings"
	"time"
)

// WorkspaceStatus represents the lifecycle state of a workspace.
//
// Only one state is modeled. A workspace is active from creation until it is
// removed, and removal deletes the record instead of transitioning it.
type WorkspaceStatus string

const (
	// StatusActive is the state of every tracked or discovered workspace.
	StatusActive WorkspaceStatus = "active"
)

// String returns the string representation of WorkspaceStatus.
func (s WorkspaceStatus) String() string {
	return string(s)
}

// IsValid checks whether the WorkspaceStatus value is a known state.
func (s WorkspaceStatus) IsValid() bool {
	return s == StatusActive
}

// ParseWorkspaceStatus converts a string to a WorkspaceStatus.
// Returns an error if the string does not match any valid status.
func ParseWorkspaceStatus(s string) (WorkspaceStatus, error) {
	status := WorkspaceStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid workspace status: %q (valid: active)", s)
	}
	return status, nil
}

// WorkspaceInfo describes one isolated working directory checked out from a
// shared repository. It is the primary aggregate in the domain.
type WorkspaceInfo struct {
	// ID is the stable identity: "wt-" plus the first 12 hex characters of
	// the SHA-1 of the canonicalized absolute path.
	ID string `json:"id" yaml:"id"`

	// Name is the human label, usually the task name.
	Name string `json:"name" yaml:"name"`

	// Branch is the git branch checked out in this workspace.
	Branch string `json:"branch" yaml:"branch"`

	// Path is the absolute filesystem path of the workspace.
	Path string `json:"path" yaml:"path"`

	// ProjectID is the owning project's identity.
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Status is always StatusActive once created.
	Status WorkspaceStatus `json:"status" yaml:"status"`

	// CreatedAt is an RFC 3339 timestamp of creation (or of discovery, for
	// records synthesized from disk).
	CreatedAt string `json:"createdAt" yaml:"createdAt"`

	// LastActivity is never set here; collaborators populate it.
	LastActivity *string `json:"lastActivity,omitempty" yaml:"lastActivity,omitempty"`
}

// Clone returns a deep copy of the record.
func (w WorkspaceInfo) Clone() WorkspaceInfo {
	out := w
	if w.LastActivity != nil {
		v := *w.LastActivity
		out.LastActivity = &v
	}
	return out
}

// Timestamp formats t the way WorkspaceInfo.CreatedAt is stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// BaseRefInfo is the resolved fork point for a new workspace branch.
type BaseRefInfo struct {
	// Remote is the remote name, e.g. "origin".
	Remote string `json:"remote" yaml:"remote"`

	// Branch is the branch name on that remote. It may itself contain "/".
	Branch string `json:"branch" yaml:"branch"`

	// FullRef is "<remote>/<branch>".
	FullRef string `json:"baseRef" yaml:"baseRef"`
}

// NewBaseRef builds a BaseRefInfo with FullRef filled in.
func NewBaseRef(remote, branch string) BaseRefInfo {
	return BaseRefInfo{
		Remote:  remote,
		Branch:  branch,
		FullRef: remote + "/" + branch,
	}
}

// ProjectSettingsRow holds the operator-provided git hints for a project.
// Every field is optional and may be stale or invalid.
type ProjectSettingsRow struct {
	GitRemote string `json:"gitRemote,omitempty" yaml:"gitRemote,omitempty"`
	GitBranch string `json:"gitBranch,omitempty" yaml:"gitBranch,omitempty"`
	BaseRef   string `json:"baseRef,omitempty" yaml:"baseRef,omitempty"`
}

// Project is a row of the project store.
type Project struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Path      string    `json:"path" yaml:"path"`
	GitRemote string    `json:"gitRemote,omitempty" yaml:"gitRemote,omitempty"`
	GitBranch string    `json:"gitBranch,omitempty" yaml:"gitBranch,omitempty"`
	BaseRef   string    `json:"baseRef,omitempty" yaml:"baseRef,omitempty"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Settings returns the git hints of the project.
func (p Project) Settings() ProjectSettingsRow {
	return ProjectSettingsRow{
		GitRemote: p.GitRemote,
		GitBranch: p.GitBranch,
		BaseRef:   p.BaseRef,
	}
}

// WorkspaceStatusReport summarizes uncommitted changes in a workspace as
// reported by `git status --porcelain`.
type WorkspaceStatusReport struct {
	HasChanges     bool     `json:"hasChanges" yaml:"hasChanges"`
	StagedFiles    []string `json:"stagedFiles" yaml:"stagedFiles"`
	UnstagedFiles  []string `json:"unstagedFiles" yaml:"unstagedFiles"`
	UntrackedFiles []string `json:"untrackedFiles" yaml:"untrackedFiles"`
}

// Result is the structured envelope returned to callers at the outer
// boundary. Exactly one of the payload fields is set on success.
type Result struct {
	Success   bool                   `json:"success" yaml:"success"`
	Error     string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Worktree  *WorkspaceInfo         `json:"worktree,omitempty" yaml:"worktree,omitempty"`
	Worktrees []WorkspaceInfo        `json:"worktrees" yaml:"worktrees,omitempty"`
	Status    *WorkspaceStatusReport `json:"status,omitempty" yaml:"status,omitempty"`
	BaseRef   *BaseRefInfo           `json:"baseRef,omitempty" yaml:"baseRef,omitempty"`
	Project   *Project               `json:"project,omitempty" yaml:"project,omitempty"`
	Projects  []Project              `json:"projects,omitempty" yaml:"projects,omitempty"`
	Settings  *RepositorySettings    `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// RepositorySettings are the effective user preferences that shape new
// workspaces.
type RepositorySettings struct {
	BranchTemplate string `json:"branchTemplate" yaml:"branchTemplate"`
	PushOnCreate   bool   `json:"pushOnCreate" yaml:"pushOnCreate"`
}

// Failure builds an unsuccessful Result from err.
func Failure(err error) Result {
	return Result{Success: false, Error: err.Error()}
}
