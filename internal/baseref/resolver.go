// Package baseref resolves and fetches the upstream branch a new workspace
// forks from.
//
// Resolution prefers the project's stored base ref, then a local branch of
// that name, then the stored git branch, then whatever the remote advertises
// as HEAD. Fetching recovers from a base ref that no longer exists on the
// remote by falling back to origin's default branch and persisting the
// corrected ref.
package baseref

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"github.com/shinji-kodama/task-worktree/internal/git"
	"github.com/shinji-kodama/task-worktree/internal/model"
)

// RefUpdater persists a corrected base ref for a project.
type RefUpdater interface {
	UpdateProjectBaseRef(ctx context.Context, projectID, fullRef string) error
}

// Resolver computes and fetches base refs.
type Resolver struct {
	git     *git.Client
	updater RefUpdater
}

// NewResolver creates a Resolver. updater may be nil, in which case a
// corrected ref is not persisted.
func NewResolver(client *git.Client, updater RefUpdater) *Resolver {
	return &Resolver{git: client, updater: updater}
}

// missingRefSignatures are lower-case fragments of git errors meaning the
// requested ref is not on the remote.
var missingRefSignatures = []string{
	"couldn't find remote ref",
	"could not find remote ref",
	"remote ref does not exist",
	"remote end hung up unexpectedly",
	"no such ref was fetched",
}

// IsMissingRemoteRefError reports whether a fetch error message says the ref
// does not exist on the remote.
func IsMissingRemoteRefError(message string) bool {
	msg := strings.ToLower(message)
	for _, sig := range missingRefSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// Resolve picks the base ref for projectPath from the operator hints in row.
//
//  1. The default remote is row.GitRemote, or "origin".
//  2. row.BaseRef in "remote/branch" form naming a configured remote wins.
//  3. row.BaseRef naming an existing local branch is used with the default remote.
//  4. row.GitBranch, when set and free of whitespace.
//  5. origin's advertised HEAD branch ("main" if unavailable), paired with
//     the default remote.
func (r *Resolver) Resolve(projectPath string, row model.ProjectSettingsRow) (model.BaseRefInfo, error) {
	if strings.TrimSpace(projectPath) == "" {
		return model.BaseRefInfo{}, model.NewError(model.CodeBaseRefUnresolvable, "project path is required to resolve a base ref")
	}

	defaultRemote := strings.TrimSpace(row.GitRemote)
	if defaultRemote == "" {
		defaultRemote = git.DefaultRemote
	}

	if baseRef := strings.TrimSpace(row.BaseRef); baseRef != "" {
		if info, ok := r.Parse(baseRef, projectPath); ok {
			return info, nil
		}
		if r.git.LocalBranchExists(projectPath, baseRef) {
			return model.NewBaseRef(defaultRemote, baseRef), nil
		}
	}

	branch := strings.TrimSpace(row.GitBranch)
	if branch == "" || strings.ContainsFunc(branch, unicode.IsSpace) {
		branch = r.git.DefaultBranch(projectPath, git.DefaultRemote)
	}
	return model.NewBaseRef(defaultRemote, branch), nil
}

// Parse interprets raw as "remote/branch". A leading "refs/remotes/" or
// "remotes/" is stripped. The remote must be non-empty and, when projectPath
// is given and its remotes can be listed, must be one of them.
func (r *Resolver) Parse(raw, projectPath string) (model.BaseRefInfo, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "refs/remotes/")
	cleaned = strings.TrimPrefix(cleaned, "remotes/")
	cleaned = strings.TrimSpace(cleaned)

	remote, branch, found := strings.Cut(cleaned, "/")
	remote = strings.TrimSpace(remote)
	branch = strings.TrimSpace(branch)
	if !found || remote == "" || branch == "" {
		return model.BaseRefInfo{}, false
	}

	if projectPath != "" {
		if remotes, err := r.git.Remotes(projectPath); err == nil && !slices.Contains(remotes, remote) {
			return model.BaseRefInfo{}, false
		}
	}

	return model.NewBaseRef(remote, branch), true
}

// FetchWithFallback fetches base. When the fetch fails because the ref is
// missing on the remote, origin's default branch is fetched instead and, on
// success, written back through the RefUpdater so later resolutions skip the
// stale ref.
func (r *Resolver) FetchWithFallback(ctx context.Context, projectPath, projectID string, base model.BaseRefInfo) (model.BaseRefInfo, error) {
	fetchErr := r.git.Fetch(projectPath, base.Remote, base.Branch)
	if fetchErr == nil {
		return base, nil
	}

	if !IsMissingRemoteRefError(fetchErr.Error()) {
		return model.BaseRefInfo{}, model.WrapError(model.CodeFetchFailed,
			fmt.Sprintf("Failed to fetch %s", base.FullRef), fetchErr)
	}

	fallback := model.NewBaseRef(git.DefaultRemote, r.git.DefaultBranch(projectPath, git.DefaultRemote))
	if fallback.FullRef == base.FullRef {
		return model.BaseRefInfo{}, model.WrapError(model.CodeFetchFailed,
			fmt.Sprintf("Failed to fetch %s", base.FullRef), fetchErr)
	}

	slog.Warn("base ref missing on remote, falling back to default branch",
		"baseRef", base.FullRef, "fallback", fallback.FullRef)

	if err := r.git.Fetch(projectPath, fallback.Remote, fallback.Branch); err != nil {
		return model.BaseRefInfo{}, model.Errorf(model.CodeFetchFailed,
			"Failed to fetch base branch. Tried %s and %s. %s Please verify the branch exists on the remote.",
			base.FullRef, fallback.FullRef, err.Error())
	}

	if r.updater != nil {
		if err := r.updater.UpdateProjectBaseRef(ctx, projectID, fallback.FullRef); err != nil {
			slog.Warn("failed to persist corrected base ref",
				"projectId", projectID, "baseRef", fallback.FullRef, "error", err)
		}
	}

	return fallback, nil
}
