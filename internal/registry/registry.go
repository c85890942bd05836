// Package registry holds the in-process table of tracked workspaces.
//
// A Registry lives for the lifetime of the process and is not persisted.
// It is owned by the application's top-level context and handed to the
// lifecycle explicitly. The lock is held only for the duration of a single
// read or mutation, never across an external command.
package registry

import (
	"sort"
	"sync"

	"github.com/shinji-kodama/task-worktree/internal/model"
)

// Registry is a mutex-guarded map from workspace id to WorkspaceInfo.
// All reads return clones so callers cannot mutate the stored records.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]model.WorkspaceInfo
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]model.WorkspaceInfo)}
}

// Put inserts or replaces the record keyed by info.ID.
func (r *Registry) Put(info model.WorkspaceInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[info.ID] = info.Clone()
}

// Get returns the record for id.
func (r *Registry) Get(id string) (model.WorkspaceInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.entries[id]
	if !ok {
		return model.WorkspaceInfo{}, false
	}
	return info.Clone(), true
}

// FindByPath returns the record whose Path equals path exactly.
func (r *Registry) FindByPath(path string) (model.WorkspaceInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, info := range r.entries {
		if info.Path == path {
			return info.Clone(), true
		}
	}
	return model.WorkspaceInfo{}, false
}

// Delete removes id and reports whether it was present.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

// Snapshot returns every record, ordered by CreatedAt then ID.
func (r *Registry) Snapshot() []model.WorkspaceInfo {
	r.mu.RLock()
	out := make([]model.WorkspaceInfo, 0, len(r.entries))
	for _, info := range r.entries {
		out = append(out, info.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of tracked workspaces.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
