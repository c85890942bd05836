package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/task-worktree/internal/model"
)

func sample(id, path string) model.WorkspaceInfo {
	return model.WorkspaceInfo{
		ID:        id,
		Name:      "task " + id,
		Branch:    "agent/" + id,
		Path:      path,
		ProjectID: "proj",
		Status:    model.StatusActive,
		CreatedAt: "2024-01-01T00:00:00Z",
	}
}

func TestRegistry_PutGetDelete(t *testing.T) {
	r := New()
	r.Put(sample("wt-1", "/w/1"))

	got, ok := r.Get("wt-1")
	require.True(t, ok)
	assert.Equal(t, "/w/1", got.Path)
	assert.Equal(t, 1, r.Len())

	assert.True(t, r.Delete("wt-1"))
	assert.False(t, r.Delete("wt-1"), "second delete is a no-op")

	_, ok = r.Get("wt-1")
	assert.False(t, ok)
}

func TestRegistry_FindByPath(t *testing.T) {
	r := New()
	r.Put(sample("wt-1", "/w/1"))
	r.Put(sample("wt-2", "/w/2"))

	got, ok := r.FindByPath("/w/2")
	require.True(t, ok)
	assert.Equal(t, "wt-2", got.ID)

	_, ok = r.FindByPath("/w/3")
	assert.False(t, ok)
}

// TestRegistry_ReturnsClones verifies callers cannot mutate stored records.
func TestRegistry_ReturnsClones(t *testing.T) {
	r := New()
	last := "before"
	info := sample("wt-1", "/w/1")
	info.LastActivity = &last
	r.Put(info)

	// Mutating the caller's copy after Put must not leak in.
	last = "mutated-input"

	got, _ := r.Get("wt-1")
	assert.Equal(t, "before", *got.LastActivity)

	*got.LastActivity = "mutated-output"
	got.Name = "changed"

	again, _ := r.Get("wt-1")
	assert.Equal(t, "before", *again.LastActivity)
	assert.Equal(t, "task wt-1", again.Name)
}

func TestRegistry_SnapshotOrdering(t *testing.T) {
	r := New()
	a := sample("wt-b", "/w/b")
	a.CreatedAt = "2024-01-02T00:00:00Z"
	b := sample("wt-a", "/w/a")
	b.CreatedAt = "2024-01-02T00:00:00Z"
	c := sample("wt-c", "/w/c")
	c.CreatedAt = "2024-01-01T00:00:00Z"
	r.Put(a)
	r.Put(b)
	r.Put(c)

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []string{"wt-c", "wt-a", "wt-b"}, []string{snap[0].ID, snap[1].ID, snap[2].ID})
}

// TestRegistry_Concurrent exercises the lock under -race.
func TestRegistry_Concurrent(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("wt-%d", i)
			r.Put(sample(id, "/w/"+id))
			_, _ = r.Get(id)
			_, _ = r.FindByPath("/w/" + id)
			_ = r.Snapshot()
			if i%2 == 0 {
				r.Delete(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, r.Len())
}
