// Package settings reads the user's repository settings from settings.json.
//
// The file may contain comments (JSONC). Missing files, unreadable files and
// missing keys all fall back to defaults: branch template
// "agent/{slug}-{timestamp}" and push-on-create enabled.
package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tidwall/jsonc"

	"github.com/shinji-kodama/task-worktree/internal/branch"
)

// DefaultPushOnCreate is used when the file does not set repository.pushOnCreate.
const DefaultPushOnCreate = true

// FileStore reads and patches a settings.json file. The file is re-read on
// every access so edits made by other processes are picked up.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the settings file location.
func (s *FileStore) Path() string {
	return s.path
}

// BranchTemplate returns repository.branchTemplate, or the default template
// when it is missing or blank.
func (s *FileStore) BranchTemplate() string {
	repo := s.repository()
	if v, ok := repo["branchTemplate"].(string); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return branch.DefaultTemplate
}

// PushOnCreate returns repository.pushOnCreate, defaulting to true.
func (s *FileStore) PushOnCreate() bool {
	repo := s.repository()
	if v, ok := repo["pushOnCreate"].(bool); ok {
		return v
	}
	return DefaultPushOnCreate
}

// Update deep-merges patch into the stored settings and writes the result.
// Objects merge key by key; any other value replaces what was there.
func (s *FileStore) Update(patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	merged := Merge(current, patch)

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings to %s: %w", s.path, err)
	}
	return nil
}

// Merge deep-merges patch into base and returns base.
func Merge(base, patch map[string]any) map[string]any {
	if base == nil {
		base = make(map[string]any)
	}
	for key, value := range patch {
		patchObj, patchIsObj := value.(map[string]any)
		baseObj, baseIsObj := base[key].(map[string]any)
		if patchIsObj && baseIsObj {
			base[key] = Merge(baseObj, patchObj)
			continue
		}
		base[key] = value
	}
	return base
}

func (s *FileStore) repository() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		slog.Warn("ignoring unreadable settings file", "path", s.path, "error", err)
		return nil
	}
	repo, _ := all["repository"].(map[string]any)
	return repo
}

// read loads the settings map. A missing file is an empty map.
func (s *FileStore) read() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return map[string]any{}, nil
	}

	var out map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(data), &out); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", s.path, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// Static is a fixed settings source, useful for embedding the lifecycle
// without a settings file.
type Static struct {
	Template string
	Push     bool
}

// BranchTemplate returns Template, or the default when blank.
func (s Static) BranchTemplate() string {
	if strings.TrimSpace(s.Template) == "" {
		return branch.DefaultTemplate
	}
	return s.Template
}

// PushOnCreate returns Push.
func (s Static) PushOnCreate() bool {
	return s.Push
}
