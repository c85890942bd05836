package worktree

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/tidwall/jsonc"

	"github.com/shinji-kodama/task-worktree/internal/git"
)

const (
	// ExcludedLogFile is the agent stream log kept out of `git status`.
	ExcludedLogFile = "codex-stream.log"

	// AgentSettingsDir and AgentSettingsFile locate the coding agent's
	// per-workspace settings.
	AgentSettingsDir  = ".claude"
	AgentSettingsFile = "settings.json"

	// BypassPermissionsMode is written to defaultMode on auto-approve.
	BypassPermissionsMode = "bypassPermissions"
)

// ensureLogExcluded adds ExcludedLogFile to the info/exclude file git reads
// for the workspace (the repository's common directory for a linked
// worktree). Failures are logged and ignored.
func ensureLogExcluded(worktreePath string) {
	excludePath := filepath.Join(git.ResolveCommonDir(worktreePath), "info", "exclude")
	if err := AppendExclude(excludePath, ExcludedLogFile); err != nil {
		slog.Warn("failed to update exclude file", "path", excludePath, "error", err)
	}
}

// AppendExclude appends pattern to the exclude file at path unless the file
// already mentions it. The file and its directory are created when missing.
func AppendExclude(path, pattern string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create exclude directory: %w", err)
	}

	current, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read exclude file: %w", err)
	}

	text := string(current)
	if strings.Contains(text, pattern) {
		return nil
	}
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	text += pattern + "\n"

	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write exclude file: %w", err)
	}
	return nil
}

// ensureAgentAutoApprove writes BypassPermissionsMode into the workspace's
// agent settings, keeping any other keys. Failures are logged and ignored.
//
// The settings path is resolved inside the workspace, so a symlinked
// AgentSettingsDir from the checked-out branch cannot redirect the write.
func ensureAgentAutoApprove(worktreePath string) {
	settingsPath, err := securejoin.SecureJoin(worktreePath, filepath.Join(AgentSettingsDir, AgentSettingsFile))
	if err != nil {
		slog.Warn("failed to resolve agent settings path", "workspace", worktreePath, "error", err)
		return
	}
	if err := writeAgentAutoApprove(settingsPath); err != nil {
		slog.Warn("failed to write agent settings", "path", settingsPath, "error", err)
	}
}

func writeAgentAutoApprove(settingsPath string) error {
	if err := os.MkdirAll(filepath.Dir(settingsPath), 0o755); err != nil {
		return fmt.Errorf("failed to create agent settings directory: %w", err)
	}

	raw, err := os.ReadFile(settingsPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read agent settings: %w", err)
	}

	data, err := RewriteAgentSettings(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(settingsPath, data, 0o644)
}

// RewriteAgentSettings sets defaultMode to BypassPermissionsMode in the given
// settings document. The input may contain comments. Input that is empty or
// not a JSON object is replaced by a fresh object.
func RewriteAgentSettings(raw []byte) ([]byte, error) {
	settings := map[string]any{}
	if len(strings.TrimSpace(string(raw))) > 0 {
		var existing map[string]any
		if err := json.Unmarshal(jsonc.ToJSON(raw), &existing); err == nil && existing != nil {
			settings = existing
		}
	}

	settings["defaultMode"] = BypassPermissionsMode

	result, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize agent settings: %w", err)
	}
	return append(result, '\n'), nil
}
