package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/task-worktree/internal/command"
	"github.com/shinji-kodama/task-worktree/internal/config"
	"github.com/shinji-kodama/task-worktree/internal/logging"
	"github.com/shinji-kodama/task-worktree/internal/model"
	"github.com/shinji-kodama/task-worktree/internal/registry"
	"github.com/shinji-kodama/task-worktree/internal/settings"
	"github.com/shinji-kodama/task-worktree/internal/store"
	"github.com/shinji-kodama/task-worktree/internal/worktree"
)

// session holds what one command invocation needs: configuration, the
// process-scoped workspace registry and a lazily opened project store.
type session struct {
	cfg      config.Config
	runner   command.Runner
	settings *settings.FileStore
	registry *registry.Registry
	db       *store.Store
}

// newSession loads configuration, applies flag overrides and configures
// logging. Callers must Close the session.
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, model.WrapError(model.CodeInvalidArgument, "invalid configuration", err)
	}

	logging.Setup(verbose, logging.IsJSONFormat(cfg.LogFormat), cmd.ErrOrStderr())
	slog.Debug("configuration loaded", "driver", cfg.DatabaseDriver, "settings", cfg.SettingsPath)

	return &session{
		cfg:      cfg,
		runner:   command.NewExecRunner(),
		settings: settings.NewFileStore(cfg.SettingsPath),
		registry: registry.New(),
	}, nil
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig() (config.Config, error) {
	path := configFile
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return cfg, err
	}

	if dbDriver != "" {
		cfg.DatabaseDriver = dbDriver
	}
	if dbDSN != "" {
		cfg.DatabaseDSN = dbDSN
	}
	if settingsFile != "" {
		cfg.SettingsPath = settingsFile
	}
	return cfg, cfg.Validate()
}

// store opens the project database on first use.
func (s *session) store(ctx context.Context) (*store.Store, error) {
	if s.db != nil {
		return s.db, nil
	}
	db, err := store.Open(ctx, s.cfg.DatabaseDriver, s.cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	s.db = db
	return db, nil
}

// manager builds a lifecycle Manager. Commands that never read project
// settings pass a nil store.
func (s *session) manager(st worktree.ProjectStore) *worktree.Manager {
	return worktree.NewManager(s.runner, st, s.settings, s.registry)
}

// managerWithStore builds a Manager backed by the project database.
func (s *session) managerWithStore(ctx context.Context) (*worktree.Manager, error) {
	st, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	return s.manager(st), nil
}

// adopt registers the workspaces already on disk so commands can address
// them by id. A failure only means fewer ids resolve.
func (s *session) adopt(m *worktree.Manager, projectPath, projectID string) {
	n, err := m.Adopt(projectPath, projectID)
	if err != nil {
		slog.Debug("could not discover existing workspaces", "project", projectPath, "error", err)
		return
	}
	slog.Debug("discovered workspaces", "project", projectPath, "count", n)
}

// Close releases the project database.
func (s *session) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Debug("failed to close project database", "error", err)
		}
	}
}

// resolveProjectPath returns the absolute project path, defaulting to the
// current directory.
func resolveProjectPath(flagValue string) (string, error) {
	path := strings.TrimSpace(flagValue)
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", model.WrapError(model.CodeGeneral, "failed to determine current directory", err)
		}
		path = wd
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", model.WrapError(model.CodeInvalidArgument, "invalid project path", err)
	}
	return abs, nil
}

// resolveProjectID defaults the project id to the project directory name,
// the same id List assigns to rediscovered workspaces.
func resolveProjectID(flagValue, projectPath string) string {
	if id := strings.TrimSpace(flagValue); id != "" {
		return id
	}
	return filepath.Base(projectPath)
}

// projectFlags are shared by every command that works on one project.
type projectFlags struct {
	path string
	id   string
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "project-path", "C", "", "Project repository path (default: current directory)")
	cmd.Flags().StringVarP(&f.id, "project-id", "p", "", "Project id (default: project directory name)")
}

func (f *projectFlags) resolve() (path, id string, err error) {
	path, err = resolveProjectPath(f.path)
	if err != nil {
		return "", "", err
	}
	return path, resolveProjectID(f.id, path), nil
}
