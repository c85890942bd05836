// Package store persists project records and their base-ref settings.
//
// Two database/sql drivers are supported: "sqlite3" (mattn/go-sqlite3) for the
// default local database and "pgx" (jackc/pgx stdlib) for a shared Postgres
// database. The schema is managed with embedded goose migrations and queries
// are built with squirrel so the placeholder style follows the driver.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/shinji-kodama/task-worktree/internal/model"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Store is the project database.
type Store struct {
	db     *sql.DB
	driver string
	sb     sq.StatementBuilderType
	now    func() time.Time
}

// Open connects to the database and applies migrations.
// For SQLite the parent directory of dsn is created when needed.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, model.NewError(model.CodeInvalidArgument, "database DSN is required")
	}

	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "" && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, model.Errorf(model.CodeInvalidArgument, "unsupported database driver %q (expected %s or %s)", driver, DriverSQLite, DriverPostgres)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s, err := New(ctx, db, driver)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened database and applies migrations.
func New(ctx context.Context, db *sql.DB, driver string) (*Store, error) {
	var (
		dialect     string
		placeholder sq.PlaceholderFormat
	)
	switch driver {
	case DriverSQLite:
		dialect, placeholder = "sqlite3", sq.Question
		// A single connection keeps SQLite writers from tripping over each other.
		db.SetMaxOpenConns(1)
	case DriverPostgres:
		dialect, placeholder = "postgres", sq.Dollar
	default:
		return nil, model.Errorf(model.CodeInvalidArgument, "unsupported database driver %q", driver)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := runMigrations(ctx, db, dialect); err != nil {
		return nil, err
	}

	return &Store{
		db:     db,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:    time.Now,
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the driver name the store was opened with.
func (s *Store) Driver() string {
	return s.driver
}

// UpsertProject inserts the project or replaces its name, path, remote and
// branch. An existing base_ref is kept when p.BaseRef is empty.
func (s *Store) UpsertProject(ctx context.Context, p model.Project) error {
	if strings.TrimSpace(p.ID) == "" {
		return model.NewError(model.CodeInvalidArgument, "project id is required")
	}

	query, args, err := s.sb.
		Insert("projects").
		Columns("id", "name", "path", "git_remote", "git_branch", "base_ref", "updated_at").
		Values(p.ID, p.Name, p.Path, nullable(p.GitRemote), nullable(p.GitBranch), nullable(p.BaseRef), model.Timestamp(s.now())).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			path = excluded.path,
			git_remote = excluded.git_remote,
			git_branch = excluded.git_branch,
			base_ref = COALESCE(excluded.base_ref, projects.base_ref),
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build UpsertProject query for project %s: %w", p.ID, err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert project %s: %w", p.ID, err)
	}
	return nil
}

// GetProject returns the project with the given id.
func (s *Store) GetProject(ctx context.Context, id string) (model.Project, error) {
	query, args, err := s.sb.
		Select("id", "name", "path", "git_remote", "git_branch", "base_ref", "updated_at").
		From("projects").
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Project{}, fmt.Errorf("build GetProject query for project %s: %w", id, err)
	}

	p, err := scanProject(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Project{}, model.Errorf(model.CodeNotFound, "Project not found: %s", id)
		}
		return model.Project{}, fmt.Errorf("query project %s: %w", id, err)
	}
	return p, nil
}

// ListProjects returns every project ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	query, args, err := s.sb.
		Select("id", "name", "path", "git_remote", "git_branch", "base_ref", "updated_at").
		From("projects").
		OrderBy("name", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListProjects query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ProjectSettings returns the remote, branch and base ref of a project.
func (s *Store) ProjectSettings(ctx context.Context, projectID string) (model.ProjectSettingsRow, error) {
	query, args, err := s.sb.
		Select("git_remote", "git_branch", "base_ref").
		From("projects").
		Where(sq.Eq{"id": projectID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.ProjectSettingsRow{}, fmt.Errorf("build ProjectSettings query for project %s: %w", projectID, err)
	}

	var remote, branchName, baseRef sql.NullString
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&remote, &branchName, &baseRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ProjectSettingsRow{}, model.Errorf(model.CodeNotFound, "Project not found: %s", projectID)
		}
		return model.ProjectSettingsRow{}, fmt.Errorf("query project settings: %w", err)
	}

	return model.ProjectSettingsRow{
		GitRemote: remote.String,
		GitBranch: branchName.String,
		BaseRef:   baseRef.String,
	}, nil
}

// UpdateProjectBaseRef stores a new base ref for the project.
func (s *Store) UpdateProjectBaseRef(ctx context.Context, projectID, fullRef string) error {
	fullRef = strings.TrimSpace(fullRef)
	if fullRef == "" {
		return model.NewError(model.CodeInvalidArgument, "base ref must not be empty")
	}

	query, args, err := s.sb.
		Update("projects").
		Set("base_ref", fullRef).
		Set("updated_at", model.Timestamp(s.now())).
		Where(sq.Eq{"id": projectID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build UpdateProjectBaseRef query for project %s: %w", projectID, err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update base ref for project %s: %w", projectID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Errorf(model.CodeNotFound, "Project not found: %s", projectID)
	}
	return nil
}

// DeleteProject removes a project. Deleting an unknown project is a no-op.
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	query, args, err := s.sb.
		Delete("projects").
		Where(sq.Eq{"id": projectID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build DeleteProject query for project %s: %w", projectID, err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete project %s: %w", projectID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (model.Project, error) {
	var (
		p                           model.Project
		remote, branchName, baseRef sql.NullString
		updated                     string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Path, &remote, &branchName, &baseRef, &updated); err != nil {
		return model.Project{}, err
	}
	p.GitRemote = remote.String
	p.GitBranch = branchName.String
	p.BaseRef = baseRef.String
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		p.UpdatedAt = t
	}
	return p, nil
}

func nullable(v string) sql.NullString {
	v = strings.TrimSpace(v)
	return sql.NullString{String: v, Valid: v != ""}
}
