// Package project persists named timeline snapshots so editing work
// survives restarts.
package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/framecut/framecut-engine/internal/timeline"
)

// Project is a saved timeline snapshot with a user-facing name.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store interface {
	Save(ctx context.Context, name string, snap timeline.Snapshot) (*Project, error)
	Load(ctx context.Context, id string) (*Project, *timeline.Snapshot, error)
	List(ctx context.Context) ([]*Project, error)
	Delete(ctx context.Context, id string) error
}

type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger}
}

// Save upserts by name: saving under an existing project name replaces
// that project's snapshot.
func (s *SQLiteStore) Save(ctx context.Context, name string, snap timeline.Snapshot) (*Project, error) {
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	now := time.Now()
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, snapshot, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at
	`, id, name, string(payload), now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	project, err := s.getByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("project saved", "project_id", project.ID, "name", name)
	}
	return project, nil
}

// Load returns (nil, nil, nil) when the project does not exist.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*Project, *timeline.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, snapshot, created_at, updated_at FROM projects WHERE id = ?
	`, id)

	var p Project
	var payload, createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Name, &payload, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	var snap timeline.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, nil, fmt.Errorf("failed to decode snapshot for project %s: %w", id, err)
	}
	return &p, &snap, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at FROM projects ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func (s *SQLiteStore) getByName(ctx context.Context, name string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at FROM projects WHERE name = ?
	`, name)

	var p Project
	var createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}
