package media

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateAsset(ctx context.Context, asset *Asset) error
	GetAsset(ctx context.Context, id string) (*Asset, error)
	ListAssets(ctx context.Context) ([]*Asset, error)
	ListAssetsByKind(ctx context.Context, kind string) ([]*Asset, error)
	UpdateAssetProbe(ctx context.Context, id string, duration float64, width, height int) error
	DeleteAsset(ctx context.Context, id string) error
	CountAssets(ctx context.Context) (int, error)
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateAsset(ctx context.Context, a *Asset) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO media_assets (id, name, kind, path, mime_type, size_bytes, duration, width, height, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Name, a.Kind, a.Path, a.MimeType, a.SizeBytes, a.Duration, a.Width, a.Height,
		a.CreatedAt.Format(time.RFC3339), a.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetAsset(ctx context.Context, id string) (*Asset, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, kind, path, mime_type, size_bytes, duration, width, height, created_at, updated_at
		FROM media_assets WHERE id = ?
	`, id)
	return r.scanAsset(row)
}

func (r *SQLiteRepository) scanAsset(row *sql.Row) (*Asset, error) {
	var a Asset
	var createdAt, updatedAt string

	err := row.Scan(&a.ID, &a.Name, &a.Kind, &a.Path, &a.MimeType, &a.SizeBytes, &a.Duration, &a.Width, &a.Height, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &a, nil
}

func (r *SQLiteRepository) ListAssets(ctx context.Context) ([]*Asset, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, kind, path, mime_type, size_bytes, duration, width, height, created_at, updated_at
		FROM media_assets ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanAssets(rows)
}

func (r *SQLiteRepository) ListAssetsByKind(ctx context.Context, kind string) ([]*Asset, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, kind, path, mime_type, size_bytes, duration, width, height, created_at, updated_at
		FROM media_assets WHERE kind = ? ORDER BY created_at DESC
	`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanAssets(rows)
}

func (r *SQLiteRepository) scanAssets(rows *sql.Rows) ([]*Asset, error) {
	var assets []*Asset
	for rows.Next() {
		var a Asset
		var createdAt, updatedAt string
		if err := rows.Scan(&a.ID, &a.Name, &a.Kind, &a.Path, &a.MimeType, &a.SizeBytes, &a.Duration, &a.Width, &a.Height, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		assets = append(assets, &a)
	}
	return assets, rows.Err()
}

func (r *SQLiteRepository) UpdateAssetProbe(ctx context.Context, id string, duration float64, width, height int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE media_assets SET duration = ?, width = ?, height = ?, updated_at = ? WHERE id = ?
	`, duration, width, height, time.Now().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) DeleteAsset(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM media_assets WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) CountAssets(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media_assets").Scan(&count)
	return count, err
}
