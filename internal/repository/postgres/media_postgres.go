package postgres

import (
	"context"
	"database/sql"

	"mediaapi/internal/model"
	"mediaapi/internal/repository"
)

// MediaPostgres is a PostgreSQL implementation of repository.MediaRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type MediaPostgres struct {
	db *sql.DB
}

// NewMediaPostgres creates a new MediaPostgres repository.
func NewMediaPostgres(db *sql.DB) *MediaPostgres {
	return &MediaPostgres{db: db}
}

var _ repository.MediaRepository = (*MediaPostgres)(nil)

const mediaColumns = `id, file_name, file_url, file_type, file_size, created_at, updated_at`

// Create inserts a new media row; created_at and updated_at come from column defaults.
func (r *MediaPostgres) Create(ctx context.Context, rec *model.MediaRecord) (*model.MediaRecord, error) {
	const q = `
		INSERT INTO media (id, file_name, file_url, file_type, file_size)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + mediaColumns

	row := r.db.QueryRowContext(ctx, q,
		rec.ID,
		rec.FileName,
		rec.FileURL,
		rec.FileType,
		rec.FileSize,
	)

	var out model.MediaRecord
	if err := scanMedia(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByKind lists records of one file type, newest first.
func (r *MediaPostgres) FindByKind(ctx context.Context, kind model.Kind) ([]model.MediaRecord, error) {
	const q = `
		SELECT ` + mediaColumns + `
		FROM media
		WHERE file_type = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.MediaRecord, 0)
	for rows.Next() {
		var m model.MediaRecord
		if err := scanMedia(rows, &m); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedia(s scanner, m *model.MediaRecord) error {
	return s.Scan(
		&m.ID,
		&m.FileName,
		&m.FileURL,
		&m.FileType,
		&m.FileSize,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
}
