package repository

import (
	"context"
	"database/sql"
	"errors"

	"temp-monitor/backend/internal/threshold/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a threshold repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert persists the record to the database. It sets rec.ID on success.
func (r *PostgresRepository) Insert(ctx context.Context, rec *domain.ThresholdRecord) error {
	note := sql.NullString{}
	if rec.Note != nil {
		note = sql.NullString{String: *rec.Note, Valid: true}
	}
	return r.db.QueryRowContext(ctx,
		`INSERT INTO threshold_records (value, note, created_by, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		rec.Value, note, rec.CreatedBy, rec.CreatedAt,
	).Scan(&rec.ID)
}

// Latest returns the newest record by created_at (id breaks ties), or nil if
// the table is empty. It returns an error only for database failures.
func (r *PostgresRepository) Latest(ctx context.Context) (*domain.ThresholdRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, value, note, created_by, created_at
		 FROM threshold_records
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// ListPage returns one newest-first page plus the total count. Count and
// page slice run inside a single repeatable-read read-only transaction so
// concurrent appends cannot produce a total inconsistent with the slice.
func (r *PostgresRepository) ListPage(ctx context.Context, limit, offset int) (*Page, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM threshold_records`).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, value, note, created_by, created_at
		 FROM threshold_records
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.ThresholdRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total}, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*domain.ThresholdRecord, error) {
	var rec domain.ThresholdRecord
	var note sql.NullString
	if err := s.Scan(&rec.ID, &rec.Value, &note, &rec.CreatedBy, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if note.Valid {
		rec.Note = &note.String
	}
	return &rec, nil
}
