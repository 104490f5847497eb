package repository

import (
	"context"
	"database/sql"

	"temp-monitor/backend/internal/reading/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a readings repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert persists the reading to the database. It sets rd.ID on success.
func (r *PostgresRepository) Insert(ctx context.Context, rd *domain.Reading) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO sensor_readings (temperature, threshold_value, recorded_at)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		rd.Temperature, rd.ThresholdValue, rd.RecordedAt,
	).Scan(&rd.ID)
}

// ListPage returns one page ordered by recorded_at descending plus the total
// count. Both run inside a single repeatable-read read-only transaction so
// the total always matches the snapshot the page was sliced from.
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
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM sensor_readings`).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, temperature, threshold_value, recorded_at
		 FROM sensor_readings
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.Reading, 0, limit)
	for rows.Next() {
		var rd domain.Reading
		if err := rows.Scan(&rd.ID, &rd.Temperature, &rd.ThresholdValue, &rd.RecordedAt); err != nil {
			return nil, err
		}
		items = append(items, &rd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total}, nil
}
