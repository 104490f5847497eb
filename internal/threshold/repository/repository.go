package repository

import (
	"context"

	"temp-monitor/backend/internal/threshold/domain"
)

// Page is one page of threshold history together with the total record
// count, both taken from the same store snapshot.
type Page struct {
	Items []*domain.ThresholdRecord
	Total int
}

// Repository defines persistence for threshold records. The store is
// append-only; there are no update or delete operations.
type Repository interface {
	// Insert persists the record and sets its ID on success.
	Insert(ctx context.Context, rec *domain.ThresholdRecord) error
	// Latest returns the record with the greatest created_at, or nil if the
	// store is empty. Errors only on store failure.
	Latest(ctx context.Context) (*domain.ThresholdRecord, error)
	// ListPage returns limit records newest-first starting at offset, plus
	// the total count from the same snapshot.
	ListPage(ctx context.Context, limit, offset int) (*Page, error)
}
