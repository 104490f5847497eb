package repository

import (
	"context"

	"temp-monitor/backend/internal/reading/domain"
)

// Page is one page of readings together with the total count, both taken
// from the same store snapshot (no phantom reads mixing two counts).
type Page struct {
	Items []*domain.Reading
	Total int
}

// Repository defines persistence for sensor readings. Append-only.
type Repository interface {
	// Insert persists the reading and sets its ID on success.
	Insert(ctx context.Context, rd *domain.Reading) error
	// ListPage returns limit readings ordered by recorded_at descending
	// starting at offset, plus the total count from the same snapshot.
	ListPage(ctx context.Context, limit, offset int) (*Page, error)
}
