// Package service implements the readings store operations: validated
// append and paginated reads.
package service

import (
	"context"
	"errors"
	"math"
	"time"

	"temp-monitor/backend/internal/reading/domain"
	"temp-monitor/backend/internal/reading/repository"
)

// ErrInvalidReading is returned by Append when temperature or
// threshold_value is not a finite number.
var ErrInvalidReading = errors.New("temperature and threshold_value must be finite numbers")

// Service owns readings store semantics. Appends come from telemetry
// producers (simulator or manual tests); reads are unauthenticated.
type Service struct {
	repo repository.Repository
}

// NewService returns a Service over the given repository.
func NewService(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// Append records a new reading. RecordedAt is stamped server-side; producer
// clocks are never trusted.
func (s *Service) Append(ctx context.Context, temperature, thresholdValue float64) (*domain.Reading, error) {
	if !isFinite(temperature) || !isFinite(thresholdValue) {
		return nil, ErrInvalidReading
	}
	rd := &domain.Reading{
		Temperature:    temperature,
		ThresholdValue: thresholdValue,
		RecordedAt:     time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, rd); err != nil {
		return nil, err
	}
	return rd, nil
}

// ListPage returns one page ordered by recorded_at descending. page and
// size are clamped to a minimum of 1; pages past the end come back with
// empty items and the correct total.
func (s *Service) ListPage(ctx context.Context, page, size int) (*repository.Page, error) {
	page = max(page, 1)
	size = max(size, 1)
	return s.repo.ListPage(ctx, size, (page-1)*size)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
