// Package service implements the threshold store operations: authenticated
// append, latest lookup, and paginated history reads.
package service

import (
	"context"
	"errors"
	"math"
	"time"

	sessiondomain "temp-monitor/backend/internal/session/domain"
	"temp-monitor/backend/internal/threshold/domain"
	"temp-monitor/backend/internal/threshold/repository"
)

// ErrInvalidValue is returned by Create for non-finite threshold values.
var ErrInvalidValue = errors.New("value must be a finite number")

// SessionValidator is the slice of the session authority the threshold
// service needs: token resolution only.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*sessiondomain.Session, error)
}

// Service owns threshold store semantics. Writes require a valid session
// token; reads are unauthenticated by design (callers gate them at a higher
// layer if product requirements change).
type Service struct {
	repo     repository.Repository
	sessions SessionValidator
}

// NewService returns a Service over the given repository and session authority.
func NewService(repo repository.Repository, sessions SessionValidator) *Service {
	return &Service{repo: repo, sessions: sessions}
}

// Create appends a new threshold record. The token is resolved through the
// session authority first; CreatedAt is stamped server-side (client clocks
// are never trusted) and CreatedBy records the session's subject.
func (s *Service) Create(ctx context.Context, token string, value float64, note *string) (*domain.ThresholdRecord, error) {
	sess, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, ErrInvalidValue
	}
	rec := &domain.ThresholdRecord{
		Value:     value,
		Note:      note,
		CreatedBy: sess.SubjectID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Latest returns the most recently created record, or nil if none exist.
func (s *Service) Latest(ctx context.Context) (*domain.ThresholdRecord, error) {
	return s.repo.Latest(ctx)
}

// List returns one newest-first page of history. page and size are clamped
// to a minimum of 1; pages past the end come back with empty items and the
// correct total.
func (s *Service) List(ctx context.Context, page, size int) (*repository.Page, error) {
	page = max(page, 1)
	size = max(size, 1)
	return s.repo.ListPage(ctx, size, (page-1)*size)
}
