// Package service implements the session authority: login against the fixed
// credential registry, opaque token issuance, validation, and revocation.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"temp-monitor/backend/internal/security"
	"temp-monitor/backend/internal/session/domain"
)

// Sentinel errors for the authority; handlers map them to HTTP status codes.
var (
	// ErrInvalidCredentials is returned by Login for any bad email/secret
	// combination. It never reveals which field was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned by Validate for tokens that were never
	// issued or have been revoked.
	ErrUnauthorized = errors.New("unauthorized: valid token required")
)

// Authority owns the process-wide session set. All mutation happens under a
// single mutex, so a concurrent Validate never observes a half-written
// session. Sessions are not persisted; a restart revokes everything.
type Authority struct {
	registry *Registry
	hasher   *security.Hasher

	mu       sync.RWMutex
	sessions map[string]*domain.Session // token -> session
}

// NewAuthority returns an Authority over the given registry. The authority
// is injected explicitly into dispatchers and handlers rather than being a
// package-level singleton.
func NewAuthority(registry *Registry, hasher *security.Hasher) *Authority {
	return &Authority{
		registry: registry,
		hasher:   hasher,
		sessions: make(map[string]*domain.Session),
	}
}

// Login checks email/secret against the registry and mints a session keyed
// by a fresh opaque token. Any mismatch returns ErrInvalidCredentials.
func (a *Authority) Login(ctx context.Context, email, secret string) (*domain.Session, error) {
	if email == "" || secret == "" {
		return nil, ErrInvalidCredentials
	}
	entry, ok := a.registry.lookup(email)
	if !ok {
		// Burn a compare anyway so lookup misses cost the same as bad secrets.
		_ = a.hasher.Compare(dummyHash, []byte(secret))
		return nil, ErrInvalidCredentials
	}
	if err := a.hasher.Compare(entry.SecretHash, []byte(secret)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := security.NewSessionToken()
	if err != nil {
		return nil, err
	}
	sess := &domain.Session{
		Token:       token,
		SubjectID:   entry.SubjectID,
		Email:       entry.Email,
		DisplayName: entry.DisplayName,
		IssuedAt:    time.Now().UTC(),
	}

	a.mu.Lock()
	a.sessions[token] = sess
	a.mu.Unlock()

	return sess, nil
}

// Validate returns the live session for token, or ErrUnauthorized. A session
// TTL check would slot in here without changing the signature; IssuedAt is
// already recorded for it.
func (a *Authority) Validate(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	a.mu.RLock()
	sess, ok := a.sessions[token]
	a.mu.RUnlock()
	if !ok {
		return nil, ErrUnauthorized
	}
	return sess, nil
}

// Revoke removes the session for token. Revoking an unknown token is not an
// error; logout is idempotent.
func (a *Authority) Revoke(ctx context.Context, token string) {
	if token == "" {
		return
	}
	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
}

// ListActive returns a snapshot of live sessions for diagnostics. The
// snapshot contains no secret fields beyond the tokens themselves.
func (a *Authority) ListActive(ctx context.Context) []*domain.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*domain.Session, 0, len(a.sessions))
	for _, s := range a.sessions {
		copy := *s
		out = append(out, &copy)
	}
	return out
}

// dummyHash is a bcrypt hash of an unguessable throwaway value, used to keep
// login timing uniform when the email is not registered.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"
