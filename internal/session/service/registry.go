package service

import (
	"strings"

	"github.com/google/uuid"

	"temp-monitor/backend/internal/config"
	"temp-monitor/backend/internal/security"
)

// registryEntry is one user of the fixed credential registry. Secrets are
// kept only as bcrypt hashes; the plaintext never outlives registry build.
type registryEntry struct {
	SubjectID   string
	Email       string
	DisplayName string
	SecretHash  string
}

// Registry is the fixed credential registry the authority logs users in
// against. It is immutable after construction.
type Registry struct {
	byEmail map[string]registryEntry
}

// NewRegistry hashes the configured credentials and builds the registry.
// Subject IDs are minted per process start; they are stable for the process
// lifetime, which matches the session authority's own lifetime.
func NewRegistry(creds []config.Credential, hasher *security.Hasher) (*Registry, error) {
	byEmail := make(map[string]registryEntry, len(creds))
	for _, c := range creds {
		hash, err := hasher.Hash([]byte(c.Secret))
		if err != nil {
			return nil, err
		}
		email := strings.ToLower(strings.TrimSpace(c.Email))
		byEmail[email] = registryEntry{
			SubjectID:   uuid.New().String(),
			Email:       email,
			DisplayName: c.DisplayName,
			SecretHash:  hash,
		}
	}
	return &Registry{byEmail: byEmail}, nil
}

// lookup returns the entry for email and whether it exists.
func (r *Registry) lookup(email string) (registryEntry, bool) {
	e, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	return e, ok
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	return len(r.byEmail)
}
