package domain

import "time"

// Session is an ephemeral login session held in process memory.
// The token is the only credential a client holds; a restart of the
// authority invalidates every session (stated trade-off, not a bug).
type Session struct {
	// Token is the opaque session token. Once issued it maps to exactly
	// this session until revoked; tokens are never reused or recycled.
	Token string
	// SubjectID identifies the user the session was issued to. Threshold
	// records reference it at write time only; it has no lifecycle coupling.
	SubjectID   string
	Email       string
	DisplayName string
	IssuedAt    time.Time
}

// PublicUser is the client-visible view of a session's subject. It carries
// no secret fields and is safe to return from login and debug endpoints.
type PublicUser struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	IssuedAt time.Time `json:"issued_at"`
}

// User returns the public view of the session's subject.
func (s *Session) User() PublicUser {
	return PublicUser{
		ID:       s.SubjectID,
		Email:    s.Email,
		Name:     s.DisplayName,
		IssuedAt: s.IssuedAt,
	}
}
