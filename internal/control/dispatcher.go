// Package control implements the auth-gated entry point for issuing a
// device command. The dispatcher's sole responsibility is authorization
// plus an acknowledgement contract; actual device actuation is an external
// collaborator.
package control

import (
	"context"
	"log"

	sessiondomain "temp-monitor/backend/internal/session/domain"
)

// SessionValidator is the slice of the session authority the dispatcher
// needs: token resolution only.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*sessiondomain.Session, error)
}

// Ack acknowledges an executed command back to the caller.
type Ack struct {
	// AcknowledgedBy is the subject id of the session that issued the command.
	AcknowledgedBy string
	// User is the public view of the acknowledging session's subject.
	User sessiondomain.PublicUser
	// Payload echoes the command payload unchanged.
	Payload map[string]any
}

// Dispatcher executes control commands for authenticated sessions.
type Dispatcher struct {
	sessions SessionValidator
}

// NewDispatcher returns a Dispatcher gated by the given session authority.
func NewDispatcher(sessions SessionValidator) *Dispatcher {
	return &Dispatcher{sessions: sessions}
}

// Execute resolves the token through the session authority before taking any
// action; on failure the caller gets the authority's error and no side
// effect occurs. The payload is echoed, not validated beyond being present.
func (d *Dispatcher) Execute(ctx context.Context, token string, payload map[string]any) (*Ack, error) {
	sess, err := d.sessions.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	log.Printf("control: command from %s payload keys=%d", sess.Email, len(payload))
	return &Ack{
		AcknowledgedBy: sess.SubjectID,
		User:           sess.User(),
		Payload:        payload,
	}, nil
}
