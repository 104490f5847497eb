// Package telemetry defines the domain event type and emitter interface for
// best-effort observability events (logins, threshold changes, control
// dispatches). Emission never participates in request outcomes.
package telemetry

import (
	"context"
	"encoding/json"
	"time"
)

// Event is a single observability event.
type Event struct {
	// EventType names the event, e.g. "auth.login", "threshold.create",
	// "control.dispatch".
	EventType string
	// SubjectID is the acting user, when the event is tied to a session.
	SubjectID string
	// Source is the emitting component, e.g. "http", "simulator".
	Source string
	// Metadata is optional structured payload (JSON object).
	Metadata json.RawMessage
	// CreatedAt is when the event occurred; stamped by the emitter if zero.
	CreatedAt time.Time
}

// EventEmitter emits telemetry events (e.g. to OTel Logs). Best-effort;
// callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}
