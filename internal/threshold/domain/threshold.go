package domain

import "time"

// ThresholdRecord is one entry of the append-only alert threshold history.
// The latest threshold is the record with the greatest CreatedAt, not the
// highest ID; ids and time co-vary but time is canonical.
type ThresholdRecord struct {
	ID    int64   `json:"id"`
	Value float64 `json:"value"`
	// Note is an optional operator comment; nil when none was given.
	Note *string `json:"note"`
	// CreatedBy is the subject id of the session that created the record.
	// Sessions may expire while records persist; there is no lifecycle
	// coupling.
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
