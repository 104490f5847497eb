package domain

import "time"

// Reading is a single recorded temperature sample, stamped with the
// threshold in effect when it was recorded. Append-only; history reads
// order by RecordedAt, never by insertion sequence, because concurrent
// producers race.
type Reading struct {
	ID             int64     `json:"id"`
	Temperature    float64   `json:"temperature"`
	ThresholdValue float64   `json:"threshold_value"`
	RecordedAt     time.Time `json:"recorded_at"`
}
