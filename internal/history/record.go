package history

import "time"

// Statuses recorded for a scheduling attempt.
const (
	StatusScheduled = "scheduled"
	StatusDryRun    = "dry_run"
	StatusFailed    = "failed"
)

// Record represents one scheduling attempt.
type Record struct {
	ID        uint64    `json:"id"`
	RequestID string    `json:"request_id"`
	Sentence  string    `json:"sentence"`
	RawOutput string    `json:"raw_output"`
	EventID   string    `json:"event_id"`
	HTMLLink  string    `json:"html_link"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Status    string    `json:"status"`
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"created_at"`
}
