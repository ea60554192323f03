package history

import (
	"path/filepath"
	"testing"
	"time"
)

// The DB handle is package-global and opened once, so these tests
// share one database under a temp dir.
func TestSaveAndRecent(t *testing.T) {
	t.Setenv("HISTORY_DB_PATH", filepath.Join(t.TempDir(), "history.db"))

	first := Record{
		RequestID: "req-1",
		Sentence:  "dentist tomorrow at 10",
		RawOutput: "Task: Dentist",
		EventID:   "evt-1",
		Status:    StatusScheduled,
		StartsAt:  time.Date(2025, time.May, 27, 10, 0, 0, 0, time.UTC),
		EndsAt:    time.Date(2025, time.May, 27, 11, 0, 0, 0, time.UTC),
		CreatedAt: time.Now().UTC(),
	}
	second := Record{
		RequestID: "req-2",
		Sentence:  "lunch yesterday",
		Status:    StatusFailed,
		Error:     "suggested slot is in the past",
		CreatedAt: time.Now().UTC(),
	}

	Save(first)
	Save(second)

	got := Recent(10)
	if len(got) < 2 {
		t.Fatalf("expected at least 2 records, got %d", len(got))
	}
	// Newest first.
	if got[0].RequestID != "req-2" {
		t.Fatalf("expected req-2 first, got %s", got[0].RequestID)
	}
	if got[0].Status != StatusFailed || got[0].Error == "" {
		t.Fatalf("failure not recorded: %+v", got[0])
	}
	if got[1].EventID != "evt-1" {
		t.Fatalf("event id not persisted: %+v", got[1])
	}
}
