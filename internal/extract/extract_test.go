package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleOutput = `Task: Meeting with the marketing team
Deadline: Friday, 30 May 2025 at 5:00 PM
Duration: 90
Priority: High

Scheduled Slot:
 - Date: Tuesday, 27 May 2025
 - Time: 2:00 PM - 3:30 PM
 - Reason: Earliest reasonable slot before the deadline.`

func TestPrompt_EmbedsSentenceAndClock(t *testing.T) {
	now := time.Date(2025, time.May, 26, 9, 30, 0, 0, time.UTC)
	p := Prompt("lunch with Sarah tomorrow at noon", now)
	require.Contains(t, p, `"lunch with Sarah tomorrow at noon"`)
	require.Contains(t, p, "Monday, 26 May 2025 9:30 AM UTC")
	require.Contains(t, p, "Respond in the following EXACT format")
}

func TestParse_FullOutput(t *testing.T) {
	ex, err := Parse(sampleOutput)
	require.NoError(t, err)
	require.Equal(t, "Meeting with the marketing team", ex.Task)
	require.Equal(t, "Friday, 30 May 2025 at 5:00 PM", ex.Deadline)
	require.Equal(t, "Tuesday, 27 May 2025", ex.DateStr)
	require.Equal(t, "2:00 PM - 3:30 PM", ex.TimeStr)
	require.Equal(t, 90, ex.DurationMinutes)
	require.Equal(t, "High", ex.Priority)
	require.Equal(t, "Earliest reasonable slot before the deadline.", ex.Reason)
	require.Equal(t, sampleOutput, ex.Raw)
}

func TestParse_Defaults(t *testing.T) {
	out := "Task: Dentist\n - Date: 2025-06-02\n - Time: 10:00 AM - 11:00 AM\n"
	ex, err := Parse(out)
	require.NoError(t, err)
	require.Equal(t, DefaultDurationMinutes, ex.DurationMinutes)
	require.Equal(t, "Normal", ex.Priority)
}

func TestParse_MissingFields(t *testing.T) {
	_, err := Parse("Task: Dentist\nDuration: 30\n")
	require.ErrorIs(t, err, ErrMissingFields)
}

func TestParseFlexibleDate_Layouts(t *testing.T) {
	now := time.Date(2025, time.May, 26, 12, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"Wednesday, 28 May 2025",
		"28 May 2025",
		"May 28, 2025",
		"05/28/2025",
		"2025-05-28",
		"28-05-2025",
	} {
		d, err := ParseFlexibleDate(s, now)
		require.NoError(t, err, s)
		require.Equal(t, 2025, d.Year(), s)
		require.Equal(t, time.May, d.Month(), s)
		require.Equal(t, 28, d.Day(), s)
	}
}

func TestParseFlexibleDate_YearlessRollsForward(t *testing.T) {
	now := time.Date(2025, time.May, 26, 12, 0, 0, 0, time.UTC)

	// Later this year: keeps the current year.
	d, err := ParseFlexibleDate("Wednesday, 28 May", now)
	require.NoError(t, err)
	require.Equal(t, 2025, d.Year())

	// Already passed: bumps to next year.
	d, err = ParseFlexibleDate("Monday, 3 February", now)
	require.NoError(t, err)
	require.Equal(t, 2026, d.Year())
}

func TestParseFlexibleDate_Unparseable(t *testing.T) {
	_, err := ParseFlexibleDate("sometime soon", time.Now())
	require.Error(t, err)
}

func TestResolveSlot_FutureSlot(t *testing.T) {
	now := time.Date(2025, time.May, 26, 9, 0, 0, 0, time.UTC)
	ex := Extraction{DateStr: "Tuesday, 27 May 2025", TimeStr: "2:00 PM - 3:30 PM", DurationMinutes: 90}

	slot, err := ResolveSlot(ex, now, time.UTC)
	require.NoError(t, err)
	require.False(t, slot.Adjusted)
	require.Equal(t, time.Date(2025, time.May, 27, 14, 0, 0, 0, time.UTC), slot.Start)
	require.Equal(t, time.Date(2025, time.May, 27, 15, 30, 0, 0, time.UTC), slot.End)
}

func TestResolveSlot_PastTimeTodayShiftsForward(t *testing.T) {
	now := time.Date(2025, time.May, 26, 16, 0, 0, 0, time.UTC)
	ex := Extraction{DateStr: "2025-05-26", TimeStr: "2:00 PM - 2:30 PM", DurationMinutes: 30}

	slot, err := ResolveSlot(ex, now, time.UTC)
	require.NoError(t, err)
	require.True(t, slot.Adjusted)
	require.Equal(t, now.Add(5*time.Minute), slot.Start)
	require.Equal(t, now.Add(35*time.Minute), slot.End)
}

func TestResolveSlot_PastDateRejected(t *testing.T) {
	now := time.Date(2025, time.May, 26, 9, 0, 0, 0, time.UTC)
	ex := Extraction{DateStr: "2025-05-20", TimeStr: "2:00 PM - 3:00 PM", DurationMinutes: 60}

	_, err := ResolveSlot(ex, now, time.UTC)
	require.ErrorIs(t, err, ErrPastDate)
}

func TestResolveSlot_BadTimeRange(t *testing.T) {
	now := time.Date(2025, time.May, 26, 9, 0, 0, 0, time.UTC)
	ex := Extraction{DateStr: "2025-05-28", TimeStr: "around lunch", DurationMinutes: 60}

	_, err := ResolveSlot(ex, now, time.UTC)
	require.ErrorIs(t, err, ErrBadTimeRange)
}

func TestResolveSlot_MidnightCrossingUsesDuration(t *testing.T) {
	now := time.Date(2025, time.May, 26, 9, 0, 0, 0, time.UTC)
	ex := Extraction{DateStr: "2025-05-28", TimeStr: "11:30 PM - 12:00 AM", DurationMinutes: 30}

	slot, err := ResolveSlot(ex, now, time.UTC)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, time.May, 28, 23, 30, 0, 0, time.UTC), slot.Start)
	require.Equal(t, slot.Start.Add(30*time.Minute), slot.End)
}
