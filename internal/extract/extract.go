// Package extract turns a free-text appointment request into the
// prompt sent to the model and parses the model's fixed-format answer
// back into structured scheduling fields.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultDurationMinutes is assumed when the model omits a duration.
const DefaultDurationMinutes = 60

var (
	// ErrMissingFields signals that the model output lacked one of the
	// mandatory fields (task, scheduled date, scheduled time).
	ErrMissingFields = errors.New("essential scheduling details missing from model output")
	// ErrBadTimeRange signals a scheduled-time string that is not a
	// "3:04 PM - 3:04 PM" range.
	ErrBadTimeRange = errors.New("scheduled time is not a start - end range")
	// ErrPastDate signals a suggested slot on a day that already passed.
	ErrPastDate = errors.New("suggested slot is in the past")
)

// Extraction is the structured record pulled out of the model output.
type Extraction struct {
	Task            string
	Deadline        string
	DateStr         string
	TimeStr         string
	DurationMinutes int
	Priority        string
	Reason          string
	Raw             string
}

// Slot is a resolved concrete time window for the appointment.
type Slot struct {
	Start time.Time
	End   time.Time
	// Adjusted is true when a same-day start in the past was shifted
	// forward to now+5min.
	Adjusted bool
}

const promptTemplate = `You are an expert scheduling assistant. Extract the following details and suggest a time slot.

User's Request: %q

Current Date and Time: %s (Important: use this for context, especially for 'today' or 'tomorrow')

Instructions:
1. Extract 'Task', 'Deadline', 'Duration', and 'Priority'.
2. 'Task': A concise description of the event.
3. 'Deadline': The exact date and time, or a relative phrase like "end of next week". If a specific time is not given but a date is, assume end of day. If only a relative term like "tomorrow" is given, infer the date.
4. 'Duration': In minutes. If not specified, default to 60 minutes.
5. 'Priority': "High", "Normal", or "Low". Default to "Normal".
6. Suggest the best future time slot for the meeting, ensuring it's before the deadline and accommodates the duration. If priority is "High", suggest the earliest reasonable time.
7. Provide a brief 'Reason' for the chosen slot.
8. Always include the year in the 'Scheduled Slot - Date' (e.g., Friday, 28 May 2025).

Respond in the following EXACT format:

Task: [task]
Deadline: [date and time, e.g., Friday, 28 May 2025 at 5:00 PM]
Duration: [duration in minutes]
Priority: [priority]

Scheduled Slot:
 - Date: <Day, DD Month YYYY> (e.g., Friday, 28 May 2025)
 - Time: <HH:MM AM/PM - HH:MM AM/PM> (e.g., 3:00 PM - 3:30 PM)
 - Reason: [reason]`

// Prompt builds the scheduling prompt for a user sentence. The
// current local time is embedded so the model can resolve relative
// phrases like "tomorrow".
func Prompt(sentence string, now time.Time) string {
	return fmt.Sprintf(promptTemplate, sentence, now.Format("Monday, 2 January 2006 3:04 PM MST"))
}

var (
	taskRe     = regexp.MustCompile(`Task:\s*(.+)`)
	deadlineRe = regexp.MustCompile(`Deadline:\s*(.+)`)
	dateRe     = regexp.MustCompile(`Date:\s*(.+)`)
	timeRe     = regexp.MustCompile(`Time:\s*(.+)`)
	durationRe = regexp.MustCompile(`Duration:\s*(\d+)`)
	priorityRe = regexp.MustCompile(`Priority:\s*(.+)`)
	reasonRe   = regexp.MustCompile(`Reason:\s*(.+)`)
)

// Parse extracts the scheduling fields from the model's plain-text
// answer. Task, Date and Time are mandatory; Duration defaults to 60
// minutes and Priority to "Normal".
func Parse(output string) (Extraction, error) {
	ex := Extraction{
		DurationMinutes: DefaultDurationMinutes,
		Priority:        "Normal",
		Raw:             output,
	}

	task := firstGroup(taskRe, output)
	date := firstGroup(dateRe, output)
	timeStr := firstGroup(timeRe, output)
	if task == "" || date == "" || timeStr == "" {
		return ex, fmt.Errorf("%w (task=%q date=%q time=%q)", ErrMissingFields, task, date, timeStr)
	}

	ex.Task = task
	ex.DateStr = date
	ex.TimeStr = timeStr
	ex.Deadline = firstGroup(deadlineRe, output)

	if d := firstGroup(durationRe, output); d != "" {
		minutes, err := strconv.Atoi(d)
		if err == nil && minutes > 0 {
			ex.DurationMinutes = minutes
		}
	}
	if p := firstGroup(priorityRe, output); p != "" {
		ex.Priority = p
	}
	ex.Reason = firstGroup(reasonRe, output)

	return ex, nil
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// dateLayouts are the date spellings the model is allowed to answer
// with. Layouts without a year get the current year filled in.
var dateLayouts = []struct {
	layout  string
	hasYear bool
}{
	{"Monday, 2 January 2006", true},
	{"Monday, 2 January", false},
	{"2 January 2006", true},
	{"January 2, 2006", true},
	{"01/02/2006", true},
	{"2006-01-02", true},
	{"02-01-2006", true},
}

// ParseFlexibleDate parses a date string in any accepted layout.
// Yearless dates resolve to the current year, or the next one if the
// day already passed.
func ParseFlexibleDate(dateStr string, now time.Time) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	for _, l := range dateLayouts {
		d, err := time.Parse(l.layout, dateStr)
		if err != nil {
			continue
		}
		if !l.hasYear {
			d = time.Date(now.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			if d.Before(today) {
				d = d.AddDate(1, 0, 0)
			}
		}
		return d, nil
	}
	return time.Time{}, fmt.Errorf("could not parse scheduled date %q", dateStr)
}

// ResolveSlot combines the extracted date and time range into concrete
// start/end times in loc. A start earlier today is shifted to now+5min
// keeping the extracted duration; a start on an earlier day is ErrPastDate.
func ResolveSlot(ex Extraction, now time.Time, loc *time.Location) (Slot, error) {
	date, err := ParseFlexibleDate(ex.DateStr, now.In(loc))
	if err != nil {
		return Slot{}, err
	}

	if !strings.Contains(ex.TimeStr, " - ") {
		return Slot{}, fmt.Errorf("%w: %q", ErrBadTimeRange, ex.TimeStr)
	}
	parts := strings.SplitN(ex.TimeStr, " - ", 2)
	startClock, err := time.Parse("3:04 PM", strings.TrimSpace(parts[0]))
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %q", ErrBadTimeRange, ex.TimeStr)
	}
	endClock, err := time.Parse("3:04 PM", strings.TrimSpace(parts[1]))
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %q", ErrBadTimeRange, ex.TimeStr)
	}

	start := time.Date(date.Year(), date.Month(), date.Day(), startClock.Hour(), startClock.Minute(), 0, 0, loc)
	end := time.Date(date.Year(), date.Month(), date.Day(), endClock.Hour(), endClock.Minute(), 0, 0, loc)
	if !end.After(start) {
		// Range crossing midnight; keep the extracted duration instead.
		end = start.Add(time.Duration(ex.DurationMinutes) * time.Minute)
	}

	nowLocal := now.In(loc)
	slot := Slot{Start: start, End: end}
	if start.Before(nowLocal) {
		sy, sm, sd := start.Date()
		ny, nm, nd := nowLocal.Date()
		if sy == ny && sm == nm && sd == nd {
			slot.Start = nowLocal.Add(5 * time.Minute)
			slot.End = slot.Start.Add(time.Duration(ex.DurationMinutes) * time.Minute)
			slot.Adjusted = true
		} else {
			return Slot{}, fmt.Errorf("%w: %s", ErrPastDate, start.Format("Monday, 2 January 2006 3:04 PM"))
		}
	}

	return slot, nil
}
