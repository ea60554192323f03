// Package ics renders a scheduled appointment as an iCalendar file so
// it can be imported into non-Google calendars.
package ics

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/emersion/go-ical"
)

// Event is the subset of a scheduled appointment that ends up in the
// VEVENT.
type Event struct {
	UID         string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// Encode writes the event as a single-VEVENT iCalendar stream.
func Encode(w io.Writer, event Event) error {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, event.UID)
	ve.Props.SetText(ical.PropSummary, event.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, event.Start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, event.End)
	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	for _, attendee := range event.Attendees {
		p := ical.NewProp(ical.PropAttendee)
		p.SetText(fmt.Sprintf("mailto:%s", attendee))
		ve.Props.Add(p)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//penciled//EN")
	cal.Children = append(cal.Children, ve)

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	return nil
}

// WriteFile encodes the event into a new .ics file at path.
func WriteFile(path string, event Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create ics file: %w", err)
	}
	defer f.Close()
	return Encode(f, event)
}
