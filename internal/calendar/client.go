// Package calendar wraps the Google Calendar v3 API behind the small
// surface the scheduler needs: build an event payload and insert it.
package calendar

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/penciled/penciled/internal/config"
	"github.com/penciled/penciled/internal/logger"
)

// Draft is the provider-independent event payload handed to Insert.
type Draft struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// Created carries the fields of the inserted event that are surfaced
// back to the user.
type Created struct {
	ID       string
	HTMLLink string
}

// Client provides an authenticated Google Calendar client bound to one
// calendar.
type Client struct {
	service    *calendar.Service
	calendarID string
	timezone   string
}

// NewClient creates a Google Calendar client from the configured OAuth
// credentials and cached token. The token must have been obtained with
// the auth command first.
func NewClient(ctx context.Context, cfg config.GoogleConfig) (*Client, error) {
	oauthCfg, err := LoadOAuthConfig(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth config: %w", err)
	}

	token, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token from %s: %w. Please run the 'auth' command first", cfg.TokenFile, err)
	}

	httpClient := oauthCfg.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &Client{
		service:    service,
		calendarID: cfg.CalendarID,
		timezone:   cfg.Timezone,
	}, nil
}

// BuildEvent converts a draft into the Calendar API event payload,
// including the fixed reminder overrides (email a day before, popup
// ten minutes before).
func (c *Client) BuildEvent(draft Draft) *calendar.Event {
	return buildEvent(draft, c.timezone)
}

func buildEvent(draft Draft, timezone string) *calendar.Event {
	ev := &calendar.Event{
		Summary:     draft.Title,
		Description: draft.Description,
		Start: &calendar.EventDateTime{
			DateTime: draft.Start.Format(time.RFC3339),
			TimeZone: timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: draft.End.Format(time.RFC3339),
			TimeZone: timezone,
		},
		Reminders: &calendar.EventReminders{
			UseDefault:      false,
			ForceSendFields: []string{"UseDefault"},
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 10},
			},
		},
	}
	for _, email := range draft.Attendees {
		ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: email})
	}
	return ev
}

// Insert creates the event in the configured calendar and returns the
// created event's ID and link.
func (c *Client) Insert(ctx context.Context, draft Draft) (Created, error) {
	created, err := c.service.Events.Insert(c.calendarID, c.BuildEvent(draft)).Context(ctx).Do()
	if err != nil {
		return Created{}, fmt.Errorf("failed to insert event: %w", err)
	}

	logger.L.Info("event created", "calendarID", c.calendarID, "eventID", created.Id, "summary", draft.Title)
	return Created{ID: created.Id, HTMLLink: created.HtmlLink}, nil
}
