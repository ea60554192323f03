// Package scheduler drives one natural-language request through the
// scheduling pipeline: model extraction, response parsing, slot
// resolution, calendar insertion.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"
	"github.com/sashabaranov/go-openai"

	"github.com/penciled/penciled/internal/calendar"
	"github.com/penciled/penciled/internal/config"
	"github.com/penciled/penciled/internal/extract"
	"github.com/penciled/penciled/internal/history"
	"github.com/penciled/penciled/internal/llm"
	"github.com/penciled/penciled/internal/logger"
)

// FSM States
type FSMState stateless.State

var (
	StateExtracting FSMState = "Extracting"
	StateParsing    FSMState = "Parsing"
	StateResolving  FSMState = "Resolving"
	StateInserting  FSMState = "Inserting"
	StateDone       FSMState = "Done"   // Terminal: successful completion
	StateFailed     FSMState = "Failed" // Terminal: error state
)

// FSM Triggers
type FSMTrigger stateless.Trigger

var (
	TriggerStart         FSMTrigger = "Start"
	TriggerExtracted     FSMTrigger = "Extracted"
	TriggerParsed        FSMTrigger = "Parsed"
	TriggerResolved      FSMTrigger = "Resolved"
	TriggerInserted      FSMTrigger = "Inserted"
	TriggerErrorOccurred FSMTrigger = "ErrorOccurred"
)

// ErrEmptySentence is returned when the request carries no text.
var ErrEmptySentence = errors.New("appointment description is empty")

// Inserter is the calendar surface the scheduler depends on; it is
// easy to mock in tests.
type Inserter interface {
	Insert(ctx context.Context, draft calendar.Draft) (calendar.Created, error)
}

// Request is one scheduling request.
type Request struct {
	ID        string   `json:"id,omitempty"`
	Sentence  string   `json:"sentence"`
	Attendees []string `json:"attendees,omitempty"`
	DryRun    bool     `json:"dry_run,omitempty"`
}

// Confirmation is the outcome of a successfully processed request.
type Confirmation struct {
	RequestID       string    `json:"request_id"`
	EventID         string    `json:"event_id,omitempty"`
	HTMLLink        string    `json:"html_link,omitempty"`
	Title           string    `json:"title"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
	Priority        string    `json:"priority"`
	Reason          string    `json:"reason,omitempty"`
	RawAnalysis     string    `json:"raw_analysis"`
	Adjusted        bool      `json:"adjusted"`
	DryRun          bool      `json:"dry_run"`
}

// Scheduler orchestrates the pipeline.
type Scheduler struct {
	llmClient llm.Client
	inserter  Inserter
	model     string
	loc       *time.Location

	now func() time.Time
}

// New creates a scheduler. The inserter may be nil only when every
// request is a dry run.
func New(llmClient llm.Client, inserter Inserter, cfg config.Config) (*Scheduler, error) {
	tz := cfg.Google.Timezone
	if tz == "" {
		tz = "Local"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return &Scheduler{
		llmClient: llmClient,
		inserter:  inserter,
		model:     cfg.LLM.Model,
		loc:       loc,
		now:       time.Now,
	}, nil
}

// Process runs one request through the pipeline and returns the
// confirmation. The pipeline is a finite state machine; every step
// routes to the Failed state on error, and every attempt, failed or
// not, is recorded in history.
func (s *Scheduler) Process(ctx context.Context, req Request) (*Confirmation, error) {
	if req.Sentence == "" {
		return nil, ErrEmptySentence
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	// FSM context data
	type fsmContext struct {
		raw       string
		ex        extract.Extraction
		slot      extract.Slot
		created   calendar.Created
		stage     string
		lastError error
	}
	fsmCtx := &fsmContext{}

	fsm := stateless.NewStateMachine(StateExtracting)

	fail := func(ctx context.Context, stage string, err error) error {
		fsmCtx.stage = stage
		fsmCtx.lastError = err
		return fsm.FireCtx(ctx, TriggerErrorOccurred)
	}

	// State: Extracting
	// Action: send the scheduling prompt to the model.
	fsm.Configure(StateExtracting).
		PermitReentry(TriggerStart).
		OnEntry(func(ctx context.Context, args ...any) error {
			logger.L.Debug("FSM: Entering StateExtracting", "requestID", req.ID)
			prompt := extract.Prompt(req.Sentence, s.now().In(s.loc))
			resp, err := s.llmClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model: s.model,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleUser, Content: prompt},
				},
			})
			if err != nil {
				logger.L.Error("LLM call failed", "error", err)
				return fail(ctx, "extract", err)
			}
			if len(resp.Choices) == 0 {
				return fail(ctx, "extract", errors.New("model returned no choices"))
			}
			fsmCtx.raw = resp.Choices[0].Message.Content
			logger.L.Debug("model output received", "output", fsmCtx.raw)
			return fsm.FireCtx(ctx, TriggerExtracted)
		}).
		Permit(TriggerExtracted, StateParsing).
		Permit(TriggerErrorOccurred, StateFailed)

	// State: Parsing
	// Action: regex-parse the fixed-format model answer.
	fsm.Configure(StateParsing).
		OnEntry(func(ctx context.Context, args ...any) error {
			logger.L.Debug("FSM: Entering StateParsing")
			ex, err := extract.Parse(fsmCtx.raw)
			if err != nil {
				return fail(ctx, "parse", err)
			}
			fsmCtx.ex = ex
			return fsm.FireCtx(ctx, TriggerParsed)
		}).
		Permit(TriggerParsed, StateResolving).
		Permit(TriggerErrorOccurred, StateFailed)

	// State: Resolving
	// Action: turn date/time strings into a concrete future slot.
	fsm.Configure(StateResolving).
		OnEntry(func(ctx context.Context, args ...any) error {
			logger.L.Debug("FSM: Entering StateResolving")
			slot, err := extract.ResolveSlot(fsmCtx.ex, s.now(), s.loc)
			if err != nil {
				return fail(ctx, "resolve", err)
			}
			if slot.Adjusted {
				logger.L.Warn("suggested start was in the past; shifted forward", "start", slot.Start)
			}
			fsmCtx.slot = slot
			return fsm.FireCtx(ctx, TriggerResolved)
		}).
		Permit(TriggerResolved, StateInserting).
		Permit(TriggerErrorOccurred, StateFailed)

	// State: Inserting
	// Action: create the calendar event, unless dry-running.
	fsm.Configure(StateInserting).
		OnEntry(func(ctx context.Context, args ...any) error {
			logger.L.Debug("FSM: Entering StateInserting", "dryRun", req.DryRun)
			if req.DryRun {
				return fsm.FireCtx(ctx, TriggerInserted)
			}
			if s.inserter == nil {
				return fail(ctx, "insert", errors.New("no calendar client configured"))
			}
			created, err := s.inserter.Insert(ctx, calendar.Draft{
				Title:       fsmCtx.ex.Task,
				Description: s.describe(req.Sentence, fsmCtx.raw),
				Start:       fsmCtx.slot.Start,
				End:         fsmCtx.slot.End,
				Attendees:   req.Attendees,
			})
			if err != nil {
				return fail(ctx, "insert", err)
			}
			fsmCtx.created = created
			return fsm.FireCtx(ctx, TriggerInserted)
		}).
		Permit(TriggerInserted, StateDone).
		Permit(TriggerErrorOccurred, StateFailed)

	fsm.Configure(StateDone)
	fsm.Configure(StateFailed)

	if err := fsm.FireCtx(ctx, TriggerStart); err != nil {
		logger.L.Warn("FSM fire error", "error", err)
	}

	currentState, err := fsm.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("FSM internal error: %w", err)
	}

	if currentState == StateFailed {
		if fsmCtx.lastError == nil {
			fsmCtx.lastError = errors.New("pipeline failed without a specific error")
		}
		s.record(req, fsmCtx.raw, nil, fsmCtx.lastError)
		return nil, fmt.Errorf("%s: %w", fsmCtx.stage, fsmCtx.lastError)
	}
	if currentState != StateDone {
		return nil, fmt.Errorf("FSM ended in an unexpected state: %v", currentState)
	}

	conf := &Confirmation{
		RequestID:       req.ID,
		EventID:         fsmCtx.created.ID,
		HTMLLink:        fsmCtx.created.HTMLLink,
		Title:           fsmCtx.ex.Task,
		Start:           fsmCtx.slot.Start,
		End:             fsmCtx.slot.End,
		DurationMinutes: int(fsmCtx.slot.End.Sub(fsmCtx.slot.Start) / time.Minute),
		Priority:        fsmCtx.ex.Priority,
		Reason:          fsmCtx.ex.Reason,
		RawAnalysis:     fsmCtx.raw,
		Adjusted:        fsmCtx.slot.Adjusted,
		DryRun:          req.DryRun,
	}
	s.record(req, fsmCtx.raw, conf, nil)
	return conf, nil
}

// Summary renders the confirmation as the short human-readable text
// shown by the CLI and the MCP tool.
func (c *Confirmation) Summary() string {
	var b strings.Builder
	if c.DryRun {
		b.WriteString("Dry run: appointment not created.\n")
	} else {
		b.WriteString("Appointment scheduled.\n")
	}
	fmt.Fprintf(&b, "Event:    %s\n", c.Title)
	fmt.Fprintf(&b, "Date:     %s\n", c.Start.Format("Monday, January 2, 2006"))
	fmt.Fprintf(&b, "Time:     %s - %s\n", c.Start.Format("3:04 PM"), c.End.Format("3:04 PM"))
	fmt.Fprintf(&b, "Duration: %d minutes\n", c.DurationMinutes)
	if c.Adjusted {
		b.WriteString("Note: the suggested start was in the past and was shifted to now+5min.\n")
	}
	if c.EventID != "" {
		fmt.Fprintf(&b, "Event ID: %s\n", c.EventID)
	}
	if c.HTMLLink != "" {
		fmt.Fprintf(&b, "Link:     %s\n", c.HTMLLink)
	}
	return b.String()
}

// describe builds the event description embedding the original
// request and the raw model analysis.
func (s *Scheduler) describe(sentence, raw string) string {
	return fmt.Sprintf("Scheduled via penciled.\n\nOriginal request: %q\n\nModel analysis:\n%s", sentence, raw)
}

func (s *Scheduler) record(req Request, raw string, conf *Confirmation, procErr error) {
	rec := history.Record{
		RequestID: req.ID,
		Sentence:  req.Sentence,
		RawOutput: raw,
		CreatedAt: s.now().UTC(),
	}
	switch {
	case procErr != nil:
		rec.Status = history.StatusFailed
		rec.Error = procErr.Error()
	case req.DryRun:
		rec.Status = history.StatusDryRun
		rec.StartsAt = conf.Start
		rec.EndsAt = conf.End
	default:
		rec.Status = history.StatusScheduled
		rec.EventID = conf.EventID
		rec.HTMLLink = conf.HTMLLink
		rec.StartsAt = conf.Start
		rec.EndsAt = conf.End
	}
	history.Save(rec)
}
