package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/penciled/penciled/internal/scheduler"
)

type mockProcessor struct {
	conf *scheduler.Confirmation
	err  error
	last scheduler.Request
}

func (m *mockProcessor) Process(ctx context.Context, req scheduler.Request) (*scheduler.Confirmation, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.conf, nil
}

func TestHandleSchedule_OK(t *testing.T) {
	start := time.Date(2025, time.May, 27, 14, 0, 0, 0, time.UTC)
	p := &mockProcessor{conf: &scheduler.Confirmation{
		RequestID: "req-1",
		EventID:   "evt-1",
		HTMLLink:  "https://calendar.google.com/event?eid=evt-1",
		Title:     "Marketing meeting",
		Start:     start,
		End:       start.Add(time.Hour),
	}}
	mux := NewMux(p)

	body := `{"sentence":"meeting with marketing next Tuesday at 2 PM","attendees":["a@example.com"]}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/schedule", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var conf scheduler.Confirmation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conf))
	require.Equal(t, "evt-1", conf.EventID)
	require.Equal(t, "Marketing meeting", conf.Title)

	require.Equal(t, "meeting with marketing next Tuesday at 2 PM", p.last.Sentence)
	require.Equal(t, []string{"a@example.com"}, p.last.Attendees)
}

func TestHandleSchedule_BadJSON(t *testing.T) {
	mux := NewMux(&mockProcessor{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/schedule", strings.NewReader("not json")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSchedule_EmptySentence(t *testing.T) {
	mux := NewMux(&mockProcessor{err: scheduler.ErrEmptySentence})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/schedule", strings.NewReader(`{"sentence":""}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSchedule_ProcessError(t *testing.T) {
	mux := NewMux(&mockProcessor{err: context.DeadlineExceeded})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/schedule", strings.NewReader(`{"sentence":"hi"}`)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthz(t *testing.T) {
	mux := NewMux(&mockProcessor{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
}
