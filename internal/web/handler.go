// Package web exposes the scheduler over HTTP: a JSON scheduling
// endpoint and a health check.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/penciled/penciled/internal/logger"
	"github.com/penciled/penciled/internal/scheduler"
)

// Processor is the scheduler surface the handlers depend on; it is
// easy to mock in tests.
type Processor interface {
	Process(ctx context.Context, req scheduler.Request) (*scheduler.Confirmation, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewMux builds the HTTP routes.
func NewMux(p Processor) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /schedule", handleSchedule(p))
	mux.HandleFunc("GET /healthz", handleHealthz)
	return mux
}

func handleSchedule(p Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scheduler.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}
		logger.L.Info("schedule request", "sentence", req.Sentence, "dryRun", req.DryRun)

		conf, err := p.Process(r.Context(), req)
		if err != nil {
			logger.L.Error("process error", "err", err, "sentence", req.Sentence)
			status := http.StatusInternalServerError
			if errors.Is(err, scheduler.ErrEmptySentence) {
				status = http.StatusBadRequest
			}
			writeJSON(w, status, errorResponse{Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, conf)
	}
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Warn("failed to encode response", "error", err)
	}
}
