package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/softforge/pipewright/internal/event"
	"github.com/softforge/pipewright/internal/pipeline"
	"github.com/softforge/pipewright/internal/trigger"
)

// Dispatch hands an accepted event's run input to the execution layer.
type Dispatch func(ctx context.Context, in pipeline.RunInput)

type Handler struct {
	log      *slog.Logger
	workflow string
	filter   *trigger.Filter
	dispatch Dispatch
}

func NewHandler(log *slog.Logger, workflow string, filter *trigger.Filter, dispatch Dispatch) *Handler {
	return &Handler{log: log, workflow: workflow, filter: filter, dispatch: dispatch}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /events", h.handleEvent)
	mux.HandleFunc("GET /healthz", h.handleHealthz)
}

type eventResponse struct {
	Status string `json:"status"`
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := event.Decode(r.Body)
	if err != nil {
		h.log.Warn("rejecting malformed event", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !h.filter.Decide(ev) {
		pipeline.EventsSkippedTotal.WithLabelValues(h.workflow).Inc()
		h.log.Info("event skipped by trigger filter",
			"type", ev.Type, "branch", ev.Branch, "changed_paths", len(ev.ChangedPaths))
		writeJSON(w, http.StatusAccepted, eventResponse{Status: "skipped"})
		return
	}

	// The run outlives this request; it must not inherit the request
	// context.
	h.dispatch(context.WithoutCancel(r.Context()), pipeline.RunInput{
		Branch: ev.Branch,
		Commit: ev.Commit,
	})
	h.log.Info("event accepted", "type", ev.Type, "branch", ev.Branch, "commit", ev.Commit)
	writeJSON(w, http.StatusAccepted, eventResponse{Status: "accepted"})
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, eventResponse{Status: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
