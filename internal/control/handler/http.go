// Package handler exposes the control dispatcher over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"temp-monitor/backend/internal/control"
	"temp-monitor/backend/internal/server/httpjson"
	"temp-monitor/backend/internal/server/middleware"
	sessionservice "temp-monitor/backend/internal/session/service"
	"temp-monitor/backend/internal/telemetry"
)

// Handler serves the control routes.
type Handler struct {
	dispatcher *control.Dispatcher
	events     telemetry.EventEmitter
}

// New returns a Handler over the given dispatcher. events may be nil.
func New(dispatcher *control.Dispatcher, events telemetry.EventEmitter) *Handler {
	return &Handler{dispatcher: dispatcher, events: events}
}

// Register mounts the control routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /control/do", h.do)
}

type doResponse struct {
	OK       bool           `json:"ok"`
	By       string         `json:"by"`
	Received map[string]any `json:"received"`
}

func (h *Handler) do(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := httpjson.Decode(w, r, &payload); err != nil || len(payload) == 0 {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeValidation, "command payload required")
		return
	}

	ack, err := h.dispatcher.Execute(r.Context(), middleware.TokenFromRequest(r), payload)
	if err != nil {
		if errors.Is(err, sessionservice.ErrUnauthorized) {
			httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "valid token required")
			return
		}
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeUpstreamUnavailable, "control dispatch failed")
		return
	}

	meta, _ := json.Marshal(ack.Payload)
	telemetry.EmitAsync(h.events, r.Context(), &telemetry.Event{
		EventType: "control.dispatch",
		SubjectID: ack.AcknowledgedBy,
		Source:    "http",
		Metadata:  meta,
	})
	httpjson.Write(w, http.StatusOK, doResponse{OK: true, By: ack.AcknowledgedBy, Received: ack.Payload})
}
