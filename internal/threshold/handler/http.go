// Package handler exposes the threshold store over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"temp-monitor/backend/internal/server/httpjson"
	"temp-monitor/backend/internal/server/middleware"
	sessionservice "temp-monitor/backend/internal/session/service"
	"temp-monitor/backend/internal/telemetry"
	"temp-monitor/backend/internal/threshold/domain"
	"temp-monitor/backend/internal/threshold/service"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler serves the threshold routes.
type Handler struct {
	svc    *service.Service
	events telemetry.EventEmitter
}

// New returns a Handler over the given threshold service. events may be nil.
func New(svc *service.Service, events telemetry.EventEmitter) *Handler {
	return &Handler{svc: svc, events: events}
}

// Register mounts the threshold routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/thresholds", h.list)
	mux.HandleFunc("GET /api/thresholds/latest", h.latest)
	mux.HandleFunc("POST /api/thresholds", h.create)
}

type createRequest struct {
	// Value is a pointer so "value missing" and "value: 0" stay distinguishable.
	Value *float64 `json:"value"`
	Note  *string  `json:"note"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeBadRequest, "malformed request body")
		return
	}
	if req.Value == nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeValidation, "value is required")
		return
	}

	rec, err := h.svc.Create(r.Context(), middleware.TokenFromRequest(r), *req.Value, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, sessionservice.ErrUnauthorized):
			httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "valid token required")
		case errors.Is(err, service.ErrInvalidValue):
			httpjson.Error(w, http.StatusBadRequest, httpjson.CodeValidation, err.Error())
		default:
			httpjson.Error(w, http.StatusServiceUnavailable, httpjson.CodeUpstreamUnavailable, "threshold store unavailable")
		}
		return
	}

	meta, _ := json.Marshal(map[string]float64{"value": rec.Value})
	telemetry.EmitAsync(h.events, r.Context(), &telemetry.Event{
		EventType: "threshold.create",
		SubjectID: rec.CreatedBy,
		Source:    "http",
		Metadata:  meta,
	})
	httpjson.Write(w, http.StatusCreated, rec)
}

// latest answers 200 with the newest record, or a JSON null body when the
// store is empty.
func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Latest(r.Context())
	if err != nil {
		httpjson.Error(w, http.StatusServiceUnavailable, httpjson.CodeUpstreamUnavailable, "threshold store unavailable")
		return
	}
	httpjson.Write(w, http.StatusOK, rec)
}

type pageResponse struct {
	Page  int                       `json:"page"`
	Size  int                       `json:"size"`
	Total int                       `json:"total"`
	Data  []*domain.ThresholdRecord `json:"data"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", defaultPageSize)
	if size > maxPageSize {
		size = maxPageSize
	}

	p, err := h.svc.List(r.Context(), page, size)
	if err != nil {
		httpjson.Error(w, http.StatusServiceUnavailable, httpjson.CodeUpstreamUnavailable, "threshold store unavailable")
		return
	}
	httpjson.Write(w, http.StatusOK, pageResponse{Page: page, Size: size, Total: p.Total, Data: p.Items})
}

// queryInt parses an integer query parameter, falling back to def on absence
// or garbage.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
