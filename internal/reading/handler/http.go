// Package handler exposes the readings store over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"temp-monitor/backend/internal/reading/domain"
	"temp-monitor/backend/internal/reading/service"
	"temp-monitor/backend/internal/server/httpjson"
	"temp-monitor/backend/internal/telemetry"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler serves the readings routes.
type Handler struct {
	svc    *service.Service
	events telemetry.EventEmitter
}

// New returns a Handler over the given readings service. events may be nil.
func New(svc *service.Service, events telemetry.EventEmitter) *Handler {
	return &Handler{svc: svc, events: events}
}

// Register mounts the readings routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /readings", h.list)
	mux.HandleFunc("POST /api/readings", h.append)
}

type appendRequest struct {
	// Pointers so missing fields are distinguishable from zero values.
	Temperature    *float64 `json:"temperature"`
	ThresholdValue *float64 `json:"threshold_value"`
}

func (h *Handler) append(w http.ResponseWriter, r *http.Request) {
	var req appendRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeBadRequest, "malformed request body")
		return
	}
	if req.Temperature == nil || req.ThresholdValue == nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeValidation, "temperature and threshold_value are required")
		return
	}

	rd, err := h.svc.Append(r.Context(), *req.Temperature, *req.ThresholdValue)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReading) {
			httpjson.Error(w, http.StatusBadRequest, httpjson.CodeValidation, err.Error())
			return
		}
		httpjson.Error(w, http.StatusServiceUnavailable, httpjson.CodeUpstreamUnavailable, "readings store unavailable")
		return
	}

	meta, _ := json.Marshal(map[string]float64{"temperature": rd.Temperature, "threshold_value": rd.ThresholdValue})
	telemetry.EmitAsync(h.events, r.Context(), &telemetry.Event{
		EventType: "reading.append",
		Source:    "http",
		Metadata:  meta,
	})
	httpjson.Write(w, http.StatusCreated, rd)
}

type pageResponse struct {
	Page  int               `json:"page"`
	Size  int               `json:"size"`
	Total int               `json:"total"`
	Data  []*domain.Reading `json:"data"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", defaultPageSize)
	if size > maxPageSize {
		size = maxPageSize
	}

	p, err := h.svc.ListPage(r.Context(), page, size)
	if err != nil {
		httpjson.Error(w, http.StatusServiceUnavailable, httpjson.CodeUpstreamUnavailable, "readings store unavailable")
		return
	}
	httpjson.Write(w, http.StatusOK, pageResponse{Page: page, Size: size, Total: p.Total, Data: p.Items})
}

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
