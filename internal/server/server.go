// Package server assembles the HTTP surface: feature handlers mounted on one
// mux plus the health and channel snapshot endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"temp-monitor/backend/internal/channel"
	"temp-monitor/backend/internal/control"
	controlhandler "temp-monitor/backend/internal/control/handler"
	readinghandler "temp-monitor/backend/internal/reading/handler"
	readingservice "temp-monitor/backend/internal/reading/service"
	"temp-monitor/backend/internal/server/httpjson"
	sessionhandler "temp-monitor/backend/internal/session/handler"
	sessionservice "temp-monitor/backend/internal/session/service"
	"temp-monitor/backend/internal/telemetry"
	thresholdhandler "temp-monitor/backend/internal/threshold/handler"
	thresholdservice "temp-monitor/backend/internal/threshold/service"
)

// Pinger reports backing-store reachability for the health endpoint
// (e.g. *sql.DB). A nil Pinger skips the check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SnapshotSource exposes the sensor channel state to the HTTP surface.
// A nil source means the channel is not configured.
type SnapshotSource interface {
	Snapshot() channel.Snapshot
}

// Deps holds the wired services each route group needs. Nil entries leave
// the corresponding routes unregistered.
type Deps struct {
	// Authority serves the /auth routes and gates writes elsewhere.
	Authority *sessionservice.Authority
	// Thresholds serves the /api/thresholds routes.
	Thresholds *thresholdservice.Service
	// Readings serves the /readings and /api/readings routes.
	Readings *readingservice.Service
	// Dispatcher serves POST /control/do.
	Dispatcher *control.Dispatcher
	// Channel serves GET /channel. If nil, the route answers 503.
	Channel SnapshotSource
	// Pinger is checked by GET /. If nil, the health check skips the store.
	Pinger Pinger
	// Events receives session telemetry. May be nil.
	Events telemetry.EventEmitter
}

// NewMux builds the full route table from deps.
func NewMux(deps Deps) *http.ServeMux {
	mux := http.NewServeMux()

	if deps.Authority != nil {
		sessionhandler.New(deps.Authority, deps.Events).Register(mux)
	}
	if deps.Thresholds != nil {
		thresholdhandler.New(deps.Thresholds, deps.Events).Register(mux)
	}
	if deps.Readings != nil {
		readinghandler.New(deps.Readings, deps.Events).Register(mux)
	}
	if deps.Dispatcher != nil {
		controlhandler.New(deps.Dispatcher, deps.Events).Register(mux)
	}

	mux.HandleFunc("GET /{$}", health(deps.Pinger))
	mux.HandleFunc("GET /channel", channelSnapshot(deps.Channel))

	return mux
}

type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

func health(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pinger.PingContext(ctx); err != nil {
				httpjson.Error(w, http.StatusServiceUnavailable, httpjson.CodeUpstreamUnavailable, "store unreachable")
				return
			}
		}
		httpjson.Write(w, http.StatusOK, healthResponse{Status: "ok", Time: time.Now().UTC()})
	}
}

func channelSnapshot(src SnapshotSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if src == nil {
			httpjson.Error(w, http.StatusServiceUnavailable, httpjson.CodeUpstreamUnavailable, "sensor channel not configured")
			return
		}
		httpjson.Write(w, http.StatusOK, src.Snapshot())
	}
}
