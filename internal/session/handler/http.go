// Package handler exposes the session authority over HTTP: login, logout,
// and a debug view of active sessions.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"temp-monitor/backend/internal/server/httpjson"
	"temp-monitor/backend/internal/server/middleware"
	"temp-monitor/backend/internal/session/domain"
	"temp-monitor/backend/internal/session/service"
	"temp-monitor/backend/internal/telemetry"
)

// Handler serves the /auth routes.
type Handler struct {
	authority *service.Authority
	events    telemetry.EventEmitter
}

// New returns a Handler over the given authority. events may be nil.
func New(authority *service.Authority, events telemetry.EventEmitter) *Handler {
	return &Handler{authority: authority, events: events}
}

// Register mounts the auth routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", h.login)
	mux.HandleFunc("POST /auth/logout", h.logout)
	mux.HandleFunc("GET /auth/tokens", h.tokens)
}

type loginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type loginResponse struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeBadRequest, "malformed request body")
		return
	}

	sess, err := h.authority.Login(r.Context(), req.Email, req.Secret)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeInvalidCredentials, "invalid credentials")
			return
		}
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeUpstreamUnavailable, "login failed")
		return
	}

	h.emit(r, "session.login", sess.SubjectID, map[string]string{"email": sess.Email})
	httpjson.Write(w, http.StatusOK, loginResponse{Token: sess.Token, User: sess.User()})
}

type logoutRequest struct {
	Token string `json:"token"`
}

// logout revokes the session named by the request. The token may arrive via
// any of the usual transports or in the body; revoking an unknown or absent
// token still answers ok, logout is idempotent.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromRequest(r)
	if token == "" {
		var req logoutRequest
		if err := httpjson.Decode(w, r, &req); err == nil {
			token = req.Token
		}
	}

	if token != "" {
		if sess, err := h.authority.Validate(r.Context(), token); err == nil {
			h.emit(r, "session.logout", sess.SubjectID, nil)
		}
		h.authority.Revoke(r.Context(), token)
	}
	httpjson.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

type tokensResponse struct {
	Tokens map[string]domain.PublicUser `json:"tokens"`
}

// tokens is a debug endpoint enumerating active sessions keyed by token.
func (h *Handler) tokens(w http.ResponseWriter, r *http.Request) {
	active := h.authority.ListActive(r.Context())
	out := make(map[string]domain.PublicUser, len(active))
	for _, s := range active {
		out[s.Token] = s.User()
	}
	httpjson.Write(w, http.StatusOK, tokensResponse{Tokens: out})
}

func (h *Handler) emit(r *http.Request, eventType, subjectID string, metadata map[string]string) {
	if h.events == nil {
		return
	}
	var raw json.RawMessage
	if metadata != nil {
		raw, _ = json.Marshal(metadata)
	}
	telemetry.EmitAsync(h.events, r.Context(), &telemetry.Event{
		EventType: eventType,
		SubjectID: subjectID,
		Source:    "http",
		Metadata:  raw,
	})
}
