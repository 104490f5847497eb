package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"temp-monitor/backend/internal/control"
	sessiondomain "temp-monitor/backend/internal/session/domain"
	sessionservice "temp-monitor/backend/internal/session/service"
)

type stubValidator struct {
	token string
	sess  *sessiondomain.Session
}

func (v *stubValidator) Validate(ctx context.Context, token string) (*sessiondomain.Session, error) {
	if token != v.token {
		return nil, sessionservice.ErrUnauthorized
	}
	return v.sess, nil
}

func newTestMux() *http.ServeMux {
	d := control.NewDispatcher(&stubValidator{
		token: "good-token",
		sess:  &sessiondomain.Session{Token: "good-token", SubjectID: "subj-1", Email: "student@example.com"},
	})
	mux := http.NewServeMux()
	New(d, nil).Register(mux)
	return mux
}

func do(t *testing.T, mux *http.ServeMux, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest("POST", "/control/do", nil)
	} else {
		r = httptest.NewRequest("POST", "/control/do", strings.NewReader(body))
	}
	for k, v := range header {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func TestDo_EchoesPayload(t *testing.T) {
	mux := newTestMux()

	w := do(t, mux, `{"action":"toggle","ts":"2026-09-01T00:00:00Z"}`, map[string]string{"token": "good-token"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body)
	}
	var resp struct {
		OK       bool           `json:"ok"`
		By       string         `json:"by"`
		Received map[string]any `json:"received"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.By != "subj-1" {
		t.Errorf("ack = %+v", resp)
	}
	if resp.Received["action"] != "toggle" {
		t.Errorf("payload not echoed: %v", resp.Received)
	}
}

func TestDo_InvalidToken(t *testing.T) {
	mux := newTestMux()

	w := do(t, mux, `{"action":"toggle"}`, map[string]string{"token": "bad"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "unauthorized" {
		t.Errorf("code = %q, want unauthorized", resp.Code)
	}
}

func TestDo_MissingPayload(t *testing.T) {
	mux := newTestMux()

	for _, body := range []string{"", "{}"} {
		if w := do(t, mux, body, map[string]string{"token": "good-token"}); w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}
