package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	sessiondomain "temp-monitor/backend/internal/session/domain"
	sessionservice "temp-monitor/backend/internal/session/service"
	"temp-monitor/backend/internal/threshold/domain"
	"temp-monitor/backend/internal/threshold/repository"
	"temp-monitor/backend/internal/threshold/service"
)

type memRepo struct {
	mu     sync.Mutex
	nextID int64
	recs   []*domain.ThresholdRecord
}

func (r *memRepo) Insert(ctx context.Context, rec *domain.ThresholdRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rec.ID = r.nextID
	stored := *rec
	r.recs = append(r.recs, &stored)
	return nil
}

func (r *memRepo) Latest(ctx context.Context) (*domain.ThresholdRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.recs) == 0 {
		return nil, nil
	}
	sorted := r.sortedLocked()
	return sorted[0], nil
}

func (r *memRepo) ListPage(ctx context.Context, limit, offset int) (*repository.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sorted := r.sortedLocked()
	total := len(sorted)
	if offset >= total {
		return &repository.Page{Items: []*domain.ThresholdRecord{}, Total: total}, nil
	}
	end := min(offset+limit, total)
	return &repository.Page{Items: sorted[offset:end], Total: total}, nil
}

func (r *memRepo) sortedLocked() []*domain.ThresholdRecord {
	sorted := make([]*domain.ThresholdRecord, len(r.recs))
	copy(sorted, r.recs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	return sorted
}

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

func newTestMux(t *testing.T) (*http.ServeMux, *memRepo) {
	t.Helper()
	repo := &memRepo{}
	svc := service.NewService(repo, &stubValidator{
		token: "good-token",
		sess:  &sessiondomain.Session{Token: "good-token", SubjectID: "subj-1", Email: "student@example.com"},
	})
	mux := http.NewServeMux()
	New(svc, nil).Register(mux)
	return mux, repo
}

func do(t *testing.T, mux *http.ServeMux, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for k, v := range header {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func TestCreate_RequiresToken(t *testing.T) {
	mux, repo := newTestMux(t)

	w := do(t, mux, "POST", "/api/thresholds", `{"value":25}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401; body %s", w.Code, w.Body)
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
	if len(repo.recs) != 0 {
		t.Error("unauthorized create persisted a record")
	}
}

func TestCreate_TokenTransports(t *testing.T) {
	cases := []struct {
		name   string
		target string
		header map[string]string
	}{
		{"token header", "/api/thresholds", map[string]string{"token": "good-token"}},
		{"bearer", "/api/thresholds", map[string]string{"Authorization": "Bearer good-token"}},
		{"query", "/api/thresholds?token=good-token", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux, _ := newTestMux(t)
			w := do(t, mux, "POST", tc.target, `{"value":25.5,"note":"afternoon"}`, tc.header)
			if w.Code != http.StatusCreated {
				t.Fatalf("status = %d, want 201; body %s", w.Code, w.Body)
			}
			var rec domain.ThresholdRecord
			if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if rec.ID == 0 || rec.Value != 25.5 || rec.CreatedBy != "subj-1" {
				t.Errorf("created record = %+v", rec)
			}
		})
	}
}

func TestCreate_Validation(t *testing.T) {
	mux, _ := newTestMux(t)
	auth := map[string]string{"token": "good-token"}

	cases := []struct{ name, body string }{
		{"missing value", `{"note":"no value"}`},
		{"malformed json", `{`},
		{"non-numeric value", `{"value":"high"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := do(t, mux, "POST", "/api/thresholds", tc.body, auth); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestLatest_EmptyStoreIsNull(t *testing.T) {
	mux, _ := newTestMux(t)

	w := do(t, mux, "GET", "/api/thresholds/latest", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "null" {
		t.Errorf("empty store body = %q, want null", got)
	}
}

func TestLatest_AfterCreate(t *testing.T) {
	mux, _ := newTestMux(t)
	auth := map[string]string{"token": "good-token"}

	for _, body := range []string{`{"value":20}`, `{"value":30}`} {
		if w := do(t, mux, "POST", "/api/thresholds", body, auth); w.Code != http.StatusCreated {
			t.Fatalf("create status = %d", w.Code)
		}
	}

	w := do(t, mux, "GET", "/api/thresholds/latest", "", nil)
	var rec domain.ThresholdRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Value != 30 {
		t.Errorf("latest value = %v, want the most recent create", rec.Value)
	}
}

func TestList_PaginationEnvelope(t *testing.T) {
	mux, _ := newTestMux(t)
	auth := map[string]string{"token": "good-token"}

	for i := 0; i < 5; i++ {
		if w := do(t, mux, "POST", "/api/thresholds", `{"value":21}`, auth); w.Code != http.StatusCreated {
			t.Fatalf("create status = %d", w.Code)
		}
	}

	w := do(t, mux, "GET", "/api/thresholds?page=2&size=2", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Page  int                       `json:"page"`
		Size  int                       `json:"size"`
		Total int                       `json:"total"`
		Data  []*domain.ThresholdRecord `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Page != 2 || resp.Size != 2 || resp.Total != 5 || len(resp.Data) != 2 {
		t.Errorf("envelope = page %d size %d total %d len %d", resp.Page, resp.Size, resp.Total, len(resp.Data))
	}
}

func TestList_GarbageQueryFallsBack(t *testing.T) {
	mux, _ := newTestMux(t)

	w := do(t, mux, "GET", "/api/thresholds?page=zero&size=-3", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Page int `json:"page"`
		Size int `json:"size"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Page != 1 || resp.Size != defaultPageSize {
		t.Errorf("fallback = page %d size %d, want 1/%d", resp.Page, resp.Size, defaultPageSize)
	}
}
