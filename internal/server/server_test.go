package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"temp-monitor/backend/internal/config"
	"temp-monitor/backend/internal/control"
	readingdomain "temp-monitor/backend/internal/reading/domain"
	readingrepo "temp-monitor/backend/internal/reading/repository"
	readingservice "temp-monitor/backend/internal/reading/service"
	"temp-monitor/backend/internal/security"
	sessionservice "temp-monitor/backend/internal/session/service"
	thresholddomain "temp-monitor/backend/internal/threshold/domain"
	thresholdrepo "temp-monitor/backend/internal/threshold/repository"
	thresholdservice "temp-monitor/backend/internal/threshold/service"
)

type memThresholdRepo struct {
	mu     sync.Mutex
	nextID int64
	recs   []*thresholddomain.ThresholdRecord
}

func (r *memThresholdRepo) Insert(ctx context.Context, rec *thresholddomain.ThresholdRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rec.ID = r.nextID
	stored := *rec
	r.recs = append(r.recs, &stored)
	return nil
}

func (r *memThresholdRepo) Latest(ctx context.Context) (*thresholddomain.ThresholdRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.recs) == 0 {
		return nil, nil
	}
	sorted := r.sortedLocked()
	return sorted[0], nil
}

func (r *memThresholdRepo) ListPage(ctx context.Context, limit, offset int) (*thresholdrepo.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sorted := r.sortedLocked()
	total := len(sorted)
	if offset >= total {
		return &thresholdrepo.Page{Items: []*thresholddomain.ThresholdRecord{}, Total: total}, nil
	}
	end := min(offset+limit, total)
	return &thresholdrepo.Page{Items: sorted[offset:end], Total: total}, nil
}

func (r *memThresholdRepo) sortedLocked() []*thresholddomain.ThresholdRecord {
	sorted := make([]*thresholddomain.ThresholdRecord, len(r.recs))
	copy(sorted, r.recs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	return sorted
}

type memReadingRepo struct {
	mu     sync.Mutex
	nextID int64
	recs   []*readingdomain.Reading
}

func (r *memReadingRepo) Insert(ctx context.Context, rd *readingdomain.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rd.ID = r.nextID
	stored := *rd
	r.recs = append(r.recs, &stored)
	return nil
}

func (r *memReadingRepo) ListPage(ctx context.Context, limit, offset int) (*readingrepo.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := len(r.recs)
	if offset >= total {
		return &readingrepo.Page{Items: []*readingdomain.Reading{}, Total: total}, nil
	}
	end := min(offset+limit, total)
	// Tests append sequentially; reverse order approximates newest-first.
	out := make([]*readingdomain.Reading, 0, end-offset)
	for i := total - 1 - offset; i >= total-end; i-- {
		out = append(out, r.recs[i])
	}
	return &readingrepo.Page{Items: out, Total: total}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	hasher := security.NewHasher(4)
	reg, err := sessionservice.NewRegistry([]config.Credential{
		{Email: "student@example.com", Secret: "password123", DisplayName: "Praktikan A"},
	}, hasher)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	authority := sessionservice.NewAuthority(reg, hasher)

	mux := NewMux(Deps{
		Authority:  authority,
		Thresholds: thresholdservice.NewService(&memThresholdRepo{}, authority),
		Readings:   readingservice.NewService(&memReadingRepo{}),
		Dispatcher: control.NewDispatcher(authority),
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status field = %q, want ok", body.Status)
	}
}

func TestChannel_Unconfigured(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/channel")
	if err != nil {
		t.Fatalf("GET /channel: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when channel is not configured", resp.StatusCode)
	}
}

func TestLoginThresholdFlow(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	// Login.
	resp, err := client.Post(srv.URL+"/auth/login", "application/json",
		strings.NewReader(`{"email":"student@example.com","secret":"password123"}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	var login struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	resp.Body.Close()
	if login.Token == "" {
		t.Fatal("empty token")
	}

	// Create a threshold with the bearer transport.
	req, _ := http.NewRequest("POST", srv.URL+"/api/thresholds", strings.NewReader(`{"value":28.5,"note":"integration"}`))
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("create threshold: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	resp.Body.Close()

	// The latest endpoint reflects the write immediately.
	resp, err = client.Get(srv.URL + "/api/thresholds/latest")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	var latest struct {
		Value     float64 `json:"value"`
		CreatedBy string  `json:"created_by"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&latest); err != nil {
		t.Fatalf("decode latest: %v", err)
	}
	resp.Body.Close()
	if latest.Value != 28.5 {
		t.Errorf("latest value = %v, want 28.5", latest.Value)
	}
	if latest.CreatedBy != login.User.ID {
		t.Errorf("created_by = %q, want the session subject %q", latest.CreatedBy, login.User.ID)
	}

	// Control dispatch with the query-parameter transport.
	resp, err = client.Post(srv.URL+"/control/do?token="+login.Token, "application/json",
		strings.NewReader(`{"action":"toggle","ts":"2026-09-01T10:00:00Z"}`))
	if err != nil {
		t.Fatalf("control: %v", err)
	}
	var ack struct {
		OK bool   `json:"ok"`
		By string `json:"by"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	resp.Body.Close()
	if !ack.OK || ack.By != login.User.ID {
		t.Errorf("ack = %+v, want ok by session subject", ack)
	}

	// Logout, then the token no longer opens the write path.
	req, _ = http.NewRequest("POST", srv.URL+"/auth/logout", nil)
	req.Header.Set("token", login.Token)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	resp.Body.Close()

	req, _ = http.NewRequest("POST", srv.URL+"/api/thresholds", strings.NewReader(`{"value":31}`))
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("create after logout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("create after logout status = %d, want 401", resp.StatusCode)
	}
}

func TestReadingsFlow(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	resp, err := client.Post(srv.URL+"/api/readings", "application/json",
		strings.NewReader(`{"temperature":22.75,"threshold_value":30}`))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("append status = %d, want 201", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = client.Get(srv.URL + "/readings")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	var page struct {
		Total int `json:"total"`
		Data  []struct {
			Temperature float64 `json:"temperature"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || len(page.Data) != 1 || page.Data[0].Temperature != 22.75 {
		t.Errorf("readings page = %+v", page)
	}
}
