package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wellybot/wgvpn-admin/internal/model"
	"github.com/wellybot/wgvpn-admin/internal/service"
	"github.com/wellybot/wgvpn-admin/internal/stream"
)

type fakeCollector struct {
	samples []model.PeerStatusSample
	resp    model.CollectResponse
	err     error
}

func (f *fakeCollector) Collect(context.Context) []model.PeerStatusSample { return f.samples }

func (f *fakeCollector) RunCycle(context.Context) (model.CollectResponse, error) {
	return f.resp, f.err
}

type fakeSnapshots struct {
	filter model.SnapshotFilter
	limit  int
	days   int
	hours  int
}

func (f *fakeSnapshots) Recent(_ context.Context, limit int) ([]model.TrafficSnapshot, error) {
	f.limit = limit
	return []model.TrafficSnapshot{}, nil
}

func (f *fakeSnapshots) Range(_ context.Context, filter model.SnapshotFilter) (model.SnapshotPage, error) {
	f.filter = filter
	items := make([]model.TrafficSnapshot, 0, 10)
	for i := filter.Offset + 1; i <= filter.Offset+filter.Limit && i <= 20; i++ {
		items = append(items, model.TrafficSnapshot{ID: int64(i)})
	}
	return model.SnapshotPage{Items: items, Total: 20, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (f *fakeSnapshots) DailySummary(_ context.Context, _ *int64, days int) ([]model.DailyTraffic, error) {
	f.days = days
	return []model.DailyTraffic{{Date: "2026-03-01", TotalReceived: 1, TotalSent: 2, Count: 1}}, nil
}

func (f *fakeSnapshots) HourlySummary(_ context.Context, _ *int64, hours int) ([]model.HourlyTraffic, error) {
	f.hours = hours
	return []model.HourlyTraffic{}, nil
}

type fakeAlerts struct {
	alerts map[string]*model.Alert
	filter model.AlertFilter
	input  model.CreateAlertInput
}

func (f *fakeAlerts) Create(_ context.Context, input model.CreateAlertInput) (string, error) {
	if !input.Severity.Valid() {
		return "", service.ErrInvalidInput
	}
	f.input = input
	f.alerts["new"] = &model.Alert{ID: "new", Severity: input.Severity, Message: input.Message, Kind: input.Kind}
	return "new", nil
}

func (f *fakeAlerts) Resolve(_ context.Context, id string) (*model.Alert, error) {
	a, ok := f.alerts[id]
	if !ok {
		return nil, service.ErrAlertNotFound
	}
	a.IsResolved = true
	return a, nil
}

func (f *fakeAlerts) Get(_ context.Context, id string) (*model.Alert, error) {
	a, ok := f.alerts[id]
	if !ok {
		return nil, service.ErrAlertNotFound
	}
	return a, nil
}

func (f *fakeAlerts) List(_ context.Context, filter model.AlertFilter) (model.AlertPage, error) {
	f.filter = filter
	return model.AlertPage{Items: []model.Alert{}, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (f *fakeAlerts) Unresolved(context.Context, int) ([]model.Alert, error) {
	return []model.Alert{}, nil
}

func (f *fakeAlerts) Summary(context.Context) (model.AlertSummary, error) {
	return model.AlertSummary{Open: 3, Warning: 2, Critical: 1}, nil
}

type fakeDetector struct{ ids []string }

func (f *fakeDetector) Detect(context.Context) ([]string, error) { return f.ids, nil }

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type testEnv struct {
	router    *gin.Engine
	collector *fakeCollector
	snapshots *fakeSnapshots
	alerts    *fakeAlerts
	hub       *stream.Hub
}

func newTestEnv(t *testing.T, secret string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		router:    gin.New(),
		collector: &fakeCollector{},
		snapshots: &fakeSnapshots{},
		alerts:    &fakeAlerts{alerts: map[string]*model.Alert{"a1": {ID: "a1", Severity: model.SeverityWarning}}},
		hub:       stream.NewHub(16, 8),
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go env.hub.Run(ctx)

	RegisterRoutes(env.router, Handlers{
		Health:  NewHealthHandler(fakePinger{}),
		Traffic: NewTrafficHandler(env.collector, env.snapshots),
		Alerts:  NewAlertHandler(env.alerts, &fakeDetector{ids: []string{"x"}}),
		Stream:  NewStreamHandler(ctx, env.hub, nil),
	}, secret)
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	e.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, "")

	if w := env.do(http.MethodGet, "/ping", ""); w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("pong")) {
		t.Fatalf("ping: %d %s", w.Code, w.Body.String())
	}
	if w := env.do(http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/openapi.json", ""); w.Code != http.StatusOK || !json.Valid(w.Body.Bytes()) {
		t.Fatalf("openapi: %d", w.Code)
	}
}

func TestHealthzDegraded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", NewHealthHandler(fakePinger{err: errors.New("down")}).Healthz)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestHistoryPagination(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(http.MethodGet, "/api/v1/traffic/history?account_id=3&start_date=2026-03-01&end_date=2026-03-02&limit=10&offset=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var page model.SnapshotPage
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 20 || page.Limit != 10 || page.Offset != 5 || len(page.Items) != 10 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Items[0].ID != 6 || page.Items[9].ID != 15 {
		t.Fatalf("unexpected window: first=%d last=%d", page.Items[0].ID, page.Items[9].ID)
	}

	f := env.snapshots.filter
	if f.AccountID == nil || *f.AccountID != 3 {
		t.Fatalf("account filter = %v", f.AccountID)
	}
	if f.StartDate == nil || !f.StartDate.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start date = %v", f.StartDate)
	}
}

func TestTrafficQueryValidation(t *testing.T) {
	env := newTestEnv(t, "")

	for _, path := range []string{
		"/api/v1/traffic/history?account_id=abc",
		"/api/v1/traffic/history?start_date=03/01/2026",
		"/api/v1/traffic/recent?limit=-1",
		"/api/v1/traffic/summary/daily?days=x",
		"/api/v1/alerts?resolved=maybe",
	} {
		if w := env.do(http.MethodGet, path, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestTrafficSummaryDefaults(t *testing.T) {
	env := newTestEnv(t, "")

	if w := env.do(http.MethodGet, "/api/v1/traffic/summary/daily", ""); w.Code != http.StatusOK {
		t.Fatalf("daily: %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/api/v1/traffic/summary/hourly", ""); w.Code != http.StatusOK {
		t.Fatalf("hourly: %d", w.Code)
	}
	if env.snapshots.days != 7 || env.snapshots.hours != 24 {
		t.Fatalf("days=%d hours=%d", env.snapshots.days, env.snapshots.hours)
	}
}

func TestCollectEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	env.collector.resp = model.CollectResponse{Status: "ok", Source: model.SourceSynthetic, Samples: 2, Recorded: 2}

	w := env.do(http.MethodPost, "/api/v1/traffic/collect", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res model.CollectResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res != env.collector.resp {
		t.Fatalf("response = %+v", res)
	}

	env.collector.err = errors.New("db down")
	if w := env.do(http.MethodPost, "/api/v1/traffic/collect", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestAlertRoutes(t *testing.T) {
	env := newTestEnv(t, "")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"summary is not an id", http.MethodGet, "/api/v1/alerts/summary", "", http.StatusOK},
		{"unresolved", http.MethodGet, "/api/v1/alerts/unresolved", "", http.StatusOK},
		{"get", http.MethodGet, "/api/v1/alerts/a1", "", http.StatusOK},
		{"get missing", http.MethodGet, "/api/v1/alerts/nope", "", http.StatusNotFound},
		{"resolve", http.MethodPost, "/api/v1/alerts/a1/resolve", "", http.StatusOK},
		{"resolve missing", http.MethodPost, "/api/v1/alerts/nope/resolve", "", http.StatusNotFound},
		{"detect", http.MethodPost, "/api/v1/alerts/detect", "", http.StatusOK},
		{"create", http.MethodPost, "/api/v1/alerts", `{"severity":"critical","message":"manual"}`, http.StatusCreated},
		{"create missing message", http.MethodPost, "/api/v1/alerts", `{"severity":"critical"}`, http.StatusBadRequest},
		{"create bad severity", http.MethodPost, "/api/v1/alerts", `{"severity":"loud","message":"x"}`, http.StatusBadRequest},
		{"list", http.MethodGet, "/api/v1/alerts?severity=warning&resolved=false&limit=10&offset=5", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(tt.method, tt.path, tt.body); w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}

	f := env.alerts.filter
	if f.Severity == nil || *f.Severity != model.SeverityWarning || f.Resolved == nil || *f.Resolved || f.Limit != 10 || f.Offset != 5 {
		t.Fatalf("unexpected filter: %+v", f)
	}
	if env.alerts.input.Kind != model.AlertKindManual {
		t.Fatalf("manual alert kind = %q", env.alerts.input.Kind)
	}
}

func TestPublishEventValidation(t *testing.T) {
	env := newTestEnv(t, "")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"audit", `{"category":"audit","actor":"admin","message":"created peer","account_id":1}`, http.StatusAccepted},
		{"connection", `{"category":"connection","account_id":1,"connected":true,"message":"up"}`, http.StatusAccepted},
		{"connection without state", `{"category":"connection","account_id":1,"message":"up"}`, http.StatusBadRequest},
		{"traffic not accepted", `{"category":"traffic","message":"x"}`, http.StatusBadRequest},
		{"bad level", `{"category":"audit","message":"x","level":"fatal"}`, http.StatusBadRequest},
		{"missing message", `{"category":"audit"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(http.MethodPost, "/api/v1/stream/events", tt.body); w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}
