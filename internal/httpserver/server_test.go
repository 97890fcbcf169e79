package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tinytelemetry/httpmon/internal/duckdb"
	"github.com/tinytelemetry/httpmon/internal/model"
	"github.com/tinytelemetry/httpmon/internal/monitor"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *duckdb.Store, *monitor.StatusBoard, http.Handler) {
	t.Helper()
	store, err := duckdb.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	board := &monitor.StatusBoard{}
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "httpmon_test_total", Help: "test"}))

	srv := NewServer("", Options{
		Status:  board,
		History: store,
		Hub:     NewHub(),
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	return srv, store, board, srv.Handler()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	_, _, board, h := newTestServer(t)
	board.Publish(monitor.Status{Ingested: 42})

	w := get(t, h, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("health status = %v, want ok", body["status"])
	}
	if body["records"] != float64(42) {
		t.Errorf("records = %v, want 42", body["records"])
	}
}

func TestHealthEndpoint_WrongMethod(t *testing.T) {
	_, _, _, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed && w.Code != http.StatusNotFound {
		t.Errorf("health POST status = %d, want 405 or 404", w.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, _, board, h := newTestServer(t)

	w := get(t, h, "/api/status")
	var before monitor.Status
	if err := json.Unmarshal(w.Body.Bytes(), &before); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if before.Started || before.State != "normal" {
		t.Fatalf("initial status = %+v", before)
	}

	board.Publish(monitor.Status{Started: true, Now: 1000000006, Load: 9, State: "alerting"})
	w = get(t, h, "/api/status")
	var after monitor.Status
	if err := json.Unmarshal(w.Body.Bytes(), &after); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if after.Load != 9 || after.State != "alerting" || after.Now != 1000000006 {
		t.Fatalf("published status = %+v", after)
	}
}

func TestAlertsEndpoint(t *testing.T) {
	_, store, _, h := newTestServer(t)

	now := time.Now()
	if err := store.InsertAlertBatch([]model.AlertRecord{
		{Kind: model.EventAlertRaised, Load: 9, At: 6, RecordedAt: now},
		{Kind: model.EventAlertCleared, Load: 2, At: 11, RecordedAt: now},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	w := get(t, h, "/api/alerts?limit=1")
	if w.Code != http.StatusOK {
		t.Fatalf("alerts status = %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Alerts []model.AlertRecord `json:"alerts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Alerts) != 1 || body.Alerts[0].Kind != model.EventAlertCleared {
		t.Fatalf("alerts = %+v", body.Alerts)
	}
}

func TestAlertsEndpoint_EmptyIsArray(t *testing.T) {
	_, _, _, h := newTestServer(t)

	w := get(t, h, "/api/alerts")
	if !strings.Contains(w.Body.String(), `"alerts":[]`) {
		t.Fatalf("body = %s, want empty array", w.Body.String())
	}
}

func TestLimitValidation(t *testing.T) {
	_, _, _, h := newTestServer(t)

	for _, path := range []string{"/api/alerts?limit=0", "/api/snapshots?limit=abc", "/api/snapshots?limit=5000"} {
		if w := get(t, h, path); w.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", path, w.Code)
		}
	}
}

func TestSnapshotsEndpoint(t *testing.T) {
	_, store, _, h := newTestServer(t)

	snap := model.NewMetricsSnapshot(1000000000, 1000000010)
	snap.TotalRequests = 3
	snap.PerSection["/api"] = 3
	if err := store.InsertSnapshotBatch([]model.SnapshotRecord{{MetricsSnapshot: snap, RecordedAt: time.Now()}}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	w := get(t, h, "/api/snapshots")
	var body struct {
		Snapshots []model.SnapshotRecord `json:"snapshots"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Snapshots) != 1 || body.Snapshots[0].PerSection["/api"] != 3 {
		t.Fatalf("snapshots = %+v", body.Snapshots)
	}
}

func TestHistoryDisabled(t *testing.T) {
	srv := NewServer("", Options{})
	h := srv.Handler()

	for _, path := range []string{"/api/alerts", "/api/snapshots", "/api/events/counts"} {
		if w := get(t, h, path); w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", path, w.Code)
		}
	}
	if w := get(t, h, "/metrics"); w.Code != http.StatusNotFound {
		t.Errorf("/metrics status = %d, want 404 when disabled", w.Code)
	}
	if w := get(t, h, "/api/status"); w.Code != http.StatusOK {
		t.Errorf("/api/status status = %d, want 200", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, _, _, h := newTestServer(t)

	w := get(t, h, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "httpmon_test_total") {
		t.Fatalf("metrics body missing counter:\n%s", w.Body.String())
	}
}

func TestStreamBroadcastsEvents(t *testing.T) {
	srv, _, _, h := newTestServer(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hub := srv.opts.Hub
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.Clients() != 1 {
		t.Fatalf("clients = %d, want 1", hub.Clients())
	}

	hub.AlertRaised(model.AlertRaised{Load: 9, At: 1000000006})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(msg) != `{"type":"alert_raised","payload":{"load":9,"at":1000000006}}` {
		t.Fatalf("message = %s", msg)
	}

	hub.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected close after hub shutdown")
	}
}

func TestHubDropsForSlowClients(t *testing.T) {
	hub := NewHub()
	c := &client{send: make(chan []byte, 1)}
	if !hub.register(c) {
		t.Fatal("register failed")
	}

	hub.AlertRaised(model.AlertRaised{Load: 1})
	hub.AlertCleared(model.AlertCleared{Load: 0})

	if hub.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", hub.Dropped())
	}
	hub.Close()
	if hub.register(&client{send: make(chan []byte)}) {
		t.Fatal("register after Close should fail")
	}
}

func TestServerStartStop(t *testing.T) {
	srv := NewServer("127.0.0.1:0", Options{Status: &monitor.StatusBoard{}})
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	resp, err := http.Get("http://" + srv.Addr() + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
