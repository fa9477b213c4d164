package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/factory-telemetry/internal/infrastructure/config"
	"github.com/nerrad567/factory-telemetry/internal/infrastructure/database"
	"github.com/nerrad567/factory-telemetry/internal/infrastructure/logging"
	"github.com/nerrad567/factory-telemetry/internal/session"
	"github.com/nerrad567/factory-telemetry/internal/simulation"
	"github.com/nerrad567/factory-telemetry/internal/telemetry"
	"github.com/nerrad567/factory-telemetry/migrations"
)

type fakeRunner struct {
	status telemetry.Status
}

func (f *fakeRunner) Status() telemetry.Status { return f.status }

type fakeBroker bool

func (f fakeBroker) IsConnected() bool { return bool(f) }

func testDeps(t *testing.T) Deps {
	t.Helper()
	return Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Port:     0,
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		Logger:    logging.Discard(),
		Runner:    &fakeRunner{},
		FactoryID: "factory-001",
		Version:   "test",
	}
}

func testServer(t *testing.T, mutate func(*Deps)) *Server {
	t.Helper()
	deps := testDeps(t)
	if mutate != nil {
		mutate(&deps)
	}
	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv
}

// setupJournal opens a migrated journal in a temp directory.
func setupJournal(t *testing.T) (*database.DB, *session.SQLiteRepository) {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "journal.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db, session.NewSQLiteRepository(db.DB)
}

func get(t *testing.T, srv *Server, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)

	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decoding %s response: %v\n%s", path, err, rec.Body.String())
		}
	}
	return rec
}

func TestNew_RequiresLoggerAndRunner(t *testing.T) {
	deps := testDeps(t)
	deps.Logger = nil
	if _, err := New(deps); err == nil {
		t.Error("New() without logger: expected error")
	}

	deps = testDeps(t)
	deps.Runner = nil
	if _, err := New(deps); err == nil {
		t.Error("New() without runner: expected error")
	}
}

func TestHealth(t *testing.T) {
	srv := testServer(t, nil)

	var body map[string]any
	rec := get(t, srv, "/api/v1/health", &body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestRequestIDPreserved(t *testing.T) {
	srv := testServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q, want req-123", got)
	}
}

func TestStatus(t *testing.T) {
	f := simulation.NewFactory(simulation.Config{}, simulation.ZeroNoise{})
	report := telemetry.TickReport{
		Tick:     f.Tick(),
		Started:  time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Duration: 2 * time.Millisecond,
		Results: []telemetry.SendResult{
			{Topic: "factory/line1/velocity"},
			{Topic: "factory/line1/temperature", Err: fmt.Errorf("%w: broker gone", telemetry.ErrChannelUnavailable)},
		},
	}
	runner := &fakeRunner{status: telemetry.Status{
		Running:     true,
		Ticks:       1,
		TotalSent:   1,
		TotalFailed: 1,
		Last:        &report,
	}}

	srv := testServer(t, func(d *Deps) {
		d.Runner = runner
		d.Broker = fakeBroker(true)
		d.SessionID = "ses-abc"
	})

	var body StatusResponse
	rec := get(t, srv, "/api/v1/status", &body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if !body.Running || body.Ticks != 1 || body.TotalFailed != 1 {
		t.Errorf("counters = %+v", body)
	}
	if body.FactoryID != "factory-001" || body.SessionID != "ses-abc" {
		t.Errorf("ids = %q/%q", body.FactoryID, body.SessionID)
	}
	if body.BrokerConnected == nil || !*body.BrokerConnected {
		t.Error("broker_connected should be true")
	}
	if body.LastTick == nil {
		t.Fatal("last_tick missing")
	}
	if body.LastTick.T != 3 || body.LastTick.Line2.Velocity != 1800 {
		t.Errorf("last_tick = %+v", body.LastTick)
	}
	if body.LastTick.Sent != 1 || body.LastTick.Failed != 1 || len(body.LastTick.Failures) != 1 {
		t.Errorf("last_tick sends = %d/%d %v", body.LastTick.Sent, body.LastTick.Failed, body.LastTick.Failures)
	}
	if body.LastTick.Failures[0].Topic != "factory/line1/temperature" {
		t.Errorf("failure topic = %q", body.LastTick.Failures[0].Topic)
	}
}

func TestStatus_NoTicksYet(t *testing.T) {
	srv := testServer(t, nil)

	var body StatusResponse
	get(t, srv, "/api/v1/status", &body)
	if body.LastTick != nil {
		t.Error("last_tick should be omitted before the first tick")
	}
	if body.BrokerConnected != nil {
		t.Error("broker_connected should be omitted without a broker")
	}
}

func TestMetrics(t *testing.T) {
	db, _ := setupJournal(t)
	srv := testServer(t, func(d *Deps) {
		d.Runner = &fakeRunner{status: telemetry.Status{Ticks: 7, TotalSent: 70}}
		d.Broker = fakeBroker(false)
		d.DB = db
	})

	var body SystemMetrics
	if rec := get(t, srv, "/api/v1/metrics", &body); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body.Publisher.Ticks != 7 || body.Publisher.TotalSent != 70 {
		t.Errorf("publisher = %+v", body.Publisher)
	}
	if body.MQTT == nil || body.MQTT.Connected {
		t.Errorf("mqtt = %+v, want disconnected", body.MQTT)
	}
	if body.Database == nil {
		t.Error("database metrics missing")
	}
	if body.Runtime.Goroutines == 0 {
		t.Error("runtime goroutines = 0")
	}
}

func TestRoles(t *testing.T) {
	srv := testServer(t, nil)

	var list struct {
		Roles []RoleResponse `json:"roles"`
	}
	get(t, srv, "/api/v1/roles", &list)
	if len(list.Roles) != 2 || list.Roles[0].Role != "director" {
		t.Fatalf("roles = %+v", list.Roles)
	}

	var op RoleResponse
	rec := get(t, srv, "/api/v1/roles/OPERATOR", &op)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if op.ClientID != "subscriber-operator" || len(op.Filters) != 5 || len(op.Readable) != 2 {
		t.Errorf("operator = %+v", op)
	}

	if rec := get(t, srv, "/api/v1/roles/visitor", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown role status = %d, want 404", rec.Code)
	}
}

func TestTopics(t *testing.T) {
	srv := testServer(t, nil)

	var body struct {
		Topics []TopicResponse `json:"topics"`
	}
	get(t, srv, "/api/v1/topics", &body)
	if len(body.Topics) != 10 {
		t.Fatalf("topics = %d, want 10", len(body.Topics))
	}

	byTopic := make(map[string]TopicResponse)
	for _, tr := range body.Topics {
		byTopic[tr.Topic] = tr
	}

	l1 := byTopic["factory/line1/velocity"]
	if len(l1.ReadableBy) != 2 || l1.Category != "line" {
		t.Errorf("line1 velocity = %+v, want readable by both roles", l1)
	}

	cost := byTopic["factory/costs/energy"]
	if len(cost.RequestedBy) != 2 || len(cost.ReadableBy) != 1 || cost.ReadableBy[0] != "director" {
		t.Errorf("costs energy = %+v, want requested by both, readable by director", cost)
	}

	prod := byTopic["factory/production/units"]
	if len(prod.RequestedBy) != 1 || prod.RequestedBy[0] != "director" {
		t.Errorf("production units = %+v, want requested by director only", prod)
	}
}

func TestSessions_NotConfigured(t *testing.T) {
	srv := testServer(t, nil)

	for _, path := range []string{"/api/v1/sessions", "/api/v1/sessions/ses-x", "/api/v1/sessions/ses-x/failures"} {
		if rec := get(t, srv, path, nil); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", path, rec.Code)
		}
	}
	if rec := get(t, srv, "/api/v1/sessions/current", nil); rec.Code != http.StatusNotFound {
		t.Errorf("current without session status = %d, want 404", rec.Code)
	}
}

func TestSessions(t *testing.T) {
	_, repo := setupJournal(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s := &session.Session{
			ID:        fmt.Sprintf("ses-%d", i),
			FactoryID: "factory-001",
			ClientID:  "publisher-sensors",
			StartedAt: time.Date(2026, 3, 14, 9, i, 0, 0, time.UTC),
		}
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	f := simulation.NewFactory(simulation.Config{}, simulation.ZeroNoise{})
	report := telemetry.TickReport{
		Tick:    f.Tick(),
		Started: time.Date(2026, 3, 14, 9, 2, 3, 0, time.UTC),
		Results: []telemetry.SendResult{
			{Topic: "factory/costs/energy", Err: errors.New("not connected")},
		},
	}
	if err := repo.RecordTick(ctx, "ses-2", report); err != nil {
		t.Fatalf("RecordTick() error = %v", err)
	}

	srv := testServer(t, func(d *Deps) {
		d.Sessions = repo
		d.SessionID = "ses-2"
	})

	var list session.ListResult
	get(t, srv, "/api/v1/sessions?limit=2", &list)
	if list.Total != 3 || len(list.Sessions) != 2 || list.Sessions[0].ID != "ses-2" {
		t.Errorf("list = %+v", list)
	}

	var current session.Session
	get(t, srv, "/api/v1/sessions/current", &current)
	if current.ID != "ses-2" || current.Ticks != 1 || current.Failed != 1 {
		t.Errorf("current = %+v", current)
	}

	var failures struct {
		SessionID string            `json:"session_id"`
		Failures  []session.Failure `json:"failures"`
	}
	get(t, srv, "/api/v1/sessions/ses-2/failures", &failures)
	if len(failures.Failures) != 1 || failures.Failures[0].Topic != "factory/costs/energy" {
		t.Errorf("failures = %+v", failures)
	}

	if rec := get(t, srv, "/api/v1/sessions/ses-missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing session status = %d, want 404", rec.Code)
	}
	if rec := get(t, srv, "/api/v1/sessions/ses-missing/failures", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing session failures status = %d, want 404", rec.Code)
	}
}

func TestReadOnly(t *testing.T) {
	srv := testServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}

	if rec := get(t, srv, "/api/v1/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rec.Code)
	}
}

type panicRunner struct{}

func (panicRunner) Status() telemetry.Status { panic("boom") }

func TestRecoveryMiddleware(t *testing.T) {
	srv := testServer(t, func(d *Deps) { d.Runner = panicRunner{} })

	rec := get(t, srv, "/api/v1/status", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestStartAndClose(t *testing.T) {
	srv := testServer(t, nil)

	if err := srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start: expected error")
	}

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer srv.Close() //nolint:errcheck // Test cleanup

	if err := srv.Start(context.Background()); err == nil {
		t.Error("second Start(): expected error")
	}
	if err := srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	resp.Body.Close() //nolint:errcheck // Test cleanup
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
