package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/factory-telemetry/internal/infrastructure/config"
	"github.com/nerrad567/factory-telemetry/internal/infrastructure/database"
	"github.com/nerrad567/factory-telemetry/internal/session"
)

const localConfig = `
factory:
  id: test-factory
  step_seconds: 3
  interval: 1
  seed: 42

mqtt:
  broker:
    host: "127.0.0.1"
    port: 1883
    client_id: "publisher-sensors"
    tls: false
  qos: 1

logging:
  level: error
  format: text
  output: stderr
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "publisher.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, []string{"-config", "/nonexistent/path/config.yaml"}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("error = %v, want loading config error", err)
	}
}

func TestRun_ConfigPathFromEnv(t *testing.T) {
	t.Setenv("FACTORY_CONFIG", "/nonexistent/from-env.yaml")

	if got := getConfigPath(); got != "/nonexistent/from-env.yaml" {
		t.Errorf("getConfigPath() = %q", got)
	}

	err := run(context.Background(), nil, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "from-env.yaml") {
		t.Errorf("run() error = %v, want it to name the env path", err)
	}
}

func TestRun_BadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-bogus"}},
		{"negative ticks", []string{"-ticks", "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(context.Background(), tt.args, &bytes.Buffer{}); err == nil {
				t.Error("run() should fail")
			}
		})
	}
}

func TestRun_LocalBroker(t *testing.T) {
	path := writeConfig(t, localConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	if err := run(ctx, []string{"-config", path, "-local", "-ticks", "2"}, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var director, operator []string
	for _, line := range strings.Split(out.String(), "\n") {
		switch {
		case strings.HasPrefix(line, "[director] ["):
			director = append(director, line)
		case strings.HasPrefix(line, "[operator] ["):
			operator = append(operator, line)
		}
	}

	// Two ticks of ten messages, one header line each.
	if len(director) != 20 {
		t.Errorf("director received %d messages, want 20", len(director))
	}
	if len(operator) != 4 {
		t.Errorf("operator received %d messages, want 4", len(operator))
	}
	for _, line := range operator {
		if !strings.Contains(line, "factory/line1/velocity") && !strings.Contains(line, "factory/line1/temperature") {
			t.Errorf("operator received %q", line)
		}
	}
	if !strings.Contains(out.String(), "factory/costs/perUnit") {
		t.Error("director output is missing factory/costs/perUnit")
	}
}

func TestRun_LocalBrokerJournalsSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	path := writeConfig(t, localConfig+`
database:
  enabled: true
  path: "`+dbPath+`"
  wal_mode: true
  busy_timeout: 5
`)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := run(ctx, []string{"-config", path, "-local", "-ticks", "2"}, &bytes.Buffer{}); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	db, err := database.Open(config.DatabaseConfig{Path: dbPath, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	repo := session.NewSQLiteRepository(db.DB)
	res, err := repo.List(context.Background(), session.Filter{FactoryID: "test-factory"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(res.Sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(res.Sessions))
	}

	s := res.Sessions[0]
	if s.ClientID != "publisher-sensors" {
		t.Errorf("ClientID = %q", s.ClientID)
	}
	if s.Ticks != 2 || s.Sent != 20 || s.Failed != 0 {
		t.Errorf("counters = %d ticks, %d sent, %d failed; want 2, 20, 0", s.Ticks, s.Sent, s.Failed)
	}
	if s.EndedAt == nil {
		t.Error("EndedAt should be set after a clean stop")
	}
}

func TestLabelWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &labelWriter{w: &buf, label: "[x] "}

	n, err := w.Write([]byte("hello\n"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != 6 {
		t.Errorf("n = %d, want 6", n)
	}
	if buf.String() != "[x] hello\n" {
		t.Errorf("output = %q", buf.String())
	}
}
