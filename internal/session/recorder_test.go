package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/factory-telemetry/internal/simulation"
	"github.com/nerrad567/factory-telemetry/internal/telemetry"
)

type mockLogger struct {
	warns []string
}

func (m *mockLogger) Warn(msg string, _ ...any) { m.warns = append(m.warns, msg) }

type failingChannel struct{}

func (failingChannel) Publish(string, []byte, byte, bool) error {
	return errors.New("no route")
}

func TestRecorder_JournalsRunnerTicks(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	rec, err := Start(ctx, repo, "factory-001", "publisher-sensors", nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	pub := telemetry.NewPublisher(simulation.NewFactory(simulation.Config{}, simulation.ZeroNoise{}))
	runner := telemetry.NewRunner(pub, failingChannel{}, time.Millisecond,
		telemetry.WithObserver(rec),
		telemetry.WithMaxTicks(3),
	)
	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := rec.Finish(ctx); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	got, err := repo.Get(ctx, rec.SessionID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Ticks != 3 || got.Sent != 0 || got.Failed != 30 {
		t.Errorf("counters = %d/%d/%d, want 3/0/30", got.Ticks, got.Sent, got.Failed)
	}
	if got.EndedAt == nil {
		t.Error("EndedAt not set after Finish")
	}

	failures, err := repo.Failures(ctx, rec.SessionID())
	if err != nil {
		t.Fatalf("Failures() error = %v", err)
	}
	if len(failures) != 30 {
		t.Fatalf("len(Failures()) = %d, want 30", len(failures))
	}
	if failures[0].Topic != "factory/line1/velocity" || failures[0].SimSeconds != 3 {
		t.Errorf("first failure = %+v", failures[0])
	}
}

// brokenRepo fails every tick write.
type brokenRepo struct {
	Repository
}

func (brokenRepo) Create(_ context.Context, s *Session) error {
	s.ID = "ses-broken"
	return nil
}

func (brokenRepo) RecordTick(context.Context, string, telemetry.TickReport) error {
	return errors.New("disk full")
}

func TestRecorder_LogsJournalErrors(t *testing.T) {
	logger := &mockLogger{}

	rec, err := Start(context.Background(), brokenRepo{}, "factory-001", "publisher-sensors", logger)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	rec.ObserveTick(context.Background(), telemetry.TickReport{})

	if len(logger.warns) != 1 {
		t.Errorf("warnings = %d, want 1", len(logger.warns))
	}
}

func TestStart_CreateFails(t *testing.T) {
	repo := openTestRepo(t)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Start(cancelled, repo, "factory-001", "publisher-sensors", nil); err == nil {
		t.Error("Start() with cancelled context: expected error, got nil")
	}
}
