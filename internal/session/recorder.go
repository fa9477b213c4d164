package session

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/factory-telemetry/internal/telemetry"
)

// Logger is the logging surface used by Recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

// Recorder journals every tick of one publisher run.
//
// It implements telemetry.Observer. Journal write errors are logged and do
// not interrupt publishing.
type Recorder struct {
	repo    Repository
	session Session
	logger  Logger
	now     func() time.Time
}

// Start creates the session row and returns a Recorder bound to it.
func Start(ctx context.Context, repo Repository, factoryID, clientID string, logger Logger) (*Recorder, error) {
	r := &Recorder{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		session: Session{
			FactoryID: factoryID,
			ClientID:  clientID,
		},
	}
	r.session.StartedAt = r.now().UTC()

	if err := repo.Create(ctx, &r.session); err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}
	return r, nil
}

// SessionID returns the ID of the journalled session.
func (r *Recorder) SessionID() string {
	return r.session.ID
}

// ObserveTick implements telemetry.Observer.
func (r *Recorder) ObserveTick(ctx context.Context, report telemetry.TickReport) {
	if err := r.repo.RecordTick(ctx, r.session.ID, report); err != nil && r.logger != nil {
		r.logger.Warn("session journal write failed",
			"session_id", r.session.ID,
			"error", err,
		)
	}
}

// Finish stamps the session end time. The run context is usually cancelled
// by then, so callers pass a fresh one.
func (r *Recorder) Finish(ctx context.Context) error {
	if err := r.repo.End(ctx, r.session.ID, r.now()); err != nil {
		return fmt.Errorf("ending session %s: %w", r.session.ID, err)
	}
	return nil
}
