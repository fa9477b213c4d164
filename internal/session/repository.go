package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/factory-telemetry/internal/telemetry"
)

// List page size bounds.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ErrNotFound is returned when a session ID does not exist.
var ErrNotFound = errors.New("session: not found")

// Session is one publisher run.
type Session struct {
	ID         string     `json:"id"`
	FactoryID  string     `json:"factory_id"`
	ClientID   string     `json:"client_id"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Ticks      int64      `json:"ticks"`
	Sent       int64      `json:"sent"`
	Failed     int64      `json:"failed"`
	LastTickAt *time.Time `json:"last_tick_at,omitempty"`
}

// Failure is one message that could not be handed to the transport.
type Failure struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	SimSeconds int64     `json:"t"`
	Topic      string    `json:"topic"`
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Filter controls which sessions List returns.
type Filter struct {
	FactoryID string // optional
	Limit     int    // default 50, max 200
	Offset    int
}

// ListResult is a page of sessions, most recent first.
type ListResult struct {
	Sessions []Session `json:"sessions"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// Repository defines the journal operations.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	RecordTick(ctx context.Context, sessionID string, report telemetry.TickReport) error
	End(ctx context.Context, sessionID string, at time.Time) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	List(ctx context.Context, filter Filter) (*ListResult, error)
	Failures(ctx context.Context, sessionID string) ([]Failure, error)
}

// SQLiteRepository stores the journal in the tables created by the
// session_journal migration.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a journal repository on db.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new session. ID and StartedAt are filled in when empty.
func (r *SQLiteRepository) Create(ctx context.Context, s *Session) error {
	if s.ID == "" {
		s.ID = "ses-" + uuid.NewString()[:8]
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, factory_id, client_id, started_at, ticks, sent, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.FactoryID, s.ClientID, formatTime(s.StartedAt),
		s.Ticks, s.Sent, s.Failed,
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// RecordTick adds one tick's counters to the session and stores its failed
// sends, in a single transaction.
func (r *SQLiteRepository) RecordTick(ctx context.Context, sessionID string, report telemetry.TickReport) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	at := report.Started
	if at.IsZero() {
		at = time.Now()
	}
	stamp := formatTime(at)

	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET ticks = ticks + 1, sent = sent + ?, failed = failed + ?, last_tick_at = ?
		 WHERE id = ?`,
		report.Sent(), report.Failed(), stamp, sessionID,
	)
	if err != nil {
		return fmt.Errorf("updating session counters: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	for _, sr := range report.Results {
		if sr.OK() {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO send_failures (session_id, sim_seconds, topic, error, occurred_at)
			 VALUES (?, ?, ?, ?, ?)`,
			sessionID, report.Tick.State.SimulatedSeconds, sr.Topic, sr.Err.Error(), stamp,
		); err != nil {
			return fmt.Errorf("inserting send failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tick: %w", err)
	}
	return nil
}

// End marks the session as finished.
func (r *SQLiteRepository) End(ctx context.Context, sessionID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET ended_at = ? WHERE id = ?",
		formatTime(at), sessionID,
	)
	if err != nil {
		return fmt.Errorf("ending session: %w", err)
	}
	return requireRow(res)
}

// Get returns one session by ID.
func (r *SQLiteRepository) Get(ctx context.Context, sessionID string) (*Session, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = ?", sessionID,
	)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List returns sessions ordered by start time, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	where := ""
	var args []any
	if filter.FactoryID != "" {
		where = "WHERE factory_id = ?"
		args = append(args, filter.FactoryID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions "+where+" ORDER BY started_at DESC, id LIMIT ? OFFSET ?",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	return &ListResult{
		Sessions: sessions,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

// Failures returns the failed sends of a session in the order they happened.
// An unknown session yields ErrNotFound.
func (r *SQLiteRepository) Failures(ctx context.Context, sessionID string) ([]Failure, error) {
	if _, err := r.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, sim_seconds, topic, error, occurred_at
		 FROM send_failures WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying send failures: %w", err)
	}
	defer rows.Close()

	failures := []Failure{}
	for rows.Next() {
		var f Failure
		var occurredAt string
		if err := rows.Scan(&f.ID, &f.SessionID, &f.SimSeconds, &f.Topic, &f.Error, &occurredAt); err != nil {
			return nil, fmt.Errorf("scanning send failure: %w", err)
		}
		if f.OccurredAt, err = parseTime(occurredAt); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating send failures: %w", err)
	}
	return failures, nil
}

const sessionColumns = "id, factory_id, client_id, started_at, ended_at, ticks, sent, failed, last_tick_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var s Session
	var startedAt string
	var endedAt, lastTickAt sql.NullString

	if err := row.Scan(&s.ID, &s.FactoryID, &s.ClientID, &startedAt, &endedAt,
		&s.Ticks, &s.Sent, &s.Failed, &lastTickAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	var err error
	if s.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if s.EndedAt, err = parseNullTime(endedAt); err != nil {
		return nil, err
	}
	if s.LastTickAt, err = parseNullTime(lastTickAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// storedTimeLayout keeps a fixed-width fraction so that string order in
// SQLite matches time order.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing session timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil //nolint:nilnil // NULL column
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
