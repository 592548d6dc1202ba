// Package audit persists the per-run tool-call trail: every verdict the
// mediator produces, in call order, whether or not execution followed.
package audit

import (
	"context"
	"database/sql"
	"time"

	"squad/internal/agent"
	"squad/internal/db"
)

// Entry is one persisted verdict row.
type Entry struct {
	RunID     string
	Seq       int
	Tool      string
	Arguments string
	Class     string
	Allowed   bool
	Reason    string
	Executed  bool
	Error     string
	At        time.Time
}

type Store struct {
	conn *sql.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{conn: database.Conn()}
}

// Record appends one verdict to the trail. Implements agent.Recorder.
func (s *Store) Record(ctx context.Context, runID string, e agent.TraceEntry) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO verdicts
		 (run_id, seq, tool, arguments, class, allowed, reason, executed, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, e.Seq, e.Tool, e.Arguments, e.Verdict.Class.String(),
		e.Verdict.Allowed, e.Verdict.Reason, e.Executed, e.Error, e.At,
	)
	return err
}

// SaveRun upserts the run's terminal record.
func (s *Store) SaveRun(ctx context.Context, runID, profileName, status, summary string) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO runs (id, profile, status, summary) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status, summary = excluded.summary`,
		runID, profileName, status, summary,
	)
	return err
}

// Trail returns a run's verdicts in call order.
func (s *Store) Trail(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT run_id, seq, tool, arguments, class, allowed, reason, executed, error, created_at
		 FROM verdicts WHERE run_id = ? ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var errText sql.NullString
		if err := rows.Scan(&e.RunID, &e.Seq, &e.Tool, &e.Arguments, &e.Class,
			&e.Allowed, &e.Reason, &e.Executed, &errText, &e.At); err != nil {
			return nil, err
		}
		e.Error = errText.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
