package driver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang/glog"
	_ "github.com/mattn/go-sqlite3"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session TEXT NOT NULL,
	seq INTEGER NOT NULL,
	input TEXT NOT NULL,
	output TEXT NOT NULL,
	error_kind TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS entries_session ON entries(session, seq);
`

// Entry is one evaluated unit. Output is the formatted result and is empty
// when evaluation failed; ErrorKind and Error are empty when it succeeded.
type Entry struct {
	Session   string
	Seq       int
	Input     string
	Output    string
	ErrorKind string
	Error     string
	CreatedAt time.Time
}

// Failed reports whether the unit ended in an error.
func (e Entry) Failed() bool { return e.ErrorKind != "" }

// SessionSummary describes one journaled session.
type SessionSummary struct {
	ID    string
	Units int
	First time.Time
	Last  time.Time
}

// Recorder receives every unit a Session evaluates.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Journal stores evaluated units in a SQLite database.
type Journal struct {
	db   *sql.DB
	path string
}

// OpenJournal opens (creating if needed) the journal database at path.
func OpenJournal(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal: empty path")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema in %s: %w", path, err)
	}
	glog.Infof("opened journal %s", path)
	return &Journal{db: db, path: path}, nil
}

// Record appends e to the journal. A zero CreatedAt is set to now.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO entries (session, seq, input, output, error_kind, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Session, e.Seq, e.Input, e.Output, e.ErrorKind, e.Error, e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("journal: record %s#%d: %w", e.Session, e.Seq, err)
	}
	return nil
}

// Entries returns the units of one session in evaluation order.
func (j *Journal) Entries(ctx context.Context, session string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT session, seq, input, output, error_kind, error, created_at FROM entries WHERE session = ? ORDER BY seq, id`,
		session)
	if err != nil {
		return nil, fmt.Errorf("journal: query session %s: %w", session, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.Session, &e.Seq, &e.Input, &e.Output, &e.ErrorKind, &e.Error, &created); err != nil {
			return nil, fmt.Errorf("journal: scan entry: %w", err)
		}
		e.CreatedAt = time.Unix(0, created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: read session %s: %w", session, err)
	}
	return out, nil
}

// Sessions lists every journaled session, oldest first.
func (j *Journal) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT session, COUNT(*), MIN(created_at), MAX(created_at) FROM entries GROUP BY session ORDER BY MIN(created_at), session`)
	if err != nil {
		return nil, fmt.Errorf("journal: list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var first, last int64
		if err := rows.Scan(&s.ID, &s.Units, &first, &last); err != nil {
			return nil, fmt.Errorf("journal: scan session: %w", err)
		}
		s.First = time.Unix(0, first)
		s.Last = time.Unix(0, last)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: list sessions: %w", err)
	}
	return out, nil
}

// Path returns the database path the journal was opened with.
func (j *Journal) Path() string { return j.path }

func (j *Journal) Close() error {
	return j.db.Close()
}
