package trace

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrSinkClosed indicates the sink has been closed.
var ErrSinkClosed = errors.New("trace sink closed")

// SQLiteSink persists instrumentation records to SQLite. Each sink
// instance writes under a fresh session ID so runs can be told apart in
// a shared database file.
type SQLiteSink struct {
	db      *sql.DB
	session string
	mu      sync.Mutex
	seq     int64
	closed  bool
}

// NewSQLiteSink opens (or creates) a trace database at path. Use
// ":memory:" for tests.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open trace database: %w", err)
	}

	// WAL keeps record inserts from blocking concurrent readers.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS trace_records (
			session TEXT NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			actor TEXT NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			PRIMARY KEY (session, seq)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create trace table: %w", err)
	}

	return &SQLiteSink{
		db:      db,
		session: uuid.New().String(),
	}, nil
}

// Session returns the session ID this sink writes under.
func (s *SQLiteSink) Session() string { return s.session }

// Emit stores one record. Insert failures are swallowed: the engine
// must never fail a dispatch step because tracing is unhealthy.
func (s *SQLiteSink) Emit(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.seq++
	_, _ = s.db.Exec(`
		INSERT INTO trace_records (session, seq, kind, actor, from_state, to_state, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.session, s.seq, rec.Kind.String(), rec.Actor, rec.From, rec.To,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
	)
}

// List returns all records of a session in emission order.
func (s *SQLiteSink) List(session string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSinkClosed
	}

	rows, err := s.db.Query(`
		SELECT kind, actor, from_state, to_state, timestamp
		FROM trace_records WHERE session = ? ORDER BY seq`, session)
	if err != nil {
		return nil, fmt.Errorf("query trace records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var kind, ts string
		if err := rows.Scan(&kind, &rec.Actor, &rec.From, &rec.To, &ts); err != nil {
			return nil, fmt.Errorf("scan trace record: %w", err)
		}
		rec.Kind = parseKind(kind)
		rec.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func parseKind(s string) Kind {
	switch s {
	case "entry":
		return KindEntry
	case "exit":
		return KindExit
	case "initial":
		return KindInitial
	default:
		return KindTransition
	}
}
