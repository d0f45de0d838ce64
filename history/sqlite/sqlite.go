// Package sqlite provides a durable core.HistoryStore backed by an embedded
// SQLite database (modernc.org/sqlite, no cgo). Each event is stored as one
// JSON row so observers can audit finished matches after the process exits.
// It is an event log, not a save/load format: matches cannot be resumed from it.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/minionmesh/core"
	"github.com/hupe1980/minionmesh/history"
)

// Store is a HistoryStore persisting events in a single SQLite file. A single
// connection serializes writers; Store is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open creates (or reopens) the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL,
			event_id TEXT NOT NULL,
			type TEXT NOT NULL,
			round INTEGER NOT NULL,
			ts TEXT NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_match_seq ON events(match_id, seq);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Append records an event for the match.
func (s *Store) Append(matchID string, ev core.Event) error {
	if matchID == "" {
		return history.ErrEmptyMatchID
	}

	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO events (match_id, event_id, type, round, ts, raw_json) VALUES (?, ?, ?, ?, ?, ?)`,
		matchID, ev.ID, string(ev.Type), ev.Round, ev.Timestamp.Format(time.RFC3339Nano), string(raw),
	)

	return err
}

// Events returns every event recorded for the match in append order.
func (s *Store) Events(matchID string) ([]core.Event, error) {
	return s.query(`SELECT raw_json FROM events WHERE match_id = ? ORDER BY seq`, matchID)
}

// Rounds returns the resolved rounds recorded for the match in order.
func (s *Store) Rounds(matchID string) ([]core.ResolvedRound, error) {
	evs, err := s.query(`SELECT raw_json FROM events WHERE match_id = ? AND type = ? ORDER BY seq`,
		matchID, string(core.EventRoundResolved))
	if err != nil {
		return nil, err
	}

	out := make([]core.ResolvedRound, 0, len(evs))
	for _, ev := range evs {
		if ev.Resolved != nil {
			out = append(out, *ev.Resolved)
		}
	}

	return out, nil
}

// Matches lists the ids of every recorded match, oldest first.
func (s *Store) Matches() ([]string, error) {
	rows, err := s.db.Query(`SELECT match_id FROM events GROUP BY match_id ORDER BY MIN(seq)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}

	return out, rows.Err()
}

// Clear drops everything recorded for the match.
func (s *Store) Clear(matchID string) error {
	_, err := s.db.Exec(`DELETE FROM events WHERE match_id = ?`, matchID)
	return err
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) query(q string, args ...any) ([]core.Event, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []core.Event{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}

		var ev core.Event
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, ev)
	}

	return out, rows.Err()
}
