package record

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store is the SQLite-backed record log. Compared to FileLog it adds
// idempotent writes (content-addressed ids), indexed best-config
// queries, and cheap filtering across many sessions.
//
// Uses WAL mode so best-config readers do not block the tuning loop's
// writes.
type Store struct {
	db *sql.DB
}

// OpenStore creates or opens a SQLite record database at the given
// path. Applies required pragmas and the schema automatically;
// idempotent and safe to call on an existing database.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect record store: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY from our own pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply record schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append inserts one record. Duplicate ids (same session, task, and
// entity index) are silently ignored, which makes resumed sessions
// idempotent.
func (s *Store) Append(ctx context.Context, r Record) error {
	id, err := r.ID()
	if err != nil {
		return err
	}
	knobsJSON, err := json.Marshal(r.Knobs)
	if err != nil {
		return fmt.Errorf("marshal knobs: %w", err)
	}
	var latenciesJSON []byte
	if len(r.Latencies) > 0 {
		latenciesJSON, err = json.Marshal(r.Latencies)
		if err != nil {
			return fmt.Errorf("marshal latencies: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trial_records
		(id, session, template, arg_sig, target, entity_index, knobs, status, latencies, error, mean_latency, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		id,
		r.Session,
		r.Template,
		r.ArgSig,
		r.Target,
		r.Index,
		string(knobsJSON),
		r.Status,
		nullableString(latenciesJSON),
		nullIfEmpty(r.Err),
		meanOrNull(r),
		r.AtUnixMs,
	)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// ForEach iterates all records in insertion order.
func (s *Store) ForEach(ctx context.Context, fn func(Record) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session, template, arg_sig, target, entity_index, knobs, status, latencies, error, at
		FROM trial_records
		ORDER BY rowid
	`)
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	return nil
}

// BestFor returns the best successful record for a task key: the lowest
// mean latency, ties broken by earliest insertion. The second return is
// false when the task has no successful record.
func (s *Store) BestFor(ctx context.Context, key Key) (Record, bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session, template, arg_sig, target, entity_index, knobs, status, latencies, error, at
		FROM trial_records
		WHERE template = ? AND arg_sig = ? AND target = ? AND status = 'success'
		ORDER BY mean_latency ASC, rowid ASC
		LIMIT 1
	`, key.Template, key.ArgSig, key.Target)
	if err != nil {
		return Record{}, false, fmt.Errorf("query best record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Record{}, false, fmt.Errorf("query best record: %w", err)
		}
		return Record{}, false, nil
	}
	r, err := scanRecord(rows)
	if err != nil {
		return Record{}, false, err
	}
	return r, true, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trial_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// scanRecord decodes one row into a Record.
func scanRecord(rows *sql.Rows) (Record, error) {
	var r Record
	var knobsJSON string
	var latenciesJSON, errDetail sql.NullString
	if err := rows.Scan(
		&r.Session, &r.Template, &r.ArgSig, &r.Target, &r.Index,
		&knobsJSON, &r.Status, &latenciesJSON, &errDetail, &r.AtUnixMs,
	); err != nil {
		return Record{}, fmt.Errorf("scan record: %w", err)
	}
	if err := json.Unmarshal([]byte(knobsJSON), &r.Knobs); err != nil {
		return Record{}, fmt.Errorf("decode knobs: %w", err)
	}
	if latenciesJSON.Valid {
		if err := json.Unmarshal([]byte(latenciesJSON.String), &r.Latencies); err != nil {
			return Record{}, fmt.Errorf("decode latencies: %w", err)
		}
	}
	if errDetail.Valid {
		r.Err = errDetail.String
	}
	return r, nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func meanOrNull(r Record) any {
	if !r.OK() || len(r.Latencies) == 0 {
		return nil
	}
	return r.Mean()
}

var (
	_ Log    = (*Store)(nil)
	_ Reader = (*Store)(nil)
)
