package prooflog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Import SQLite driver for database/sql
)

type sqliteStepStore struct {
	db  *sql.DB
	dsn string
}

// OpenSQLiteStore opens/creates a SQLite-backed step store and ensures
// schema + PRAGMAs. Append order is preserved by an insertion sequence
// independent of the caller-supplied step index.
func OpenSQLiteStore(dsn string) (StepStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", p, err)
		}
	}
	schema := `
CREATE TABLE IF NOT EXISTS steps (
  seq           INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id        TEXT    NOT NULL,
  step_idx      INTEGER NOT NULL,
  proof_hash    TEXT    NOT NULL,
  public_inputs TEXT    NOT NULL,
  recorded_at   REAL    NOT NULL
);
CREATE INDEX IF NOT EXISTS steps_run_seq ON steps(run_id, seq);
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStepStore{db: db, dsn: dsn}, nil
}

// Append inserts one step row for the run.
func (s *sqliteStepStore) Append(runID string, rec StepRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	inputs, err := json.Marshal(rec.PublicInputs)
	if err != nil {
		return fmt.Errorf("encode public inputs: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO steps(run_id, step_idx, proof_hash, public_inputs, recorded_at) VALUES(?, ?, ?, ?, ?)`,
		runID, rec.StepIndex, rec.ProofHash, string(inputs), rec.RecordedAt); err != nil {
		return err
	}
	return nil
}

// Load returns the run's records ordered by insertion sequence. A row
// whose public_inputs column fails to decode aborts the whole load.
func (s *sqliteStepStore) Load(runID string) ([]StepRecord, error) {
	rows, err := s.db.Query(
		`SELECT step_idx, proof_hash, public_inputs, recorded_at FROM steps WHERE run_id=? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []StepRecord
	rowNo := 0
	for rows.Next() {
		rowNo++
		var rec StepRecord
		var inputs string
		if err := rows.Scan(&rec.StepIndex, &rec.ProofHash, &inputs, &rec.RecordedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(inputs), &rec.PublicInputs); err != nil {
			return nil, &ParseError{Source: s.dsn, Line: rowNo, Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Source returns the database DSN qualified by the run.
func (s *sqliteStepStore) Source(runID string) string {
	return s.dsn + "#" + runID
}

func (s *sqliteStepStore) Close() error { return s.db.Close() }
