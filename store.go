package prooflog

import "fmt"

// StepStore abstracts durable persistence of step records. Two backends
// are provided: append-only JSON-line files (OpenFileStore) and SQLite
// (OpenSQLiteStore).
type StepStore interface {
	// Append durably persists rec as the next entry for the run,
	// creating the run's storage location if absent. Prior entries are
	// never rewritten or reordered.
	Append(runID string, rec StepRecord) error

	// Load reconstructs the full ordered log in write order. If any
	// persisted entry cannot be deserialized, Load fails with a
	// *ParseError and returns no records: a corrupted entry invalidates
	// trust in the entire log.
	Load(runID string) ([]StepRecord, error)

	// Source describes where the run's records live (a file path or
	// DSN), for inclusion in manifests.
	Source(runID string) string

	Close() error
}

// ParseError reports a persisted record that could not be deserialized.
// The whole load is aborted; there is no partial result.
type ParseError struct {
	Source string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s line %d: %v", e.Source, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
