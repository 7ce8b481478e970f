// Package prooflog maintains a tamper-evident, replay-resistant audit
// trail for externally generated step proofs. Each completed unit of
// work appends one record to an append-only per-run log; finalizing a
// run commits the ordered proof hashes to a single Merkle root, which
// is then bound to a monotonic counter in an anchor store to defeat
// rollback and replay of stale roots.
package prooflog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StepRecord is one entry in a run's audit trail. Records are immutable
// once written; the field tags fix the on-disk JSON line format.
type StepRecord struct {
	StepIndex    uint64         `json:"step_idx"`
	ProofHash    string         `json:"proof_hash"`
	PublicInputs map[string]any `json:"public_inputs,omitempty"`
	RecordedAt   float64        `json:"timestamp"` // unix seconds
}

// RunLog is the full ordered trail for one run. Steps are in append
// order, which is the commitment order; MerkleRoot is empty until the
// run has been finalized.
type RunLog struct {
	RunID      string
	Steps      []StepRecord
	MerkleRoot string
}

// RunManifest is the terminal artifact of a finalized run.
type RunManifest struct {
	RunID      string  `json:"run_id"`
	StepCount  int     `json:"num_steps"`
	MerkleRoot string  `json:"merkle_root"`
	CreatedAt  float64 `json:"created_at"` // unix seconds
	StepsFile  string  `json:"steps_file"`
	ProofsDir  string  `json:"proofs_dir"`
}

// AnchorRecord binds a run's Merkle root to a monotonic counter value.
type AnchorRecord struct {
	RunID      string            `json:"run_id"`
	Counter    int64             `json:"counter"`
	MerkleRoot string            `json:"merkle_root"`
	Meta       map[string]string `json:"meta,omitempty"`
	AnchoredAt int64             `json:"anchored_at"` // unix seconds
}

// LogConfig controls appender behavior.
type LogConfig struct {
	// StrictIndexes rejects appends whose StepIndex is not the next
	// contiguous index (starting at 0). Off by default: the log itself
	// does not interpret step indices, it only preserves append order.
	StrictIndexes bool
}

// Log is the single-writer appender for one run. Concurrent appenders
// to the same run are not coordinated; callers own serialization.
type Log struct {
	cfg   LogConfig
	runID string
	store StepStore
	next  uint64
}

// NewLog binds an appender to a run in the given store. With
// StrictIndexes set, the expected next index is seeded from the
// already-persisted records.
func NewLog(cfg LogConfig, store StepStore, runID string) (*Log, error) {
	l := &Log{cfg: cfg, runID: runID, store: store}
	if cfg.StrictIndexes {
		records, err := store.Load(runID)
		if err != nil {
			return nil, fmt.Errorf("seed index check: %w", err)
		}
		l.next = uint64(len(records))
	}
	return l, nil
}

// RunID returns the run this appender writes to.
func (l *Log) RunID() string { return l.runID }

// Append durably persists rec as the next entry for the run. A zero
// RecordedAt is stamped with the current time. The persisted record is
// returned.
func (l *Log) Append(rec StepRecord) (StepRecord, error) {
	if l.cfg.StrictIndexes && rec.StepIndex != l.next {
		return StepRecord{}, fmt.Errorf("non-contiguous step index: have %d, got %d", l.next, rec.StepIndex)
	}
	if rec.RecordedAt == 0 {
		rec.RecordedAt = unixSeconds(time.Now())
	}
	if err := l.store.Append(l.runID, rec); err != nil {
		return StepRecord{}, err
	}
	l.next = rec.StepIndex + 1
	return rec, nil
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
