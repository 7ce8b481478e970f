package prooflog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LocalAnchorStore keeps counters and anchors in a single JSON file.
// Development only: the read-increment-write counter is correct under a
// single caller, and AnchorRoot appends unconditionally with no
// protection against overwrite or replay.
type LocalAnchorStore struct {
	path string
	mu   sync.Mutex
}

type localRunState struct {
	Counter int64          `json:"counter"`
	Anchors []AnchorRecord `json:"anchors"`
}

// OpenLocalAnchorStore creates or opens the JSON file at path.
func OpenLocalAnchorStore(path string) (*LocalAnchorStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create anchor directory: %w", err)
		}
	}
	return &LocalAnchorStore{path: path}, nil
}

// NextCounter increments and returns the run's counter.
func (s *LocalAnchorStore) NextCounter(_ context.Context, runID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return 0, err
	}
	rs := state[runID]
	if rs == nil {
		rs = &localRunState{}
		state[runID] = rs
	}
	rs.Counter++
	if err := s.save(state); err != nil {
		return 0, err
	}
	return rs.Counter, nil
}

// AnchorRoot appends an anchor record for the run.
func (s *LocalAnchorStore) AnchorRoot(_ context.Context, runID string, counter int64, merkleRoot string, meta map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	rs := state[runID]
	if rs == nil {
		rs = &localRunState{Counter: counter}
		state[runID] = rs
	}
	rs.Anchors = append(rs.Anchors, AnchorRecord{
		RunID:      runID,
		Counter:    counter,
		MerkleRoot: merkleRoot,
		Meta:       meta,
		AnchoredAt: time.Now().Unix(),
	})
	return s.save(state)
}

// Anchors returns the run's full anchor history for inspection.
func (s *LocalAnchorStore) Anchors(runID string) ([]AnchorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return nil, err
	}
	rs := state[runID]
	if rs == nil {
		return nil, nil
	}
	return append([]AnchorRecord(nil), rs.Anchors...), nil
}

func (s *LocalAnchorStore) load() (map[string]*localRunState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]*localRunState{}, nil
		}
		return nil, fmt.Errorf("read anchor file: %w", err)
	}
	state := map[string]*localRunState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode anchor file: %w", err)
	}
	return state, nil
}

func (s *LocalAnchorStore) save(state map[string]*localRunState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode anchor file: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write anchor file: %w", err)
	}
	return nil
}
