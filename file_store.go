package prooflog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
)

// fileStepStore implements StepStore on the local filesystem. Layout:
//
//	<dir>/<run_id>/steps.jsonl   append-only, one StepRecord per line
//	<dir>/<run_id>/merkle_root.txt   written at finalize time
//	<dir>/<run_id>/run_manifest.json written at finalize time
//	<dir>/<run_id>/proofs/           per-step proof artifacts (external)
type fileStepStore struct {
	dir string
	mu  sync.Mutex
}

const (
	stepsFileName    = "steps.jsonl"
	rootFileName     = "merkle_root.txt"
	manifestFileName = "run_manifest.json"
	proofsDirName    = "proofs"
)

// OpenFileStore creates or opens a file-based step store rooted at dir.
func OpenFileStore(dir string) (StepStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &fileStepStore{dir: dir}, nil
}

func (s *fileStepStore) runDir(runID string) string {
	return filepath.Join(s.dir, runID)
}

// Append writes rec as one JSON line at the end of the run's log file.
func (s *fileStepStore) Append(runID string, rec StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.runDir(runID), 0o700); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}

	f, err := os.OpenFile(s.Source(runID), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open step log: %w", err)
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock step log: %w", err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode step record: %w", err)
	}
	line = append(line, '\n')

	n, err := f.Write(line)
	if err != nil {
		return fmt.Errorf("write step record: %w", err)
	}
	if n != len(line) {
		return fmt.Errorf("incomplete write: %d of %d bytes", n, len(line))
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync step log: %w", err)
	}
	return nil
}

// Load reads the run's log file line by line in write order. Any line
// that fails to decode aborts the whole load with a *ParseError.
func (s *fileStepStore) Load(runID string) ([]StepRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Source(runID)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // run has no entries yet
		}
		return nil, fmt.Errorf("open step log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []StepRecord
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec StepRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, &ParseError{Source: path, Line: lineNo, Err: err}
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read step log: %w", err)
	}
	return records, nil
}

// Source returns the run's log file path.
func (s *fileStepStore) Source(runID string) string {
	return filepath.Join(s.runDir(runID), stepsFileName)
}

func (s *fileStepStore) Close() error { return nil }
