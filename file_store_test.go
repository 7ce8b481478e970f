package prooflog

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "prooflog-filestore-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := OpenFileStore(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	want := []StepRecord{
		{StepIndex: 0, ProofHash: strings.Repeat("00", 32), PublicInputs: map[string]any{"loss": 0.5}, RecordedAt: 1700000000.25},
		{StepIndex: 1, ProofHash: strings.Repeat("01", 32), PublicInputs: map[string]any{"loss": 0.4, "lr": "1e-3"}, RecordedAt: 1700000001.5},
		{StepIndex: 2, ProofHash: strings.Repeat("02", 32), RecordedAt: 1700000002},
	}
	for _, rec := range want {
		if err := store.Append("run-a", rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := store.Load("run-a")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestFileStoreLoadUnknownRun(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "prooflog-filestore-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := OpenFileStore(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	records, err := store.Load("never-written")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty log, got %d records", len(records))
	}
}

func TestFileStoreMalformedLineAbortsLoad(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "prooflog-filestore-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := OpenFileStore(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.Append("run-b", StepRecord{StepIndex: 0, ProofHash: strings.Repeat("00", 32), RecordedAt: 1}); err != nil {
		t.Fatal(err)
	}

	// Inject a corrupted line between two valid ones.
	f, err := os.OpenFile(store.Source("run-b"), os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{this is not json\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	if err := store.Append("run-b", StepRecord{StepIndex: 1, ProofHash: strings.Repeat("01", 32), RecordedAt: 2}); err != nil {
		t.Fatal(err)
	}

	records, err := store.Load("run-b")
	if err == nil {
		t.Fatal("expected parse failure, got nil error")
	}
	if records != nil {
		t.Errorf("expected no partial result, got %d records", len(records))
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if parseErr.Line != 2 {
		t.Errorf("expected failure on line 2, got %d", parseErr.Line)
	}
}

func TestFileStoreBlankLinesIgnored(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "prooflog-filestore-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := OpenFileStore(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.Append("run-c", StepRecord{StepIndex: 0, ProofHash: strings.Repeat("00", 32), RecordedAt: 1}); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(store.Source("run-c"), os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("\n\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	records, err := store.Load("run-c")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}
}
