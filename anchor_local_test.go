package prooflog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalAnchorCounterMonotonic(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "prooflog-anchor-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := OpenLocalAnchorStore(filepath.Join(tmpDir, "anchors.json"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		got, err := store.NextCounter(ctx, "run-a")
		if err != nil {
			t.Fatalf("NextCounter failed: %v", err)
		}
		if got != want {
			t.Errorf("expected counter %d, got %d", want, got)
		}
	}

	// Counters are per run.
	got, err := store.NextCounter(ctx, "run-b")
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("expected fresh run to start at 1, got %d", got)
	}
}

func TestLocalAnchorPersistsAcrossReopen(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "prooflog-anchor-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)
	path := filepath.Join(tmpDir, "anchors.json")

	store, err := OpenLocalAnchorStore(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := store.NextCounter(ctx, "run-a"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.NextCounter(ctx, "run-a"); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenLocalAnchorStore(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reopened.NextCounter(ctx, "run-a")
	if err != nil {
		t.Fatal(err)
	}
	if got != 3 {
		t.Errorf("expected counter 3 after reopen, got %d", got)
	}
}

func TestLocalAnchorRootAppends(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "prooflog-anchor-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := OpenLocalAnchorStore(filepath.Join(tmpDir, "anchors.json"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	root := strings.Repeat("ab", 32)

	counter, err := store.NextCounter(ctx, "run-a")
	if err != nil {
		t.Fatal(err)
	}
	meta := map[string]string{"env": "dev"}
	if err := store.AnchorRoot(ctx, "run-a", counter, root, meta); err != nil {
		t.Fatalf("AnchorRoot failed: %v", err)
	}

	anchors, err := store.Anchors("run-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(anchors) != 1 {
		t.Fatalf("expected 1 anchor, got %d", len(anchors))
	}
	a := anchors[0]
	if a.RunID != "run-a" || a.Counter != counter || a.MerkleRoot != root {
		t.Errorf("unexpected anchor record: %+v", a)
	}
	if a.Meta["env"] != "dev" {
		t.Errorf("meta not preserved: %+v", a.Meta)
	}
	if a.AnchoredAt == 0 {
		t.Error("expected AnchoredAt to be stamped")
	}
}
