package prooflog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// TestRedisAnchorStore_Integration requires a running Redis.
// We skip if connection fails.
func TestRedisAnchorStore_Integration(t *testing.T) {
	store := OpenRedisAnchorStore("localhost:6379", "", 0)
	ctx := context.Background()
	if _, err := store.client.Ping(ctx).Result(); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}
	defer store.Close()

	runID := "prooflog-test-" + uuid.NewString()
	rootA := strings.Repeat("aa", 32)
	rootB := strings.Repeat("bb", 32)

	// Counter monotonicity from 1.
	for want := int64(1); want <= 3; want++ {
		got, err := store.NextCounter(ctx, runID)
		if err != nil {
			t.Fatalf("NextCounter failed: %v", err)
		}
		if got != want {
			t.Errorf("expected counter %d, got %d", want, got)
		}
	}

	if err := store.AnchorRoot(ctx, runID, 3, rootA, map[string]string{"env": "test"}); err != nil {
		t.Fatalf("first anchor rejected: %v", err)
	}

	// Idempotent retry succeeds.
	if err := store.AnchorRoot(ctx, runID, 3, rootA, nil); err != nil {
		t.Errorf("idempotent retry rejected: %v", err)
	}

	// Conflicting root under the same counter is rejected and the
	// stored anchor is unchanged.
	err := store.AnchorRoot(ctx, runID, 3, rootB, nil)
	if !errors.Is(err, ErrAnchorConflict) {
		t.Errorf("expected ErrAnchorConflict, got %v", err)
	}
	rec, found, err := store.Anchor(ctx, runID)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected anchor to exist")
	}
	if rec.MerkleRoot != rootA || rec.Counter != 3 {
		t.Errorf("stored anchor corrupted: %+v", rec)
	}
	if rec.Meta["env"] != "test" {
		t.Errorf("meta not preserved: %+v", rec.Meta)
	}

	// Stale counter is rejected too.
	if err := store.AnchorRoot(ctx, runID, 2, rootA, nil); !errors.Is(err, ErrAnchorConflict) {
		t.Errorf("expected ErrAnchorConflict for stale counter, got %v", err)
	}
}
