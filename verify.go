package prooflog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
)

// ErrRootMismatch indicates the recomputed Merkle root does not match a
// persisted or anchored root: the log, the manifest, or the anchor has
// been tampered with or truncated.
var ErrRootMismatch = errors.New("merkle root mismatch")

// ErrStepCountMismatch indicates the manifest's step count disagrees
// with the loaded log.
var ErrStepCountMismatch = errors.New("step count mismatch")

// ProofChecker validates one step's proof artifact out of band. The
// core does not verify proofs itself; callers plug in their proving
// backend's verifier here.
type ProofChecker func(ctx context.Context, rec StepRecord, proofPath string) error

// VerifyRun reloads the run's log, recomputes the root, and checks it
// against the finalized root artifact and the manifest. The manifest is
// returned so callers can cross-check it against an independently
// anchored root.
func VerifyRun(store StepStore, dir, runID string) (RunManifest, error) {
	records, err := store.Load(runID)
	if err != nil {
		return RunManifest{}, fmt.Errorf("verify %s: %w", runID, err)
	}
	hashes := make([]string, len(records))
	for i, r := range records {
		hashes[i] = r.ProofHash
	}
	root, err := Root(hashes)
	if err != nil {
		return RunManifest{}, fmt.Errorf("verify %s: %w", runID, err)
	}

	m, err := ReadManifest(dir, runID)
	if err != nil {
		return RunManifest{}, fmt.Errorf("verify %s: read manifest: %w", runID, err)
	}
	if m.StepCount != len(records) {
		return RunManifest{}, fmt.Errorf("verify %s: manifest has %d steps, log has %d: %w",
			runID, m.StepCount, len(records), ErrStepCountMismatch)
	}
	if m.MerkleRoot != root {
		return RunManifest{}, fmt.Errorf("verify %s: manifest root %s, recomputed %s: %w",
			runID, m.MerkleRoot, root, ErrRootMismatch)
	}

	fileRoot, ok, err := ReadRoot(dir, runID)
	if err != nil {
		return RunManifest{}, fmt.Errorf("verify %s: %w", runID, err)
	}
	if ok && fileRoot != root {
		return RunManifest{}, fmt.Errorf("verify %s: root artifact %s, recomputed %s: %w",
			runID, fileRoot, root, ErrRootMismatch)
	}
	return m, nil
}

// VerifyAgainstRoot checks the run's recomputed root against an
// independently obtained root, typically read back from an anchor.
func VerifyAgainstRoot(store StepStore, dir, runID, anchoredRoot string) error {
	m, err := VerifyRun(store, dir, runID)
	if err != nil {
		return err
	}
	if m.MerkleRoot != anchoredRoot {
		return fmt.Errorf("verify %s: anchored root %s, recomputed %s: %w",
			runID, anchoredRoot, m.MerkleRoot, ErrRootMismatch)
	}
	return nil
}

// SampleSteps picks up to k records without replacement. The rng makes
// audits reproducible; pass a seeded source to replay a sample.
func SampleSteps(records []StepRecord, k int, rng *rand.Rand) []StepRecord {
	if k < 0 {
		k = 0
	}
	if k >= len(records) {
		return append([]StepRecord(nil), records...)
	}
	idx := rng.Perm(len(records))[:k]
	out := make([]StepRecord, 0, k)
	for _, i := range idx {
		out = append(out, records[i])
	}
	return out
}

// ProofPath returns the conventional location of a step's proof
// artifact under the run's proofs directory.
func ProofPath(dir, runID string, rec StepRecord) string {
	return filepath.Join(dir, runID, proofsDirName, fmt.Sprintf("step_%06d.proof", rec.StepIndex))
}

// VerifySample runs check against k randomly sampled steps of the run.
// The first failing step aborts the sweep.
func VerifySample(ctx context.Context, store StepStore, dir, runID string, k int, rng *rand.Rand, check ProofChecker) error {
	records, err := store.Load(runID)
	if err != nil {
		return fmt.Errorf("verify sample %s: %w", runID, err)
	}
	if len(records) == 0 {
		return nil
	}
	for _, rec := range SampleSteps(records, k, rng) {
		if err := check(ctx, rec, ProofPath(dir, runID, rec)); err != nil {
			return fmt.Errorf("verify step %d: %w", rec.StepIndex, err)
		}
	}
	return nil
}
