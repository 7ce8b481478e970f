package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/prooflog/prooflog"
)

func newVerifyCommand(rootOpts *rootOptions) *cobra.Command {
	var (
		runID        string
		anchoredRoot string
		sample       int
		seed         int64
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Recompute a run's Merkle root and cross-check its artifacts",
		Long: `Reloads the run's step log, recomputes the Merkle root, and checks it
against the finalized root artifact and manifest. With --root, also
cross-checks against an independently anchored root. With --sample,
prints the proof artifact paths of a random sample of steps for
out-of-band proof verification.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rootOpts.openStepStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if anchoredRoot != "" {
				if err := prooflog.VerifyAgainstRoot(store, rootOpts.Dir, runID, anchoredRoot); err != nil {
					return err
				}
			}
			m, err := prooflog.VerifyRun(store, rootOpts.Dir, runID)
			if err != nil {
				return err
			}
			slog.Info("run verified", "run_id", runID, "steps", m.StepCount, "merkle_root", m.MerkleRoot)

			if sample > 0 {
				records, err := store.Load(runID)
				if err != nil {
					return err
				}
				if seed == 0 {
					seed = time.Now().UnixNano()
				}
				rng := rand.New(rand.NewSource(seed))
				slog.Debug("sampling steps", "k", sample, "seed", seed)
				for _, rec := range prooflog.SampleSteps(records, sample, rng) {
					fmt.Printf("step %d: %s\n", rec.StepIndex, prooflog.ProofPath(rootOpts.Dir, runID, rec))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "run identifier (required)")
	cmd.Flags().StringVar(&anchoredRoot, "root", "", "independently anchored root to cross-check")
	cmd.Flags().IntVar(&sample, "sample", 0, "number of steps to sample for proof re-checking")
	cmd.Flags().Int64Var(&seed, "seed", 0, "sampling seed (default: current time)")
	_ = cmd.MarkFlagRequired("run")

	return cmd
}
