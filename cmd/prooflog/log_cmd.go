package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prooflog/prooflog"
)

func newAppendCommand(rootOpts *rootOptions) *cobra.Command {
	var (
		runID     string
		index     uint64
		proofHash string
		inputs    []string
		strict    bool
	)

	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append one step record to a run's audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rootOpts.openStepStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if runID == "" {
				runID = prooflog.NewRunID()
				slog.Info("generated run id", "run_id", runID)
			}

			publicInputs, err := parseKeyValues(inputs)
			if err != nil {
				return err
			}

			log, err := prooflog.NewLog(prooflog.LogConfig{StrictIndexes: strict}, store, runID)
			if err != nil {
				return err
			}
			rec, err := log.Append(prooflog.StepRecord{
				StepIndex:    index,
				ProofHash:    proofHash,
				PublicInputs: publicInputs,
			})
			if err != nil {
				return err
			}
			slog.Info("step appended", "run_id", runID, "step_idx", rec.StepIndex)
			fmt.Println(runID)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "run identifier (generated if empty)")
	cmd.Flags().Uint64Var(&index, "index", 0, "step index")
	cmd.Flags().StringVar(&proofHash, "proof-hash", "", "hex proof hash for this step (required)")
	cmd.Flags().StringArrayVar(&inputs, "input", nil, "public input as key=value (repeatable)")
	cmd.Flags().BoolVar(&strict, "strict", false, "require contiguous step indexes")
	_ = cmd.MarkFlagRequired("proof-hash")

	return cmd
}

func newFinalizeCommand(rootOpts *rootOptions) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Compute the Merkle root and write the run manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rootOpts.openStepStore()
			if err != nil {
				return err
			}
			defer store.Close()

			m, err := prooflog.Finalize(store, rootOpts.Dir, runID)
			if err != nil {
				return err
			}
			slog.Info("run finalized", "run_id", runID, "steps", m.StepCount)
			fmt.Println(m.MerkleRoot)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "run identifier (required)")
	_ = cmd.MarkFlagRequired("run")

	return cmd
}

// parseKeyValues splits repeated key=value flags into a map. Values are
// kept as strings; the log treats public inputs as opaque.
func parseKeyValues(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid key=value pair %q", p)
		}
		out[k] = v
	}
	return out, nil
}
