package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prooflog/prooflog"
)

func newAnchorCommand(rootOpts *rootOptions) *cobra.Command {
	var (
		runID string
		meta  []string
	)

	cmd := &cobra.Command{
		Use:   "anchor",
		Short: "Bind a finalized run's Merkle root to a fresh monotonic counter",
		Long: `Reads the run manifest written by finalize, obtains the next counter
from the configured anchor backend (PROOFLOG_ANCHOR_BACKEND), and
submits the root under that counter. A conflict means the counter is
already bound to a different root and is not retried.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := prooflog.ReadManifest(rootOpts.Dir, runID)
			if err != nil {
				return fmt.Errorf("read manifest (run finalize first?): %w", err)
			}

			metaMap, err := parseMeta(meta)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			cfg := prooflog.LoadConfig()
			store, err := prooflog.OpenAnchorStore(ctx, cfg)
			if err != nil {
				return err
			}

			counter, err := store.NextCounter(ctx, runID)
			if err != nil {
				return err
			}
			if err := store.AnchorRoot(ctx, runID, counter, m.MerkleRoot, metaMap); err != nil {
				return err
			}
			slog.Info("root anchored",
				"run_id", runID, "counter", counter,
				"merkle_root", m.MerkleRoot, "backend", cfg.AnchorBackend)
			fmt.Printf("%d %s\n", counter, m.MerkleRoot)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "run identifier (required)")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "anchor metadata as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("run")

	return cmd
}

func newGatewayCommand(rootOpts *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Serve the configured anchor backend over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := prooflog.LoadConfig()
			store, err := prooflog.OpenAnchorStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			srv := &prooflog.AnchorServer{
				Store: store,
				Token: cfg.GatewayToken,
			}
			slog.Info("anchor gateway listening", "addr", listen, "backend", cfg.AnchorBackend)
			return http.ListenAndServe(listen, srv)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":8441", "listen address")

	return cmd
}

func parseMeta(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid key=value pair %q", p)
		}
		out[k] = v
	}
	return out, nil
}
