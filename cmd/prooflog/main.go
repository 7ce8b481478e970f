package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/prooflog/prooflog"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	Dir      string
	Database string
	Verbose  bool
}

// openStepStore picks the step-store backend: SQLite when --db is set,
// otherwise JSON-line files under the artifact directory.
func (o *rootOptions) openStepStore() (prooflog.StepStore, error) {
	if o.Database != "" {
		return prooflog.OpenSQLiteStore(o.Database)
	}
	return prooflog.OpenFileStore(o.Dir)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "prooflog",
		Short:         "Tamper-evident audit trail for step proofs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
	}

	defaults := prooflog.LoadConfig()
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", defaults.ArtifactDir, "artifact directory")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "SQLite DSN for the step store (default: file store under --dir)")
	cmd.PersistentFlags().BoolVar(&opts.Verbose, "verbose", false, "enable debug logging")

	cmd.AddCommand(
		newAppendCommand(opts),
		newFinalizeCommand(opts),
		newAnchorCommand(opts),
		newVerifyCommand(opts),
		newGatewayCommand(opts),
	)
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
