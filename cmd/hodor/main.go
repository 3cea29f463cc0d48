package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hodor/internal/config"
	"hodor/internal/swap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "hodor",
		Short:        "Constant product swap pools on a local ledger",
		SilenceUsage: true,
	}

	def := swap.DefaultConfig()
	pf := root.PersistentFlags()
	pf.String("config", "", "config file path")
	pf.String("ledger", "./data/ledger.json", "ledger snapshot path")
	pf.String("journal", "./data/journal.jsonl", "journal JSONL path, empty disables journaling")
	pf.String("program-id", config.DefaultProgramID, "swap program address")
	pf.Uint32("dao-fee-rate", def.DAOFeeRate, "DAO fee rate in 1e-8 units")
	pf.Uint8("lp-decimals", def.LPDecimals, "decimals of new LP mints")
	pf.Uint64("bootstrap-lp", def.BootstrapLPAmount, "LP minted by the first deposit")
	pf.Uint32("slippage-bps", 100, "slippage tolerance in basis points")
	pf.String("signer", "", "keypair file or base58 public key acting as signer")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newPoolCmd(), newTokenCmd(), newReplayCmd(), newAggregateCmd())
	return root
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the journal into a fresh ledger and export pool events",
		Args:  cobra.NoArgs,
		RunE:  runReplay,
	}

	cmd.Flags().String("in", "", "input journal JSONL, defaults to --journal")
	cmd.Flags().String("out", "./data/events.jsonl", "output pool events JSONL")
	cmd.Flags().String("errors", "./data/replay_errors.jsonl", "replay errors JSONL")
	cmd.Flags().String("ledger-out", "", "optional path to write the rebuilt ledger snapshot")
	cmd.Flags().String("checkpoint", "./data/replay_checkpoint.json", "checkpoint file path")
	cmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	cmd.Flags().Uint64("batch-size", 500, "journal entries per batch")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("pg-dsn", "", "optional Postgres DSN for pool events")
	return cmd
}

func newAggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate pool events into window metrics",
		Args:  cobra.NoArgs,
		RunE:  runAggregate,
	}

	cmd.Flags().String("in", "./data/events.jsonl", "input pool events JSONL")
	cmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	cmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	cmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	return cmd
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
