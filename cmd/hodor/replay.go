package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hodor/internal/config"
	"hodor/internal/ledger"
	"hodor/internal/program"
	"hodor/internal/replay"
	"hodor/internal/storage"
	"hodor/internal/storage/postgres"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return fmt.Errorf("invalid program id: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The journal starts from an empty ledger, so replay does too.
	bank := ledger.NewBank(logger)
	bank.Register(programID, program.New(cfg.Swap(), logger))

	var sink storage.EventSink = storage.NewJsonlStorage(cfg.Out)
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		sink = storage.MultiSink{sink, store}
	}

	runner := replay.NewRunner(replay.RunConfig{
		JournalPath:       cfg.In,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, bank, sink, storage.NewJsonlStorage(cfg.Errors), logger)

	logger.Info("replay start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Stringer("program_id", programID),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	stats, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.LedgerOut != "" {
		if err := bank.Save(cfg.LedgerOut); err != nil {
			return fmt.Errorf("save ledger: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "entries=%d applied=%d events=%d failed=%d divergent=%d\n",
		stats.Entries, stats.Applied, stats.Events, stats.Failed, stats.Divergent)
	return nil
}
