package replay

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"hodor/internal/ledger"
	"hodor/internal/model"
	"hodor/internal/storage"
)

// RunConfig controls replay behavior.
type RunConfig struct {
	JournalPath       string
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// ErrorSink receives entries that failed to replay.
type ErrorSink interface {
	PutErrors(errs []model.ReplayError) error
}

// Stats summarizes a replay run.
type Stats struct {
	Entries   int
	Applied   int
	Events    int
	Failed    int
	Divergent int
}

// Runner re-executes a journal against a ledger and delivers the resulting
// pool events to a sink.
type Runner struct {
	cfg        RunConfig
	bank       *ledger.Bank
	sink       storage.EventSink
	errors     ErrorSink
	checkpoint *CheckpointStore
	logger     *zap.Logger
}

func NewRunner(cfg RunConfig, bank *ledger.Bank, sink storage.EventSink, errs ErrorSink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		bank:       bank,
		sink:       sink,
		errors:     errs,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
		logger:     logger.Named("replay"),
	}
}

// Run replays the whole journal. Entries at or below the checkpoint are
// applied to rebuild ledger state but their events are not delivered again.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	if r.bank == nil {
		return stats, fmt.Errorf("bank is nil")
	}
	if r.sink == nil {
		return stats, fmt.Errorf("sink is nil")
	}
	if r.cfg.BatchSize == 0 {
		r.cfg.BatchSize = 500
	}

	var entries []model.JournalEntry
	if err := storage.ReadJournal(r.cfg.JournalPath, func(entry model.JournalEntry) error {
		entries = append(entries, entry)
		return nil
	}); err != nil {
		return stats, fmt.Errorf("read journal: %w", err)
	}
	if err := validateJournal(entries); err != nil {
		return stats, fmt.Errorf("journal: %w", err)
	}
	stats.Entries = len(entries)
	if len(entries) == 0 {
		r.logger.Info("journal is empty", zap.String("journal", r.cfg.JournalPath))
		return stats, nil
	}

	var delivered uint64
	if cp, ok, err := r.checkpoint.Load(r.cfg.JournalPath); err != nil {
		return stats, err
	} else if ok {
		delivered = cp.LastDeliveredSeq
		r.logger.Info("resume from checkpoint", zap.Uint64("last_delivered_seq", delivered))
	}

	size := len(entries)
	if r.cfg.BatchSize < uint64(size) {
		size = int(r.cfg.BatchSize)
	}
	for start := 0; start < len(entries); start += size {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		batch := entries[start:min(start+size, len(entries))]
		from, to := batch[0].Seq, batch[len(batch)-1].Seq

		var events []model.PoolEvent
		var failures []model.ReplayError
		for _, entry := range batch {
			replayed, err := r.apply(entry)
			if err != nil {
				stats.Failed++
				failures = append(failures, replayError(entry, err))
				r.logger.Warn("replay entry", zap.Uint64("seq", entry.Seq), zap.String("kind", entry.Kind), zap.Error(err))
				continue
			}
			stats.Applied++

			if !sameEvents(entry.Events, replayed) {
				stats.Divergent++
				failures = append(failures, replayError(entry, fmt.Errorf("replayed events differ from journal")))
				r.logger.Warn("divergent events", zap.Uint64("seq", entry.Seq))
			}
			if entry.Seq > delivered {
				events = append(events, replayed...)
			}
		}

		if len(events) > 0 {
			if err := withRetry(ctx, r.logger, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
				return r.sink.PutEvents(ctx, events)
			}); err != nil {
				return stats, fmt.Errorf("put events %d-%d: %w", from, to, err)
			}
			stats.Events += len(events)
		}
		if len(failures) > 0 && r.errors != nil {
			if err := r.errors.PutErrors(failures); err != nil {
				return stats, fmt.Errorf("put errors: %w", err)
			}
		}

		if to > delivered {
			if err := r.checkpoint.Save(Checkpoint{Journal: r.cfg.JournalPath, LastDeliveredSeq: to, Slot: r.bank.Slot()}); err != nil {
				return stats, err
			}
			delivered = to
		}

		r.logger.Debug("batch done",
			zap.Uint64("from", from),
			zap.Uint64("to", to),
			zap.Int("events", len(events)),
			zap.Int("failures", len(failures)),
		)
	}

	r.logger.Info("replay complete",
		zap.Int("entries", stats.Entries),
		zap.Int("applied", stats.Applied),
		zap.Int("events", stats.Events),
		zap.Int("failed", stats.Failed),
		zap.Int("divergent", stats.Divergent),
		zap.Uint64("slot", r.bank.Slot()),
	)
	return stats, nil
}

func (r *Runner) apply(entry model.JournalEntry) ([]model.PoolEvent, error) {
	switch entry.Kind {
	case model.KindInstruction:
		ix, signers, err := decodeInstruction(entry)
		if err != nil {
			return nil, err
		}
		evs, err := r.bank.Execute(ix, signers...)
		if err != nil {
			return nil, err
		}
		fillLPSupply(r.bank, evs)
		out := make([]model.PoolEvent, 0, len(evs))
		for _, ev := range evs {
			out = append(out, BuildPoolEvent(entry.Seq, r.bank.Slot(), entry.Timestamp, ev))
		}
		return out, nil

	case model.KindCreateMint:
		mint, err := parseKey("mint", entry.Mint)
		if err != nil {
			return nil, err
		}
		authority, err := parseKey("owner", entry.Owner)
		if err != nil {
			return nil, err
		}
		return nil, r.bank.CreateMint(mint, authority, entry.Decimals)

	case model.KindCreateTokenAccount:
		account, err := parseKey("account", entry.Account)
		if err != nil {
			return nil, err
		}
		mint, err := parseKey("mint", entry.Mint)
		if err != nil {
			return nil, err
		}
		owner, err := parseKey("owner", entry.Owner)
		if err != nil {
			return nil, err
		}
		return nil, r.bank.CreateTokenAccount(account, mint, owner)

	case model.KindMintTo:
		mint, err := parseKey("mint", entry.Mint)
		if err != nil {
			return nil, err
		}
		account, err := parseKey("account", entry.Account)
		if err != nil {
			return nil, err
		}
		authority, err := parseKey("owner", entry.Owner)
		if err != nil {
			return nil, err
		}
		return nil, r.bank.MintTo(mint, account, authority, entry.Amount)
	}
	return nil, fmt.Errorf("unknown kind %q", entry.Kind)
}

// sameEvents compares journaled and replayed events ignoring the slot,
// which depends on the ledger the journal was recorded against.
func sameEvents(journaled, replayed []model.PoolEvent) bool {
	if len(journaled) != len(replayed) {
		return false
	}
	for i := range journaled {
		a, b := journaled[i], replayed[i]
		a.Slot, b.Slot = 0, 0
		if a.Op == "swap" && a.LPSupply == 0 {
			// journaled before swap events carried the LP supply
			b.LPSupply = 0
		}
		if a != b {
			return false
		}
	}
	return true
}

func replayError(entry model.JournalEntry, err error) model.ReplayError {
	re := model.ReplayError{Seq: entry.Seq, Kind: entry.Kind, Error: err.Error()}
	if len(entry.Events) > 0 {
		re.Op = entry.Events[0].Op
	}
	return re
}
