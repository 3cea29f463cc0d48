package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"hodor/internal/ledger"
	"hodor/internal/model"
	"hodor/internal/storage"
	"hodor/internal/units"
)

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
}

// MetricsStore persists aggregation output.
type MetricsStore interface {
	UpsertPools(ctx context.Context, pools []model.Pool) error
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// Aggregator aggregates pool events into pool window metrics.
type Aggregator struct {
	cfg          Config
	store        MetricsStore
	bank         *ledger.Bank
	logger       *zap.Logger
	pools        *PoolCache
	accumulators map[string]*Accumulator
	poolSeen     map[string]uint64
	lpSupply     map[string]uint64
}

// NewAggregator builds an Aggregator. bank resolves pool metadata and mint
// decimals; without it amounts are reported in raw units.
func NewAggregator(cfg Config, store MetricsStore, bank *ledger.Bank, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		store:        store,
		bank:         bank,
		logger:       logger.Named("aggregate"),
		pools:        NewPoolCache(),
		accumulators: make(map[string]*Accumulator),
		poolSeen:     make(map[string]uint64),
		lpSupply:     make(map[string]uint64),
	}
}

// Run executes aggregation over a pool events JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.store == nil {
		return fmt.Errorf("store is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return err
	}

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	pools := make([]model.Pool, 0, 16)
	maxTs := startTs
	var total, windows, skipped, failed int

	err = storage.ReadEvents(inputPath, func(record model.PoolEvent) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		total++

		if record.Timestamp <= startTs {
			skipped++
			a.trackLPSupply(record)
			return nil
		}

		windowStart := windowStart(record.Timestamp, a.cfg.WindowSeconds)
		windowEnd := windowStart + a.cfg.WindowSeconds

		acc := a.accumulators[record.Pool]
		if acc == nil {
			acc = NewAccumulator(record, windowStart, windowEnd)
			a.accumulators[record.Pool] = acc
		} else if acc.WindowStart != windowStart {
			metrics, pool := a.flushAccumulator(acc)
			batch = append(batch, metrics)
			windows++
			if pool != nil {
				pools = append(pools, *pool)
			}
			acc = NewAccumulator(record, windowStart, windowEnd)
			a.accumulators[record.Pool] = acc
		}

		if err := acc.AddEvent(record); err != nil {
			failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.String("pool", record.Pool), zap.Uint64("seq", record.Seq))
			return nil
		}
		a.trackLPSupply(record)

		if record.Timestamp > maxTs {
			maxTs = record.Timestamp
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.flushBatches(ctx, batch, pools); err != nil {
				return err
			}
			batch = batch[:0]
			pools = pools[:0]

			if err := a.saveState(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}

	for _, acc := range a.accumulators {
		metrics, pool := a.flushAccumulator(acc)
		batch = append(batch, metrics)
		windows++
		if pool != nil {
			pools = append(pools, *pool)
		}
	}
	a.accumulators = make(map[string]*Accumulator)

	if len(batch) > 0 || len(pools) > 0 {
		if err := a.flushBatches(ctx, batch, pools); err != nil {
			return err
		}
	}

	a.cfg.RecomputeFrom = maxTs
	if err := a.saveState(ctx); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", windows),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	return nil
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

// saveState records a timestamp before every open window so a restart
// recomputes those windows from their first event.
func (a *Aggregator) saveState(ctx context.Context) error {
	if a.cfg.StateStore == nil {
		return nil
	}

	if len(a.accumulators) == 0 {
		return a.cfg.StateStore.Save(ctx, a.cfg.RecomputeFrom)
	}

	safeTs := minOpenWindowStart(a.accumulators)
	if safeTs > 0 {
		safeTs = safeTs - 1
	}
	if safeTs == 0 {
		safeTs = a.cfg.RecomputeFrom
	}
	return a.cfg.StateStore.Save(ctx, safeTs)
}

func (a *Aggregator) flushBatches(ctx context.Context, batch []model.PoolWindowMetrics, pools []model.Pool) error {
	if len(pools) > 0 {
		if err := a.store.UpsertPools(ctx, pools); err != nil {
			return err
		}
	}
	if len(batch) > 0 {
		if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) flushAccumulator(acc *Accumulator) (model.PoolWindowMetrics, *model.Pool) {
	info, ok := a.poolInfo(acc.PoolAddress)
	var poolRecord *model.Pool
	if ok {
		poolRecord = a.registerPool(info.Pool, acc.FirstSeq)
	}

	decimals := [2]uint8{info.DecimalsA, info.DecimalsB}
	feeRateA := computeRate(acc.LPFee[0], acc.BalanceA)
	feeRateB := computeRate(acc.LPFee[1], acc.BalanceB)

	metrics := model.PoolWindowMetrics{
		PoolAddress:    acc.PoolAddress,
		WindowSizeSecs: int64(a.cfg.WindowSeconds),
		WindowStart:    time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(acc.WindowEnd), 0).UTC(),
		SwapCount:      acc.SwapCount,
		DepositCount:   acc.DepositCount,
		WithdrawCount:  acc.WithdrawCount,
		VolumeA:        units.FormatAmount(acc.Volume[0], decimals[0]),
		VolumeB:        units.FormatAmount(acc.Volume[1], decimals[1]),
		LPFeeA:         units.FormatAmount(acc.LPFee[0], decimals[0]),
		LPFeeB:         units.FormatAmount(acc.LPFee[1], decimals[1]),
		DAOFeeA:        units.FormatAmount(acc.DAOFee[0], decimals[0]),
		DAOFeeB:        units.FormatAmount(acc.DAOFee[1], decimals[1]),
		CreatorFeeA:    units.FormatAmount(acc.CreatorFee[0], decimals[0]),
		CreatorFeeB:    units.FormatAmount(acc.CreatorFee[1], decimals[1]),
		FeeRateA:       feeRateA,
		FeeRateB:       feeRateB,
		TVLA:           units.FormatUint(acc.BalanceA, decimals[0]),
		TVLB:           units.FormatUint(acc.BalanceB, decimals[1]),
		LPSupply:       a.windowLPSupply(acc, info, ok),
		APR:            computeAPR(feeRateA, feeRateB, a.cfg.WindowSeconds),
	}
	return metrics, poolRecord
}

// trackLPSupply remembers the last known LP supply of a pool so windows
// holding only swaps can report it.
func (a *Aggregator) trackLPSupply(record model.PoolEvent) {
	if carriesLPSupply(record) {
		a.lpSupply[record.Pool] = record.LPSupply
	}
}

// windowLPSupply is the LP supply at the end of the window: from its own
// events, else from earlier events of the pool, else from the ledger mint.
func (a *Aggregator) windowLPSupply(acc *Accumulator, info PoolInfo, resolved bool) uint64 {
	if acc.HasLPSupply {
		return acc.LPSupply
	}
	if supply, ok := a.lpSupply[acc.PoolAddress]; ok {
		return supply
	}
	if !resolved || a.bank == nil {
		return 0
	}
	lpMint, err := solana.PublicKeyFromBase58(info.Pool.LPMint)
	if err != nil {
		return 0
	}
	mint, err := a.bank.Mint(lpMint)
	if err != nil {
		a.logger.Warn("lp mint", zap.String("pool", acc.PoolAddress), zap.Error(err))
		return 0
	}
	return mint.Supply
}

func (a *Aggregator) poolInfo(address string) (PoolInfo, bool) {
	if info, ok := a.pools.Get(address); ok {
		return info, true
	}
	if a.bank == nil {
		return PoolInfo{}, false
	}
	info, err := ResolvePool(a.bank, address)
	if err != nil {
		a.logger.Warn("missing pool meta", zap.String("pool", address), zap.Error(err))
		return PoolInfo{}, false
	}
	a.pools.Set(address, info)
	return info, true
}

// registerPool returns the pool record the first time a pool is seen, or
// when it is seen at an earlier sequence than before.
func (a *Aggregator) registerPool(pool model.Pool, firstSeq uint64) *model.Pool {
	if seen, ok := a.poolSeen[pool.Address]; ok && seen <= firstSeq {
		return nil
	}
	a.poolSeen[pool.Address] = firstSeq
	pool.FirstSeenSeq = firstSeq
	return &pool
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func minOpenWindowStart(acc map[string]*Accumulator) uint64 {
	var min uint64
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if min == 0 || entry.WindowStart < min {
			min = entry.WindowStart
		}
	}
	return min
}
