package aggregate

import (
	"context"
	"crypto/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"hodor/internal/ledger"
	"hodor/internal/model"
	"hodor/internal/storage"
	"hodor/internal/swap"
)

type fakeStore struct {
	pools   []model.Pool
	metrics []model.PoolWindowMetrics
}

func (f *fakeStore) UpsertPools(_ context.Context, pools []model.Pool) error {
	f.pools = append(f.pools, pools...)
	return nil
}

func (f *fakeStore) UpsertWindowMetrics(_ context.Context, metrics []model.PoolWindowMetrics) error {
	f.metrics = append(f.metrics, metrics...)
	return nil
}

func poolEvents(pool string) []model.PoolEvent {
	return []model.PoolEvent{
		{Seq: 1, Timestamp: 100, Op: "create_pool", Pool: pool},
		{Seq: 2, Timestamp: 110, Op: "deposit", Pool: pool, AmountA: 1_000_000, AmountB: 2_000_000, LPAmount: 10_000_000_000,
			BalanceA: 1_000_000, BalanceB: 2_000_000, LPSupply: 10_000_000_000},
		{Seq: 3, Timestamp: 130, Op: "swap", Pool: pool, InSide: "A", AmountIn: 100_000, AmountOut: 180_000,
			LPFee: 1_000, DAOFee: 100, BalanceA: 1_099_900, BalanceB: 1_820_000, LPSupply: 10_000_000_000},
		{Seq: 4, Timestamp: 170, Op: "swap", Pool: pool, InSide: "B", AmountIn: 50_000, AmountOut: 29_000,
			LPFee: 500, DAOFee: 50, CreatorFee: 25, BalanceA: 1_070_900, BalanceB: 1_869_925, LPSupply: 10_000_000_000},
		{Seq: 5, Timestamp: 200, Op: "withdraw", Pool: pool, AmountA: 107_090, AmountB: 186_992, LPAmount: 1_000_000_000,
			BalanceA: 963_810, BalanceB: 1_682_933, LPSupply: 9_000_000_000},
	}
}

func writeEvents(t *testing.T, events []model.PoolEvent) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, storage.NewJsonlStorage(path).PutEvents(context.Background(), events))
	return path
}

func TestAggregateWindows(t *testing.T) {
	pool := solana.NewWallet().PublicKey().String()
	in := writeEvents(t, poolEvents(pool))

	store := &fakeStore{}
	agg := NewAggregator(Config{WindowSeconds: 60}, store, nil, zaptest.NewLogger(t))
	require.NoError(t, agg.Run(context.Background(), in))

	require.Len(t, store.metrics, 3)
	assert.Empty(t, store.pools)

	first := store.metrics[0]
	assert.Equal(t, time.Unix(60, 0).UTC(), first.WindowStart)
	assert.Equal(t, time.Unix(120, 0).UTC(), first.WindowEnd)
	assert.Equal(t, uint64(1), first.DepositCount)
	assert.Zero(t, first.SwapCount)
	assert.Equal(t, "1000000", first.TVLA)
	require.NotNil(t, first.APR)
	assert.Equal(t, "0.000000000000000000", *first.APR)

	swaps := store.metrics[1]
	assert.Equal(t, uint64(2), swaps.SwapCount)
	assert.Equal(t, "100000", swaps.VolumeA)
	assert.Equal(t, "50000", swaps.VolumeB)
	assert.Equal(t, "1000", swaps.LPFeeA)
	assert.Equal(t, "500", swaps.LPFeeB)
	assert.Equal(t, "100", swaps.DAOFeeA)
	assert.Equal(t, "50", swaps.DAOFeeB)
	assert.Equal(t, "0", swaps.CreatorFeeA)
	assert.Equal(t, "25", swaps.CreatorFeeB)
	assert.Equal(t, "1070900", swaps.TVLA)
	assert.Equal(t, "1869925", swaps.TVLB)
	require.NotNil(t, swaps.FeeRateA)
	assert.Equal(t, "0.000933794005042488", *swaps.FeeRateA)
	require.NotNil(t, swaps.APR)

	last := store.metrics[2]
	assert.Equal(t, uint64(1), last.WithdrawCount)
	assert.Equal(t, uint64(9_000_000_000), last.LPSupply)
}

func TestAggregateResumesFromState(t *testing.T) {
	pool := solana.NewWallet().PublicKey().String()
	in := writeEvents(t, poolEvents(pool))
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}

	store := &fakeStore{}
	require.NoError(t, NewAggregator(Config{WindowSeconds: 60, StateStore: state}, store, nil, nil).Run(context.Background(), in))
	require.Len(t, store.metrics, 3)

	last, ok, err := state.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(200), last)

	store = &fakeStore{}
	require.NoError(t, NewAggregator(Config{WindowSeconds: 60, StateStore: state}, store, nil, nil).Run(context.Background(), in))
	assert.Empty(t, store.metrics)
}

func TestAggregateRecomputeFrom(t *testing.T) {
	pool := solana.NewWallet().PublicKey().String()
	in := writeEvents(t, poolEvents(pool))

	store := &fakeStore{}
	require.NoError(t, NewAggregator(Config{WindowSeconds: 60, RecomputeFrom: 130}, store, nil, nil).Run(context.Background(), in))
	require.Len(t, store.metrics, 2)
	assert.Equal(t, uint64(2), store.metrics[0].SwapCount)
}

func TestAggregateSkipsBadEvents(t *testing.T) {
	pool := solana.NewWallet().PublicKey().String()
	events := poolEvents(pool)
	events[2].InSide = "C"
	events = append(events, model.PoolEvent{Seq: 6, Timestamp: 210, Op: "burn", Pool: pool})
	in := writeEvents(t, events)

	store := &fakeStore{}
	require.NoError(t, NewAggregator(Config{WindowSeconds: 60}, store, nil, nil).Run(context.Background(), in))
	require.Len(t, store.metrics, 3)
	assert.Equal(t, uint64(1), store.metrics[1].SwapCount)
}

func TestAggregateRejectsZeroWindow(t *testing.T) {
	err := NewAggregator(Config{}, &fakeStore{}, nil, nil).Run(context.Background(), "unused")
	assert.Error(t, err)
}

// ledgerPool creates a pool with 6 and 9 decimal mints on a fresh ledger.
func ledgerPool(t *testing.T) (*ledger.Bank, solana.PublicKey, [32]byte, solana.PublicKey) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	bank := ledger.NewBank(logger)
	programID := solana.NewWallet().PublicKey()
	bank.Register(programID, swap.NewProcessor(swap.DefaultConfig(), logger))

	payer := solana.NewWallet().PublicKey()
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()
	require.NoError(t, bank.CreateMint(mintA, payer, 6))
	require.NoError(t, bank.CreateMint(mintB, payer, 9))

	seed, poolKey, err := swap.FindPoolSeed(programID, rand.Reader)
	require.NoError(t, err)
	ix, err := swap.NewCreatePoolInstruction(programID, payer, mintA, mintB, swap.CreatePool{
		Seed: seed, LPFeeRate: 1_000_000, CreatorFeeRate: 500_000,
	})
	require.NoError(t, err)
	_, err = bank.Execute(ix, payer)
	require.NoError(t, err)
	return bank, poolKey, seed, mintA
}

func TestAggregateResolvesPoolFromLedger(t *testing.T) {
	logger := zaptest.NewLogger(t)
	bank, poolKey, seed, mintA := ledgerPool(t)

	info, err := ResolvePool(bank, poolKey.String())
	require.NoError(t, err)
	assert.Equal(t, uint8(6), info.DecimalsA)
	assert.Equal(t, uint8(9), info.DecimalsB)
	assert.Equal(t, mintA.String(), info.Pool.MintA)
	assert.Equal(t, base58.Encode(seed[:]), info.Pool.Seed)
	assert.Equal(t, uint32(500_000), info.Pool.CreatorFeeRate)

	in := writeEvents(t, poolEvents(poolKey.String()))
	store := &fakeStore{}
	require.NoError(t, NewAggregator(Config{WindowSeconds: 60}, store, bank, logger).Run(context.Background(), in))

	require.Len(t, store.pools, 1)
	assert.Equal(t, uint64(1), store.pools[0].FirstSeenSeq)
	require.Len(t, store.metrics, 3)
	assert.Equal(t, "0.100000", store.metrics[1].VolumeA)
	assert.Equal(t, "0.000050000", store.metrics[1].VolumeB)

	_, err = ResolvePool(bank, solana.NewWallet().PublicKey().String())
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestAggregateKeepsLPSupplyAcrossSwaps(t *testing.T) {
	pool := solana.NewWallet().PublicKey().String()
	events := poolEvents(pool)
	// swaps journaled without the LP supply, one sharing the deposit window
	events[2].Timestamp = 115
	events[2].LPSupply = 0
	events[3].LPSupply = 0
	in := writeEvents(t, events)

	store := &fakeStore{}
	require.NoError(t, NewAggregator(Config{WindowSeconds: 60}, store, nil, nil).Run(context.Background(), in))

	require.Len(t, store.metrics, 3)
	assert.Equal(t, uint64(1), store.metrics[0].DepositCount)
	assert.Equal(t, uint64(1), store.metrics[0].SwapCount)
	assert.Equal(t, uint64(10_000_000_000), store.metrics[0].LPSupply)
	assert.Equal(t, uint64(1), store.metrics[1].SwapCount)
	assert.Equal(t, uint64(10_000_000_000), store.metrics[1].LPSupply)
	assert.Equal(t, uint64(9_000_000_000), store.metrics[2].LPSupply)
}

func TestAggregateSwapWindowReadsLPSupplyFromLedger(t *testing.T) {
	bank, poolKey, _, _ := ledgerPool(t)
	info, err := ResolvePool(bank, poolKey.String())
	require.NoError(t, err)

	lpMint := solana.MustPublicKeyFromBase58(info.Pool.LPMint)
	mint, err := bank.Mint(lpMint)
	require.NoError(t, err)
	holder, err := bank.CreateAssociatedTokenAccount(solana.NewWallet().PublicKey(), lpMint)
	require.NoError(t, err)
	require.NoError(t, bank.MintTo(lpMint, holder, mint.Authority, 7_000_000_000))

	in := writeEvents(t, []model.PoolEvent{
		{Seq: 9, Timestamp: 130, Op: "swap", Pool: poolKey.String(), InSide: "A", AmountIn: 100_000, AmountOut: 180_000,
			BalanceA: 1_100_000, BalanceB: 1_820_000},
	})
	store := &fakeStore{}
	require.NoError(t, NewAggregator(Config{WindowSeconds: 60}, store, bank, zaptest.NewLogger(t)).Run(context.Background(), in))

	require.Len(t, store.metrics, 1)
	assert.Equal(t, uint64(1), store.metrics[0].SwapCount)
	assert.Equal(t, uint64(7_000_000_000), store.metrics[0].LPSupply)
}
