package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hodor/internal/model"
)

//go:embed schema.sql
var schema string

// Store provides Postgres persistence for pools, events and metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// UpsertPools inserts or updates pool metadata.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				pool_address, seed, mint_a, mint_b, vault_a, vault_b, lp_mint,
				lp_fee_rate, creator_fee_rate, first_seen_seq, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
			ON CONFLICT (pool_address)
			DO UPDATE SET
				first_seen_seq = LEAST(pools.first_seen_seq, EXCLUDED.first_seen_seq),
				updated_at = now()
		`,
			pool.Address,
			pool.Seed,
			pool.MintA,
			pool.MintB,
			pool.VaultA,
			pool.VaultB,
			pool.LPMint,
			int64(pool.LPFeeRate),
			int64(pool.CreatorFeeRate),
			int64(pool.FirstSeenSeq),
		)
	}
	return s.sendBatch(ctx, batch)
}

// PutEvents inserts pool events; already stored events are left untouched
// so a replay can be rerun over the same journal.
func (s *Store) PutEvents(ctx context.Context, events []model.PoolEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range events {
		var inSide *string
		if e.InSide != "" {
			inSide = &e.InSide
		}
		batch.Queue(`
			INSERT INTO pool_events (
				seq, pool_address, op, slot, event_ts, owner, in_side,
				amount_in, amount_out, amount_a, amount_b, lp_amount,
				dao_fee, lp_fee, creator_fee, balance_a, balance_b, lp_supply
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
			ON CONFLICT (seq, pool_address, op) DO NOTHING
		`,
			int64(e.Seq),
			e.Pool,
			e.Op,
			int64(e.Slot),
			time.Unix(int64(e.Timestamp), 0).UTC(),
			e.Owner,
			inSide,
			numeric(e.AmountIn),
			numeric(e.AmountOut),
			numeric(e.AmountA),
			numeric(e.AmountB),
			numeric(e.LPAmount),
			numeric(e.DAOFee),
			numeric(e.LPFee),
			numeric(e.CreatorFee),
			numeric(e.BalanceA),
			numeric(e.BalanceB),
			numeric(e.LPSupply),
		)
	}
	return s.sendBatch(ctx, batch)
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				pool_address, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, deposit_count, withdraw_count, volume_a, volume_b,
				lp_fee_a, lp_fee_b, dao_fee_a, dao_fee_b, creator_fee_a, creator_fee_b,
				fee_rate_a, fee_rate_b, tvl_a, tvl_b, lp_supply, apr, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,now(),now())
			ON CONFLICT (pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				deposit_count = EXCLUDED.deposit_count,
				withdraw_count = EXCLUDED.withdraw_count,
				volume_a = EXCLUDED.volume_a,
				volume_b = EXCLUDED.volume_b,
				lp_fee_a = EXCLUDED.lp_fee_a,
				lp_fee_b = EXCLUDED.lp_fee_b,
				dao_fee_a = EXCLUDED.dao_fee_a,
				dao_fee_b = EXCLUDED.dao_fee_b,
				creator_fee_a = EXCLUDED.creator_fee_a,
				creator_fee_b = EXCLUDED.creator_fee_b,
				fee_rate_a = EXCLUDED.fee_rate_a,
				fee_rate_b = EXCLUDED.fee_rate_b,
				tvl_a = EXCLUDED.tvl_a,
				tvl_b = EXCLUDED.tvl_b,
				lp_supply = EXCLUDED.lp_supply,
				apr = EXCLUDED.apr,
				updated_at = now()
		`,
			m.PoolAddress,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.DepositCount),
			int64(m.WithdrawCount),
			m.VolumeA,
			m.VolumeB,
			m.LPFeeA,
			m.LPFeeB,
			m.DAOFeeA,
			m.DAOFeeB,
			m.CreatorFeeA,
			m.CreatorFeeB,
			m.FeeRateA,
			m.FeeRateB,
			m.TVLA,
			m.TVLB,
			numeric(m.LPSupply),
			m.APR,
		)
	}
	return s.sendBatch(ctx, batch)
}

// LoadState returns last_processed_ts for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts FROM hodor_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

// SaveState upserts last_processed_ts for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hodor_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts, updated_at = now()
	`, name, int64(ts))
	return err
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// numeric renders a u64 as text so values above MaxInt64 survive the
// NUMERIC(20,0) columns.
func numeric(v uint64) string {
	return strconv.FormatUint(v, 10)
}
