package aggregate

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"hodor/internal/ledger"
	"hodor/internal/model"
	"hodor/internal/swap"
)

// PoolInfo is the ledger metadata of a pool needed to render its metrics.
type PoolInfo struct {
	Pool      model.Pool
	DecimalsA uint8
	DecimalsB uint8
}

// PoolCache caches pool metadata by pool address.
type PoolCache struct {
	mu   sync.RWMutex
	data map[string]PoolInfo
}

func NewPoolCache() *PoolCache {
	return &PoolCache{data: make(map[string]PoolInfo)}
}

func (c *PoolCache) Get(address string) (PoolInfo, bool) {
	c.mu.RLock()
	info, ok := c.data[address]
	c.mu.RUnlock()
	return info, ok
}

func (c *PoolCache) Set(address string, info PoolInfo) {
	c.mu.Lock()
	c.data[address] = info
	c.mu.Unlock()
}

// ResolvePool reads a pool record, its vaults and their mints from the
// ledger.
func ResolvePool(bank *ledger.Bank, address string) (PoolInfo, error) {
	if bank == nil {
		return PoolInfo{}, fmt.Errorf("ledger is nil")
	}
	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return PoolInfo{}, fmt.Errorf("invalid pool address: %s", address)
	}
	acc, ok := bank.Account(key)
	if !ok {
		return PoolInfo{}, fmt.Errorf("%w: pool %s", ledger.ErrAccountNotFound, address)
	}
	pool, err := swap.DecodePool(acc.Data)
	if err != nil {
		return PoolInfo{}, fmt.Errorf("decode pool %s: %w", address, err)
	}

	mintA, decimalsA, err := vaultMint(bank, pool.TokenAccountA)
	if err != nil {
		return PoolInfo{}, err
	}
	mintB, decimalsB, err := vaultMint(bank, pool.TokenAccountB)
	if err != nil {
		return PoolInfo{}, err
	}

	info := PoolInfo{
		Pool: model.Pool{
			Address:   address,
			Seed:      base58.Encode(pool.Seed[:]),
			MintA:     mintA.String(),
			MintB:     mintB.String(),
			VaultA:    pool.TokenAccountA.String(),
			VaultB:    pool.TokenAccountB.String(),
			LPMint:    pool.LPMint.String(),
			LPFeeRate: pool.LPFeeRate,
		},
		DecimalsA: decimalsA,
		DecimalsB: decimalsB,
	}
	if pool.CreatorFee != nil {
		info.Pool.CreatorFeeRate = pool.CreatorFee.Rate
	}
	return info, nil
}

func vaultMint(bank *ledger.Bank, vault solana.PublicKey) (solana.PublicKey, uint8, error) {
	acc, err := bank.TokenAccount(vault)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("vault %s: %w", vault, err)
	}
	mint, err := bank.Mint(acc.Mint)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("mint %s: %w", acc.Mint, err)
	}
	return acc.Mint, mint.Decimals, nil
}
