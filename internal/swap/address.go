package swap

import (
	"errors"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
)

// Side names one of the two pool reserves.
type Side uint8

const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	if s == SideB {
		return "B"
	}
	return "A"
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

const maxSeedTries = 256

var (
	vaultSeedA = []byte("A")
	vaultSeedB = []byte("B")
	lpMintSeed = []byte("LP")
)

// PoolAddress derives the pool record address from its seed. It fails for
// seeds whose address lands on the ed25519 curve.
func PoolAddress(programID solana.PublicKey, seed [32]byte) (solana.PublicKey, error) {
	return solana.CreateProgramAddress([][]byte{seed[:]}, programID)
}

// VaultAddress derives the custodial token account of one side of the pool.
func VaultAddress(programID, pool solana.PublicKey, side Side) (solana.PublicKey, error) {
	tag := vaultSeedA
	if side == SideB {
		tag = vaultSeedB
	}
	addr, _, err := solana.FindProgramAddress([][]byte{pool[:], tag}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive vault %s: %w", side, err)
	}
	return addr, nil
}

// LPMintAddress derives the pool's LP token mint.
func LPMintAddress(programID, pool solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{pool[:], lpMintSeed}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive lp mint: %w", err)
	}
	return addr, nil
}

// PoolAddresses is every account derived from a pool seed.
type PoolAddresses struct {
	Pool   solana.PublicKey
	VaultA solana.PublicKey
	VaultB solana.PublicKey
	LPMint solana.PublicKey
}

// DerivePoolAddresses derives the pool record, both vaults and the LP mint.
func DerivePoolAddresses(programID solana.PublicKey, seed [32]byte) (PoolAddresses, error) {
	pool, err := PoolAddress(programID, seed)
	if err != nil {
		return PoolAddresses{}, fmt.Errorf("derive pool: %w", err)
	}
	vaultA, err := VaultAddress(programID, pool, SideA)
	if err != nil {
		return PoolAddresses{}, err
	}
	vaultB, err := VaultAddress(programID, pool, SideB)
	if err != nil {
		return PoolAddresses{}, err
	}
	lpMint, err := LPMintAddress(programID, pool)
	if err != nil {
		return PoolAddresses{}, err
	}
	return PoolAddresses{Pool: pool, VaultA: vaultA, VaultB: vaultB, LPMint: lpMint}, nil
}

// FindPoolSeed draws seeds from r until one derives a valid pool address.
func FindPoolSeed(programID solana.PublicKey, r io.Reader) ([32]byte, solana.PublicKey, error) {
	var seed [32]byte
	for i := 0; i < maxSeedTries; i++ {
		if _, err := io.ReadFull(r, seed[:]); err != nil {
			return seed, solana.PublicKey{}, fmt.Errorf("read seed: %w", err)
		}
		addr, err := PoolAddress(programID, seed)
		if err == nil {
			return seed, addr, nil
		}
	}
	return seed, solana.PublicKey{}, errors.New("no valid pool seed found")
}
