package swap

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	// PoolMarker is the first byte of every pool record.
	PoolMarker byte = 1

	// PoolBaseSize is the encoded size of a pool without a creator fee.
	PoolBaseSize = 1 + 32 + 32 + 32 + 8 + 8 + 32 + 4
	// CreatorFeeSize is the size of the optional creator fee section.
	CreatorFeeSize = 4 + 8 + 8 + 32
	// PoolWithCreatorFeeSize is the encoded size of a pool with a creator fee.
	PoolWithCreatorFeeSize = PoolBaseSize + CreatorFeeSize
)

// CreatorFee is the pool creator's share of every swap.
type CreatorFee struct {
	Rate              uint32
	BalanceA          uint64
	BalanceB          uint64
	WithdrawAuthority solana.PublicKey
}

// Pool is the persistent pool record.
//
// BalanceA and BalanceB are the pool's own ledger of its reserves. They exclude
// creator fees and anything sent to the vaults outside of the pool
// instructions.
type Pool struct {
	Seed          [32]byte
	TokenAccountA solana.PublicKey
	TokenAccountB solana.PublicKey
	BalanceA      uint64
	BalanceB      uint64
	LPMint        solana.PublicKey
	LPFeeRate     uint32
	CreatorFee    *CreatorFee
}

// Size returns the encoded length of the record.
func (p *Pool) Size() int {
	return PoolSize(p.CreatorFee != nil)
}

// PoolSize returns the record length with or without a creator fee section.
func PoolSize(withCreatorFee bool) int {
	if withCreatorFee {
		return PoolWithCreatorFeeSize
	}
	return PoolBaseSize
}

// Encode writes the record into dst, which must be exactly Size() bytes.
func (p *Pool) Encode(dst []byte) error {
	if len(dst) != p.Size() {
		return fmt.Errorf("%w: pool record needs %d bytes, got %d", ErrInvalidAccountData, p.Size(), len(dst))
	}

	dst[0] = PoolMarker
	off := 1
	off += copy(dst[off:], p.Seed[:])
	off += copy(dst[off:], p.TokenAccountA[:])
	off += copy(dst[off:], p.TokenAccountB[:])
	binary.LittleEndian.PutUint64(dst[off:], p.BalanceA)
	off += 8
	binary.LittleEndian.PutUint64(dst[off:], p.BalanceB)
	off += 8
	off += copy(dst[off:], p.LPMint[:])
	binary.LittleEndian.PutUint32(dst[off:], p.LPFeeRate)
	off += 4

	if cf := p.CreatorFee; cf != nil {
		binary.LittleEndian.PutUint32(dst[off:], cf.Rate)
		off += 4
		binary.LittleEndian.PutUint64(dst[off:], cf.BalanceA)
		off += 8
		binary.LittleEndian.PutUint64(dst[off:], cf.BalanceB)
		off += 8
		copy(dst[off:], cf.WithdrawAuthority[:])
	}
	return nil
}

// DecodePool parses a pool record. The creator fee section is present exactly
// when data is PoolWithCreatorFeeSize bytes long.
func DecodePool(data []byte) (*Pool, error) {
	if len(data) != PoolBaseSize && len(data) != PoolWithCreatorFeeSize {
		return nil, fmt.Errorf("%w: pool record length %d", ErrInvalidAccountData, len(data))
	}
	if data[0] != PoolMarker {
		return nil, fmt.Errorf("%w: pool marker %d", ErrInvalidAccountData, data[0])
	}

	p := &Pool{}
	off := 1
	off += copy(p.Seed[:], data[off:])
	p.TokenAccountA = solana.PublicKeyFromBytes(data[off : off+32])
	off += 32
	p.TokenAccountB = solana.PublicKeyFromBytes(data[off : off+32])
	off += 32
	p.BalanceA = binary.LittleEndian.Uint64(data[off:])
	off += 8
	p.BalanceB = binary.LittleEndian.Uint64(data[off:])
	off += 8
	p.LPMint = solana.PublicKeyFromBytes(data[off : off+32])
	off += 32
	p.LPFeeRate = binary.LittleEndian.Uint32(data[off:])
	off += 4

	if len(data) == PoolWithCreatorFeeSize {
		cf := &CreatorFee{}
		cf.Rate = binary.LittleEndian.Uint32(data[off:])
		off += 4
		cf.BalanceA = binary.LittleEndian.Uint64(data[off:])
		off += 8
		cf.BalanceB = binary.LittleEndian.Uint64(data[off:])
		off += 8
		cf.WithdrawAuthority = solana.PublicKeyFromBytes(data[off : off+32])
		p.CreatorFee = cf
	}
	return p, nil
}
