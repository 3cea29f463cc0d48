package ledger

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// SPL token program layouts.
const (
	MintSize         = 82
	TokenAccountSize = 165

	accountStateOffset = 108
	mintSupplyOffset   = 36
	mintDecimalsOffset = 44
	mintInitOffset     = 45
)

// Mint is a decoded SPL mint.
type Mint struct {
	Authority solana.PublicKey
	Supply    uint64
	Decimals  uint8
}

// DecodeMint parses an initialized mint.
func DecodeMint(data []byte) (Mint, error) {
	if len(data) != MintSize {
		return Mint{}, fmt.Errorf("%w: mint length %d", ErrInvalidTokenAccount, len(data))
	}
	if data[mintInitOffset] == 0 {
		return Mint{}, fmt.Errorf("%w: mint not initialized", ErrInvalidTokenAccount)
	}

	var m Mint
	if binary.LittleEndian.Uint32(data[0:4]) == 1 {
		m.Authority = solana.PublicKeyFromBytes(data[4:36])
	}
	m.Supply = binary.LittleEndian.Uint64(data[mintSupplyOffset:])
	m.Decimals = data[mintDecimalsOffset]
	return m, nil
}

func (m Mint) encode(dst []byte) {
	if m.Authority.IsZero() {
		binary.LittleEndian.PutUint32(dst[0:4], 0)
	} else {
		binary.LittleEndian.PutUint32(dst[0:4], 1)
	}
	copy(dst[4:36], m.Authority[:])
	binary.LittleEndian.PutUint64(dst[mintSupplyOffset:], m.Supply)
	dst[mintDecimalsOffset] = m.Decimals
	dst[mintInitOffset] = 1
}

// TokenAccount is a decoded SPL token account.
type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// DecodeTokenAccount parses an initialized token account.
func DecodeTokenAccount(data []byte) (TokenAccount, error) {
	if len(data) != TokenAccountSize {
		return TokenAccount{}, fmt.Errorf("%w: token account length %d", ErrInvalidTokenAccount, len(data))
	}
	if data[accountStateOffset] == 0 {
		return TokenAccount{}, fmt.Errorf("%w: token account not initialized", ErrInvalidTokenAccount)
	}
	return TokenAccount{
		Mint:   solana.PublicKeyFromBytes(data[0:32]),
		Owner:  solana.PublicKeyFromBytes(data[32:64]),
		Amount: binary.LittleEndian.Uint64(data[64:72]),
	}, nil
}

func (a TokenAccount) encode(dst []byte) {
	copy(dst[0:32], a.Mint[:])
	copy(dst[32:64], a.Owner[:])
	binary.LittleEndian.PutUint64(dst[64:72], a.Amount)
	dst[accountStateOffset] = 1
}
