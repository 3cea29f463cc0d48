package swap

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// AccountInfo is the host's view of one account passed to an instruction.
// Data is owned by the host for the duration of the call and may be
// rewritten in place when IsWritable is set.
type AccountInfo struct {
	Key        solana.PublicKey
	Owner      solana.PublicKey
	IsSigner   bool
	IsWritable bool
	Data       []byte
}

// Authority authorizes moving tokens out of an account.
type Authority interface {
	Key() solana.PublicKey
	// Seeds returns the derivation seeds of a program-derived authority, or
	// nil when Key signed the transaction.
	Seeds() [][]byte
}

type signerAuthority struct {
	key solana.PublicKey
}

func (a signerAuthority) Key() solana.PublicKey { return a.key }
func (a signerAuthority) Seeds() [][]byte       { return nil }

// SignerAuthority returns the authority of an account that signed the
// transaction.
func SignerAuthority(info *AccountInfo) (Authority, error) {
	if !info.IsSigner {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequiredSignature, info.Key)
	}
	return signerAuthority{key: info.Key}, nil
}

// PoolAuthority is the pool's own signing capability over its vaults and LP
// mint. It can only be obtained by re-deriving the pool address from its seed.
type PoolAuthority struct {
	key  solana.PublicKey
	seed [32]byte
}

// DerivePoolAuthority re-derives the pool address for seed under programID.
func DerivePoolAuthority(programID solana.PublicKey, seed [32]byte) (*PoolAuthority, error) {
	key, err := PoolAddress(programID, seed)
	if err != nil {
		return nil, err
	}
	return &PoolAuthority{key: key, seed: seed}, nil
}

func (a *PoolAuthority) Key() solana.PublicKey { return a.key }

func (a *PoolAuthority) Seeds() [][]byte {
	seed := a.seed
	return [][]byte{seed[:]}
}

// Runtime is the token and account capability the processor runs against.
// Every call is applied to the host's working set and only becomes durable if
// the whole instruction succeeds.
type Runtime interface {
	// CreateAccount allocates space bytes for an unused account and assigns
	// it to owner.
	CreateAccount(payer Authority, account *AccountInfo, space int, owner solana.PublicKey) error
	CreateTokenAccount(payer Authority, account, mint *AccountInfo, owner solana.PublicKey) error
	CreateMint(payer Authority, mint *AccountInfo, mintAuthority solana.PublicKey, decimals uint8) error

	Transfer(src, dst *AccountInfo, authority Authority, amount uint64) error
	MintTo(mint, dst *AccountInfo, authority Authority, amount uint64) error
	Burn(src, mint *AccountInfo, authority Authority, amount uint64) error
	MintSupply(mint *AccountInfo) (uint64, error)

	Emit(ev Event)
}
