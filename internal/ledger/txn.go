package ledger

import (
	"fmt"

	gethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/gagliardetto/solana-go"

	"hodor/internal/swap"
)

type entry struct {
	info      *swap.AccountInfo
	origOwner solana.PublicKey
	origData  []byte
	exists    bool
}

// txn is the working set of one instruction. It implements swap.Runtime.
type txn struct {
	programID solana.PublicKey
	signers   map[solana.PublicKey]bool
	byKey     map[solana.PublicKey]*entry
	order     []*entry
	infos     []*swap.AccountInfo
	events    []swap.Event
}

var _ swap.Runtime = (*txn)(nil)

func (t *txn) verify(authority swap.Authority) error {
	seeds := authority.Seeds()
	if seeds == nil {
		if !t.signers[authority.Key()] {
			return fmt.Errorf("%w: %s", ErrMissingSigner, authority.Key())
		}
		return nil
	}
	derived, err := solana.CreateProgramAddress(seeds, t.programID)
	if err != nil || !derived.Equals(authority.Key()) {
		return fmt.Errorf("%w: %s", ErrInvalidSeeds, authority.Key())
	}
	return nil
}

func writable(info *swap.AccountInfo) error {
	if !info.IsWritable {
		return fmt.Errorf("%w: %s", ErrReadonlyModified, info.Key)
	}
	return nil
}

func (t *txn) CreateAccount(payer swap.Authority, account *swap.AccountInfo, space int, owner solana.PublicKey) error {
	if err := t.verify(payer); err != nil {
		return err
	}
	if err := writable(account); err != nil {
		return err
	}
	if len(account.Data) != 0 || !account.Owner.Equals(solana.SystemProgramID) {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, account.Key)
	}
	account.Data = make([]byte, space)
	account.Owner = owner
	return nil
}

func (t *txn) CreateTokenAccount(payer swap.Authority, account, mint *swap.AccountInfo, owner solana.PublicKey) error {
	if _, err := readMint(mint); err != nil {
		return err
	}
	if err := t.CreateAccount(payer, account, TokenAccountSize, solana.TokenProgramID); err != nil {
		return err
	}
	TokenAccount{Mint: mint.Key, Owner: owner}.encode(account.Data)
	return nil
}

func (t *txn) CreateMint(payer swap.Authority, mint *swap.AccountInfo, mintAuthority solana.PublicKey, decimals uint8) error {
	if err := t.CreateAccount(payer, mint, MintSize, solana.TokenProgramID); err != nil {
		return err
	}
	Mint{Authority: mintAuthority, Decimals: decimals}.encode(mint.Data)
	return nil
}

func (t *txn) Transfer(src, dst *swap.AccountInfo, authority swap.Authority, amount uint64) error {
	from, err := readTokenAccount(src)
	if err != nil {
		return err
	}
	to, err := readTokenAccount(dst)
	if err != nil {
		return err
	}
	if !from.Mint.Equals(to.Mint) {
		return fmt.Errorf("%w: %s -> %s", ErrMintMismatch, src.Key, dst.Key)
	}
	if !from.Owner.Equals(authority.Key()) {
		return fmt.Errorf("%w: %s owned by %s", ErrOwnerMismatch, src.Key, from.Owner)
	}
	if err := t.verify(authority); err != nil {
		return err
	}
	if err := writable(src); err != nil {
		return err
	}
	if err := writable(dst); err != nil {
		return err
	}
	if from.Amount < amount {
		return fmt.Errorf("%w: %s has %d, need %d", ErrInsufficientFunds, src.Key, from.Amount, amount)
	}
	if src == dst {
		return nil
	}

	from.Amount -= amount
	sum, overflow := gethmath.SafeAdd(to.Amount, amount)
	if overflow {
		return fmt.Errorf("%w: %s", ErrAmountOverflow, dst.Key)
	}
	to.Amount = sum
	from.encode(src.Data)
	to.encode(dst.Data)
	return nil
}

func (t *txn) MintTo(mint, dst *swap.AccountInfo, authority swap.Authority, amount uint64) error {
	m, err := readMint(mint)
	if err != nil {
		return err
	}
	to, err := readTokenAccount(dst)
	if err != nil {
		return err
	}
	if !to.Mint.Equals(mint.Key) {
		return fmt.Errorf("%w: %s is not a %s account", ErrMintMismatch, dst.Key, mint.Key)
	}
	if m.Authority.IsZero() || !m.Authority.Equals(authority.Key()) {
		return fmt.Errorf("%w: mint authority of %s", ErrOwnerMismatch, mint.Key)
	}
	if err := t.verify(authority); err != nil {
		return err
	}
	if err := writable(mint); err != nil {
		return err
	}
	if err := writable(dst); err != nil {
		return err
	}

	supply, overflow := gethmath.SafeAdd(m.Supply, amount)
	if overflow {
		return fmt.Errorf("%w: supply of %s", ErrAmountOverflow, mint.Key)
	}
	m.Supply = supply
	to.Amount += amount
	m.encode(mint.Data)
	to.encode(dst.Data)
	return nil
}

func (t *txn) Burn(src, mint *swap.AccountInfo, authority swap.Authority, amount uint64) error {
	from, err := readTokenAccount(src)
	if err != nil {
		return err
	}
	m, err := readMint(mint)
	if err != nil {
		return err
	}
	if !from.Mint.Equals(mint.Key) {
		return fmt.Errorf("%w: %s is not a %s account", ErrMintMismatch, src.Key, mint.Key)
	}
	if !from.Owner.Equals(authority.Key()) {
		return fmt.Errorf("%w: %s owned by %s", ErrOwnerMismatch, src.Key, from.Owner)
	}
	if err := t.verify(authority); err != nil {
		return err
	}
	if err := writable(src); err != nil {
		return err
	}
	if err := writable(mint); err != nil {
		return err
	}
	if from.Amount < amount {
		return fmt.Errorf("%w: %s has %d, need %d", ErrInsufficientFunds, src.Key, from.Amount, amount)
	}

	from.Amount -= amount
	m.Supply -= amount
	from.encode(src.Data)
	m.encode(mint.Data)
	return nil
}

func (t *txn) MintSupply(mint *swap.AccountInfo) (uint64, error) {
	m, err := readMint(mint)
	if err != nil {
		return 0, err
	}
	return m.Supply, nil
}

func (t *txn) Emit(ev swap.Event) {
	t.events = append(t.events, ev)
}

func readMint(info *swap.AccountInfo) (Mint, error) {
	if !info.Owner.Equals(solana.TokenProgramID) {
		return Mint{}, fmt.Errorf("%w: mint %s owned by %s", ErrInvalidTokenAccount, info.Key, info.Owner)
	}
	m, err := DecodeMint(info.Data)
	if err != nil {
		return Mint{}, fmt.Errorf("mint %s: %w", info.Key, err)
	}
	return m, nil
}

func readTokenAccount(info *swap.AccountInfo) (TokenAccount, error) {
	if !info.Owner.Equals(solana.TokenProgramID) {
		return TokenAccount{}, fmt.Errorf("%w: %s owned by %s", ErrInvalidTokenAccount, info.Key, info.Owner)
	}
	acc, err := DecodeTokenAccount(info.Data)
	if err != nil {
		return TokenAccount{}, fmt.Errorf("token account %s: %w", info.Key, err)
	}
	return acc, nil
}
