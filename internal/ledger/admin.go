package ledger

import (
	"fmt"

	gethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// The methods below act on the ledger directly, outside of any program. They
// set up mints and wallets the way a local validator's genesis would.

// CreateMint creates an empty mint at key.
func (b *Bank) CreateMint(key, authority solana.PublicKey, decimals uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.accounts[key]; ok {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, key)
	}
	data := make([]byte, MintSize)
	Mint{Authority: authority, Decimals: decimals}.encode(data)
	b.accounts[key] = &Account{Owner: solana.TokenProgramID, Data: data}
	b.logger.Info("mint created", zap.Stringer("mint", key), zap.Uint8("decimals", decimals))
	return nil
}

// CreateTokenAccount creates an empty token account for mint held by owner.
func (b *Bank) CreateTokenAccount(key, mint, owner solana.PublicKey) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.createTokenAccount(key, mint, owner)
}

// CreateAssociatedTokenAccount creates owner's associated account for mint
// unless it already exists, and returns its address.
func (b *Bank) CreateAssociatedTokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	key, err := AssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if acc, ok := b.accounts[key]; ok {
		existing, err := DecodeTokenAccount(acc.Data)
		if err != nil {
			return solana.PublicKey{}, err
		}
		if !existing.Mint.Equals(mint) || !existing.Owner.Equals(owner) {
			return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, key)
		}
		return key, nil
	}
	if err := b.createTokenAccount(key, mint, owner); err != nil {
		return solana.PublicKey{}, err
	}
	return key, nil
}

// AssociatedTokenAddress returns owner's associated token account for mint.
func AssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	key, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive associated account: %w", err)
	}
	return key, nil
}

func (b *Bank) createTokenAccount(key, mint, owner solana.PublicKey) error {
	if _, ok := b.accounts[key]; ok {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, key)
	}
	if _, err := b.mint(mint); err != nil {
		return err
	}
	data := make([]byte, TokenAccountSize)
	TokenAccount{Mint: mint, Owner: owner}.encode(data)
	b.accounts[key] = &Account{Owner: solana.TokenProgramID, Data: data}
	return nil
}

// MintTo mints amount of mint into dst. authority must be the mint authority.
func (b *Bank) MintTo(mint, dst, authority solana.PublicKey, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, err := b.mint(mint)
	if err != nil {
		return err
	}
	if !m.Authority.Equals(authority) {
		return fmt.Errorf("%w: mint authority of %s", ErrOwnerMismatch, mint)
	}
	acc, err := b.tokenAccount(dst)
	if err != nil {
		return err
	}
	if !acc.Mint.Equals(mint) {
		return fmt.Errorf("%w: %s is not a %s account", ErrMintMismatch, dst, mint)
	}

	supply, overflow := gethmath.SafeAdd(m.Supply, amount)
	if overflow {
		return fmt.Errorf("%w: supply of %s", ErrAmountOverflow, mint)
	}
	m.Supply = supply
	acc.Amount += amount
	m.encode(b.accounts[mint].Data)
	acc.encode(b.accounts[dst].Data)
	return nil
}

// Mint returns the decoded mint at key.
func (b *Bank) Mint(key solana.PublicKey) (Mint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mint(key)
}

// TokenAccount returns the decoded token account at key.
func (b *Bank) TokenAccount(key solana.PublicKey) (TokenAccount, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokenAccount(key)
}

func (b *Bank) mint(key solana.PublicKey) (Mint, error) {
	acc, ok := b.accounts[key]
	if !ok {
		return Mint{}, fmt.Errorf("%w: mint %s", ErrAccountNotFound, key)
	}
	if !acc.Owner.Equals(solana.TokenProgramID) {
		return Mint{}, fmt.Errorf("%w: %s owned by %s", ErrInvalidTokenAccount, key, acc.Owner)
	}
	return DecodeMint(acc.Data)
}

func (b *Bank) tokenAccount(key solana.PublicKey) (TokenAccount, error) {
	acc, ok := b.accounts[key]
	if !ok {
		return TokenAccount{}, fmt.Errorf("%w: token account %s", ErrAccountNotFound, key)
	}
	if !acc.Owner.Equals(solana.TokenProgramID) {
		return TokenAccount{}, fmt.Errorf("%w: %s owned by %s", ErrInvalidTokenAccount, key, acc.Owner)
	}
	return DecodeTokenAccount(acc.Data)
}
