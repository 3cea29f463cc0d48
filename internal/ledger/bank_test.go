package ledger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"hodor/internal/swap"
)

type wallet struct {
	mint      solana.PublicKey
	authority solana.PublicKey
	owner     solana.PublicKey
	account   solana.PublicKey
}

func newWallet(t *testing.T, b *Bank, amount uint64) wallet {
	t.Helper()
	w := wallet{
		mint:      solana.NewWallet().PublicKey(),
		authority: solana.NewWallet().PublicKey(),
		owner:     solana.NewWallet().PublicKey(),
	}
	require.NoError(t, b.CreateMint(w.mint, w.authority, 6))
	var err error
	w.account, err = b.CreateAssociatedTokenAccount(w.owner, w.mint)
	require.NoError(t, err)
	require.NoError(t, b.MintTo(w.mint, w.account, w.authority, amount))
	return w
}

func transferIx(programID solana.PublicKey, w wallet, dst solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(w.owner).SIGNER(),
		solana.Meta(w.account).WRITE(),
		solana.Meta(dst).WRITE(),
	}, []byte{1})
}

// transferProgram moves 100 tokens from account 1 to account 2 and then
// returns fail, if set.
func transferProgram(fail error) ProgramFunc {
	return func(rt swap.Runtime, _ solana.PublicKey, accounts []*swap.AccountInfo, _ []byte) error {
		owner, err := swap.SignerAuthority(accounts[0])
		if err != nil {
			return err
		}
		if err := rt.Transfer(accounts[1], accounts[2], owner, 100); err != nil {
			return err
		}
		rt.Emit(swap.Event{Op: swap.OpSwap, AmountIn: 100})
		return fail
	}
}

func TestExecuteCommits(t *testing.T) {
	b := NewBank(zaptest.NewLogger(t))
	programID := solana.NewWallet().PublicKey()
	b.Register(programID, transferProgram(nil))

	w := newWallet(t, b, 1_000)
	dst, err := b.CreateAssociatedTokenAccount(solana.NewWallet().PublicKey(), w.mint)
	require.NoError(t, err)

	events, err := b.Execute(transferIx(programID, w, dst), w.owner)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(100), events[0].AmountIn)

	src, err := b.TokenAccount(w.account)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), src.Amount)
	to, err := b.TokenAccount(dst)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), to.Amount)
	assert.Equal(t, uint64(1), b.Slot())
}

func TestExecuteRollsBack(t *testing.T) {
	b := NewBank(zaptest.NewLogger(t))
	programID := solana.NewWallet().PublicKey()
	boom := errors.New("boom")
	b.Register(programID, transferProgram(boom))

	w := newWallet(t, b, 1_000)
	dst, err := b.CreateAssociatedTokenAccount(solana.NewWallet().PublicKey(), w.mint)
	require.NoError(t, err)

	events, err := b.Execute(transferIx(programID, w, dst), w.owner)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, events)

	src, err := b.TokenAccount(w.account)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), src.Amount)
	assert.Zero(t, b.Slot())
}

func TestExecuteTransferChecks(t *testing.T) {
	b := NewBank(zaptest.NewLogger(t))
	programID := solana.NewWallet().PublicKey()
	b.Register(programID, transferProgram(nil))

	w := newWallet(t, b, 50)
	dst, err := b.CreateAssociatedTokenAccount(solana.NewWallet().PublicKey(), w.mint)
	require.NoError(t, err)

	_, err = b.Execute(transferIx(programID, w, dst), w.owner)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	other := newWallet(t, b, 1_000)
	_, err = b.Execute(transferIx(programID, other, dst), other.owner)
	assert.ErrorIs(t, err, ErrMintMismatch)

	_, err = b.Execute(transferIx(programID, other, other.account))
	assert.ErrorIs(t, err, swap.ErrMissingRequiredSignature)
}

func TestExecuteUnknownProgram(t *testing.T) {
	b := NewBank(nil)
	_, err := b.Execute(solana.NewInstruction(solana.NewWallet().PublicKey(), nil, nil))
	assert.ErrorIs(t, err, ErrUnknownProgram)
}

func TestExecuteReadonlyModified(t *testing.T) {
	b := NewBank(zaptest.NewLogger(t))
	programID := solana.NewWallet().PublicKey()
	b.Register(programID, ProgramFunc(func(_ swap.Runtime, _ solana.PublicKey, accounts []*swap.AccountInfo, _ []byte) error {
		accounts[0].Data[0] ^= 0xff
		return nil
	}))

	w := newWallet(t, b, 10)
	ix := solana.NewInstruction(programID, solana.AccountMetaSlice{solana.Meta(w.account)}, nil)
	_, err := b.Execute(ix)
	assert.ErrorIs(t, err, ErrReadonlyModified)

	acc, err := b.TokenAccount(w.account)
	require.NoError(t, err)
	assert.Equal(t, w.mint, acc.Mint)
}

func TestCreateAccountInUse(t *testing.T) {
	b := NewBank(zaptest.NewLogger(t))
	programID := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()
	b.Register(programID, ProgramFunc(func(rt swap.Runtime, _ solana.PublicKey, accounts []*swap.AccountInfo, _ []byte) error {
		auth, err := swap.SignerAuthority(accounts[0])
		if err != nil {
			return err
		}
		return rt.CreateAccount(auth, accounts[1], 8, programID)
	}))

	key := solana.NewWallet().PublicKey()
	ix := solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(key).WRITE(),
	}, nil)

	_, err := b.Execute(ix, payer)
	require.NoError(t, err)
	acc, ok := b.Account(key)
	require.True(t, ok)
	assert.Equal(t, programID, acc.Owner)
	assert.Len(t, acc.Data, 8)

	_, err = b.Execute(ix, payer)
	assert.ErrorIs(t, err, ErrAccountAlreadyInUse)
}

func TestTokenLayouts(t *testing.T) {
	m := Mint{Authority: solana.NewWallet().PublicKey(), Supply: 42, Decimals: 9}
	data := make([]byte, MintSize)
	m.encode(data)
	got, err := DecodeMint(data)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	acc := TokenAccount{Mint: m.Authority, Owner: solana.NewWallet().PublicKey(), Amount: 7}
	data = make([]byte, TokenAccountSize)
	acc.encode(data)
	gotAcc, err := DecodeTokenAccount(data)
	require.NoError(t, err)
	assert.Equal(t, acc, gotAcc)

	_, err = DecodeTokenAccount(make([]byte, TokenAccountSize))
	assert.ErrorIs(t, err, ErrInvalidTokenAccount)
	_, err = DecodeMint(make([]byte, MintSize-1))
	assert.ErrorIs(t, err, ErrInvalidTokenAccount)
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger", "ledger.json")

	b := NewBank(zaptest.NewLogger(t))
	w := newWallet(t, b, 500)
	require.NoError(t, b.Save(path))

	loaded := NewBank(zaptest.NewLogger(t))
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, b.Keys(), loaded.Keys())

	acc, err := loaded.TokenAccount(w.account)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), acc.Amount)
	mint, err := loaded.Mint(w.mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), mint.Supply)
}

func TestLoadMissingSnapshot(t *testing.T) {
	b := NewBank(nil)
	require.NoError(t, b.Load(filepath.Join(t.TempDir(), "missing.json")))
	assert.Empty(t, b.Keys())
}
