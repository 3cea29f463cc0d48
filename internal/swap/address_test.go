package swap

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPoolSeed(t *testing.T) {
	programID := solana.NewWallet().PublicKey()

	seed, addr, err := FindPoolSeed(programID, rand.Reader)
	require.NoError(t, err)

	derived, err := PoolAddress(programID, seed)
	require.NoError(t, err)
	assert.Equal(t, addr, derived)
	assert.False(t, addr.IsOnCurve())
}

func TestFindPoolSeedShortReader(t *testing.T) {
	_, _, err := FindPoolSeed(solana.NewWallet().PublicKey(), bytes.NewReader([]byte{1, 2, 3}))
	assert.Error(t, err)
}

func TestDerivePoolAddresses(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	seed, pool, err := FindPoolSeed(programID, rand.Reader)
	require.NoError(t, err)

	addrs, err := DerivePoolAddresses(programID, seed)
	require.NoError(t, err)
	assert.Equal(t, pool, addrs.Pool)

	vaultA, _, err := solana.FindProgramAddress([][]byte{pool[:], []byte("A")}, programID)
	require.NoError(t, err)
	vaultB, _, err := solana.FindProgramAddress([][]byte{pool[:], []byte("B")}, programID)
	require.NoError(t, err)
	lpMint, _, err := solana.FindProgramAddress([][]byte{pool[:], []byte("LP")}, programID)
	require.NoError(t, err)

	assert.Equal(t, vaultA, addrs.VaultA)
	assert.Equal(t, vaultB, addrs.VaultB)
	assert.Equal(t, lpMint, addrs.LPMint)
	assert.NotEqual(t, addrs.VaultA, addrs.VaultB)
}

func TestPoolAuthority(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	seed, pool, err := FindPoolSeed(programID, rand.Reader)
	require.NoError(t, err)

	auth, err := DerivePoolAuthority(programID, seed)
	require.NoError(t, err)
	assert.Equal(t, pool, auth.Key())

	rederived, err := solana.CreateProgramAddress(auth.Seeds(), programID)
	require.NoError(t, err)
	assert.Equal(t, pool, rederived)

	other, err := DerivePoolAuthority(solana.NewWallet().PublicKey(), seed)
	if err == nil {
		assert.NotEqual(t, pool, other.Key())
	}
}

func TestSignerAuthority(t *testing.T) {
	info := &AccountInfo{Key: solana.NewWallet().PublicKey()}

	_, err := SignerAuthority(info)
	assert.ErrorIs(t, err, ErrMissingRequiredSignature)

	info.IsSigner = true
	auth, err := SignerAuthority(info)
	require.NoError(t, err)
	assert.Equal(t, info.Key, auth.Key())
	assert.Nil(t, auth.Seeds())
}

func TestQuoteSwap(t *testing.T) {
	pool := &Pool{BalanceA: 1_000_000, BalanceB: 2_000_000, LPFeeRate: 1_000_000}

	got, ok := QuoteSwap(pool, SideB, 100_000, 0)
	require.True(t, ok)
	want, ok := CalculateSwapAmounts(2_000_000, 1_000_000, 100_000, 0, 1_000_000, 0)
	require.True(t, ok)
	assert.Equal(t, want, got)

	pool.CreatorFee = &CreatorFee{Rate: 1_000_000}
	got, ok = QuoteSwap(pool, SideA, 100_000, 1_000_000)
	require.True(t, ok)
	assert.Equal(t, uint64(1_000), got.CreatorFee)
	assert.Equal(t, uint64(1_000), got.DAOFee)
}

func TestNewSwapInstructionAccounts(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	accts := SwapAccounts{
		Owner:    solana.NewWallet().PublicKey(),
		Pool:     solana.NewWallet().PublicKey(),
		InSource: solana.NewWallet().PublicKey(),
		InVault:  solana.NewWallet().PublicKey(),
		OutVault: solana.NewWallet().PublicKey(),
		OutDest:  solana.NewWallet().PublicKey(),
	}

	ix, err := NewSwapInstruction(programID, accts, Swap{InAmount: 5, MinOutAmount: 4})
	require.NoError(t, err)
	assert.Equal(t, programID, ix.ProgramID())

	metas := ix.Accounts()
	require.Len(t, metas, 7)
	assert.True(t, metas[0].IsSigner)
	assert.Equal(t, accts.Pool, metas[1].PublicKey)
	assert.True(t, metas[1].IsWritable)
	assert.Equal(t, solana.TokenProgramID, metas[6].PublicKey)
	assert.False(t, metas[6].IsWritable)

	data, err := ix.Data()
	require.NoError(t, err)
	decoded, err := DecodeInstruction(data)
	require.NoError(t, err)
	assert.Equal(t, Swap{InAmount: 5, MinOutAmount: 4}, decoded)
}

func TestNewCreatePoolInstructionAccounts(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	seed, _, err := FindPoolSeed(programID, rand.Reader)
	require.NoError(t, err)
	payer := solana.NewWallet().PublicKey()
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()

	ix, err := NewCreatePoolInstruction(programID, payer, mintA, mintB, CreatePool{Seed: seed})
	require.NoError(t, err)
	addrs, err := DerivePoolAddresses(programID, seed)
	require.NoError(t, err)

	keys := make([]solana.PublicKey, 0, 9)
	for _, m := range ix.Accounts() {
		keys = append(keys, m.PublicKey)
	}
	assert.Equal(t, []solana.PublicKey{
		payer, addrs.Pool, mintA, addrs.VaultA, mintB, addrs.VaultB, addrs.LPMint,
		solana.TokenProgramID, solana.SystemProgramID,
	}, keys)
}
