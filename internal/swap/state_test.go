package swap

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(withCreatorFee bool) *Pool {
	p := &Pool{
		Seed:          solana.NewWallet().PublicKey(),
		TokenAccountA: solana.NewWallet().PublicKey(),
		TokenAccountB: solana.NewWallet().PublicKey(),
		BalanceA:      1_000,
		BalanceB:      ^uint64(0),
		LPMint:        solana.NewWallet().PublicKey(),
		LPFeeRate:     5_000,
	}
	if withCreatorFee {
		p.CreatorFee = &CreatorFee{
			Rate:              10_000,
			BalanceA:          7,
			BalanceB:          11,
			WithdrawAuthority: solana.NewWallet().PublicKey(),
		}
	}
	return p
}

func TestPoolRoundTrip(t *testing.T) {
	for _, withFee := range []bool{false, true} {
		pool := newTestPool(withFee)
		buf := make([]byte, pool.Size())
		require.NoError(t, pool.Encode(buf))

		got, err := DecodePool(buf)
		require.NoError(t, err)
		assert.Equal(t, pool, got)
	}
}

func TestPoolSizes(t *testing.T) {
	assert.Equal(t, 149, PoolBaseSize)
	assert.Equal(t, 52, CreatorFeeSize)
	assert.Equal(t, PoolBaseSize, newTestPool(false).Size())
	assert.Equal(t, PoolWithCreatorFeeSize, newTestPool(true).Size())
}

func TestPoolEncodeRejectsWrongSize(t *testing.T) {
	plain := newTestPool(false)
	assert.ErrorIs(t, plain.Encode(make([]byte, PoolWithCreatorFeeSize)), ErrInvalidAccountData)
	assert.ErrorIs(t, plain.Encode(make([]byte, PoolBaseSize-1)), ErrInvalidAccountData)

	withFee := newTestPool(true)
	assert.ErrorIs(t, withFee.Encode(make([]byte, PoolBaseSize)), ErrInvalidAccountData)
	assert.ErrorIs(t, withFee.Encode(make([]byte, PoolWithCreatorFeeSize+1)), ErrInvalidAccountData)
}

func TestPoolEncodeLayout(t *testing.T) {
	pool := newTestPool(true)
	buf := make([]byte, pool.Size())
	require.NoError(t, pool.Encode(buf))

	assert.Equal(t, PoolMarker, buf[0])
	assert.Equal(t, pool.Seed[:], buf[1:33])
	assert.Equal(t, pool.TokenAccountA[:], buf[33:65])
	assert.Equal(t, pool.TokenAccountB[:], buf[65:97])
	assert.Equal(t, []byte{0xe8, 0x03, 0, 0, 0, 0, 0, 0}, buf[97:105])
	assert.Equal(t, pool.LPMint[:], buf[113:145])
	assert.Equal(t, []byte{0x88, 0x13, 0, 0}, buf[145:149])
	assert.Equal(t, []byte{0x10, 0x27, 0, 0}, buf[149:153])
	assert.Equal(t, pool.CreatorFee.WithdrawAuthority[:], buf[169:201])
}

func TestDecodePoolRejects(t *testing.T) {
	pool := newTestPool(false)
	buf := make([]byte, pool.Size())
	require.NoError(t, pool.Encode(buf))

	bad := append([]byte(nil), buf...)
	bad[0] = 2
	_, err := DecodePool(bad)
	assert.ErrorIs(t, err, ErrInvalidAccountData)

	_, err = DecodePool(buf[:PoolBaseSize-1])
	assert.ErrorIs(t, err, ErrInvalidAccountData)

	_, err = DecodePool(append(buf, 0))
	assert.ErrorIs(t, err, ErrInvalidAccountData)

	_, err = DecodePool(nil)
	assert.ErrorIs(t, err, ErrInvalidAccountData)
}
