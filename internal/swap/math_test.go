package swap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDepositAmounts(t *testing.T) {
	cases := []struct {
		name                 string
		poolA, poolB, supply uint64
		maxA, maxB           uint64
		want                 DepositAmounts
	}{
		{"empty pool", 0, 0, 0, 69, 420, DepositAmounts{69, 420, 10_000_000_000}},
		{"exact ratio", 100, 100, 10_000, 100, 100, DepositAmounts{100, 100, 10_000}},
		{"excess a", 100, 100, 10_000, 110, 100, DepositAmounts{100, 100, 10_000}},
		{"excess b", 100, 100, 10_000, 100, 110, DepositAmounts{100, 100, 10_000}},
		// share rounds down below a quarter of the supply
		{"uneven pool", 200, 100, 1_000, 50, 50, DepositAmounts{50, 25, 249}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := CalculateDepositAmounts(tc.poolA, tc.poolB, tc.supply, tc.maxA, tc.maxB)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCalculateDepositAmountsNeverExceedsMax(t *testing.T) {
	pools := [][3]uint64{{1_000, 3_000, 500}, {7, 13, 1_000_000}, {999_999, 1, 42}}
	offers := [][2]uint64{{10, 10}, {1, 1_000}, {1_000, 1}, {123_456, 654_321}}

	for _, p := range pools {
		for _, o := range offers {
			got, ok := CalculateDepositAmounts(p[0], p[1], p[2], o[0], o[1])
			require.True(t, ok)
			assert.LessOrEqual(t, got.A, o[0])
			assert.LessOrEqual(t, got.B, o[1])
		}
	}
}

func TestCalculateDepositAmountsFailures(t *testing.T) {
	_, ok := CalculateDepositAmounts(100, 0, 10, 1, 1)
	assert.False(t, ok, "zero pool b")

	_, ok = CalculateDepositAmounts(100, 100, 10, 1, 0)
	assert.False(t, ok, "zero max b")

	_, ok = CalculateDepositAmounts(0, 100, 10, 1, 1)
	assert.False(t, ok, "zero pool a")
}

func TestCalculateDepositAmountsBootstrapOverride(t *testing.T) {
	got, ok := calculateDepositAmounts(0, 0, 0, 5, 6, 1_000)
	require.True(t, ok)
	assert.Equal(t, DepositAmounts{5, 6, 1_000}, got)
}

func TestCalculateSwapAmountsWithFees(t *testing.T) {
	cases := []struct {
		name                string
		poolIn, poolOut, in uint64
		dao, lp, creator    uint32
		want                SwapAmounts
	}{
		{"one percent each", 1_000_000, 1_000_000, 100_000, 1_000_000, 1_000_000, 1_000_000, SwapAmounts{88_342, 1_000, 1_000, 1_000}},
		{"heavy dao fee", 1_000_000, 1_000_000, 100_000, 90_000_000, 990_000, 0, SwapAmounts{8_920, 90_000, 990, 0}},
		{"heavy lp fee", 1_000_000, 1_000_000, 100_000, 990_000, 90_000_000, 0, SwapAmounts{8_198, 990, 90_000, 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := CalculateSwapAmounts(tc.poolIn, tc.poolOut, tc.in, tc.dao, tc.lp, tc.creator)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCalculateSwapAmountsOverHundredPercentFee(t *testing.T) {
	_, ok := CalculateSwapAmounts(1_000_000, 1_000_000, 100_000, 50_000_000, 50_000_000, 1_000_000)
	assert.False(t, ok)
}

func TestCalculateSwapAmountsWithoutFees(t *testing.T) {
	cases := []struct {
		poolIn, poolOut, in, out uint64
	}{
		{1, 100, 0, 0},
		{100, 10, 11, 0},
		{100_000_000, 100, 1_011_000, 1},
		{100, 100, 5, 4},
		{100_000_000_000, 50_000_000_000, 100_000_000, 49_950_049},
		{100_000_000_000, 50_000_000_000, 750_000_000, 372_208_436},
		{10_000_000, 10_000_000, 5_000_000, 3_333_333},
		{10_000_000, 10_000_000, 20_000_000, 6_666_666},
		{10_000_000, 10_000_000, 40_000_000, 8_000_000},
		{70_000_000, 13_000_000, 100_000_000_000, 12_990_906},
	}

	for _, tc := range cases {
		got, ok := CalculateSwapAmounts(tc.poolIn, tc.poolOut, tc.in, 0, 0, 0)
		require.True(t, ok)
		assert.Equal(t, SwapAmounts{Out: tc.out}, got, "pool %d/%d in %d", tc.poolIn, tc.poolOut, tc.in)
	}
}

func TestCalculateSwapAmountsEmptyPool(t *testing.T) {
	_, ok := CalculateSwapAmounts(0, 0, 0, 0, 0, 0)
	assert.False(t, ok)
}

func TestCalculateSwapAmountsLargeValues(t *testing.T) {
	got, ok := CalculateSwapAmounts(math.MaxUint64, math.MaxUint64, math.MaxUint64, 0, 0, 0)
	require.True(t, ok)
	assert.Equal(t, uint64(math.MaxUint64/2), got.Out)
}

func TestSwapRoundTripLosesValueToFees(t *testing.T) {
	const amountIn = 100_000

	forward, ok := CalculateSwapAmounts(1_000_000, 1_000_000, amountIn, 1_000_000, 1_000_000, 1_000_000)
	require.True(t, ok)
	retained := amountIn - forward.DAOFee - forward.CreatorFee
	back, ok := CalculateSwapAmounts(1_000_000-forward.Out, 1_000_000+retained, forward.Out, 1_000_000, 1_000_000, 1_000_000)
	require.True(t, ok)
	assert.Less(t, back.Out, uint64(amountIn))

	forward, ok = CalculateSwapAmounts(1_000_000, 1_000_000, amountIn, 0, 0, 0)
	require.True(t, ok)
	back, ok = CalculateSwapAmounts(1_000_000-forward.Out, 1_000_000+amountIn, forward.Out, 0, 0, 0)
	require.True(t, ok)
	assert.LessOrEqual(t, back.Out, uint64(amountIn))
	assert.InDelta(t, amountIn, back.Out, 2)
}

func TestCalculateWithdrawAmounts(t *testing.T) {
	cases := []struct {
		poolA, poolB, supply, lp uint64
		want                     WithdrawAmounts
	}{
		{10, 10, 100, 100, WithdrawAmounts{10, 10}},
		{10_000, 10_000, 100_000, 50_000, WithdrawAmounts{4_999, 4_999}},
		{10_000_000_000, 10_000_000_000, 100_000_000_000, 50_000_000_000, WithdrawAmounts{4_999_999_999, 4_999_999_999}},
		{10_000, 10_000, 100_000, 50_001, WithdrawAmounts{5_000, 5_000}},
		{10_000, 5_000, 100_000, 50_001, WithdrawAmounts{5_000, 2_500}},
		{5_000, 10_000, 100_000, 50_001, WithdrawAmounts{2_500, 5_000}},
		{5_000, 10_000, 100_000, 1, WithdrawAmounts{0, 0}},
		{5_000_000, 3_000_000, 100_000, 1, WithdrawAmounts{49, 29}},
		{10, 10, 100, 9, WithdrawAmounts{0, 0}},
	}

	for _, tc := range cases {
		got, ok := CalculateWithdrawAmounts(tc.poolA, tc.poolB, tc.supply, tc.lp)
		require.True(t, ok)
		assert.Equal(t, tc.want, got)
	}
}

func TestCalculateWithdrawAmountsRoundsTowardPool(t *testing.T) {
	poolA, poolB, supply := uint64(10_000), uint64(7_777), uint64(100_000)

	whole, ok := CalculateWithdrawAmounts(poolA, poolB, supply, 50_000)
	require.True(t, ok)

	first, ok := CalculateWithdrawAmounts(poolA, poolB, supply, 25_000)
	require.True(t, ok)
	second, ok := CalculateWithdrawAmounts(poolA-first.A, poolB-first.B, supply-25_000, 25_000)
	require.True(t, ok)

	assert.LessOrEqual(t, first.A+second.A, whole.A)
	assert.LessOrEqual(t, first.B+second.B, whole.B)
}

func TestCalculateWithdrawAmountsZeroSupply(t *testing.T) {
	_, ok := CalculateWithdrawAmounts(10, 10, 0, 5)
	assert.False(t, ok)
}
