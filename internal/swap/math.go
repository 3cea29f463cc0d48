package swap

import "lukechampine.com/uint128"

const (
	// FeeRateBaseDivider is the denominator of every fee rate: a rate of
	// 1_000_000 is 1%.
	FeeRateBaseDivider = 100_000_000

	// BootstrapLPAmount is minted for the first deposit into an empty pool.
	BootstrapLPAmount uint64 = 10_000_000_000
)

var (
	scale       = uint128.From64(^uint64(0))
	feeRateBase = uint128.From64(FeeRateBaseDivider)
)

// DepositAmounts is the result of sizing a deposit against the pool.
type DepositAmounts struct {
	A        uint64
	B        uint64
	LPMinted uint64
}

// SwapAmounts is the result of pricing a swap.
type SwapAmounts struct {
	Out        uint64
	DAOFee     uint64
	LPFee      uint64
	CreatorFee uint64
}

// WithdrawAmounts is the result of redeeming LP tokens.
type WithdrawAmounts struct {
	A uint64
	B uint64
}

// CalculateDepositAmounts sizes a deposit of at most maxA/maxB so that it
// matches the current pool ratio. The second return value is false when the
// computation overflows or divides by zero.
func CalculateDepositAmounts(poolA, poolB, lpSupply, maxA, maxB uint64) (DepositAmounts, bool) {
	return calculateDepositAmounts(poolA, poolB, lpSupply, maxA, maxB, BootstrapLPAmount)
}

func calculateDepositAmounts(poolA, poolB, lpSupply, maxA, maxB, bootstrapLP uint64) (DepositAmounts, bool) {
	if lpSupply == 0 {
		return DepositAmounts{A: maxA, B: maxB, LPMinted: bootstrapLP}, true
	}

	poolRatio, ok := mulDiv(uint128.From64(poolA), scale, uint128.From64(poolB))
	if !ok {
		return DepositAmounts{}, false
	}
	depositRatio, ok := mulDiv(uint128.From64(maxA), scale, uint128.From64(maxB))
	if !ok {
		return DepositAmounts{}, false
	}

	var depositA, depositB uint64
	if depositRatio.Cmp(poolRatio) >= 0 {
		// B binds; ties land here.
		a, ok := mulDiv(uint128.From64(maxB), poolRatio, scale)
		if !ok {
			return DepositAmounts{}, false
		}
		if depositA, ok = toUint64(a); !ok {
			return DepositAmounts{}, false
		}
		depositB = maxB
	} else {
		b, ok := mulDiv(uint128.From64(maxA), scale, poolRatio)
		if !ok {
			return DepositAmounts{}, false
		}
		if depositB, ok = toUint64(b); !ok {
			return DepositAmounts{}, false
		}
		depositA = maxA
	}

	share, ok := mulDiv(uint128.From64(depositA), scale, uint128.From64(poolA))
	if !ok {
		return DepositAmounts{}, false
	}
	minted, ok := mulDiv(share, uint128.From64(lpSupply), scale)
	if !ok {
		return DepositAmounts{}, false
	}
	lpMinted, ok := toUint64(minted)
	if !ok {
		return DepositAmounts{}, false
	}

	return DepositAmounts{A: depositA, B: depositB, LPMinted: lpMinted}, true
}

// CalculateSwapAmounts prices a constant-product swap of amountIn after
// taking the dao, lp and creator fees off the input. The lp fee stays in the
// pool and deepens the input side.
func CalculateSwapAmounts(poolIn, poolOut, amountIn uint64, daoFeeRate, lpFeeRate, creatorFeeRate uint32) (SwapAmounts, bool) {
	in := uint128.From64(amountIn)

	daoFee, ok := feeAmount(in, daoFeeRate)
	if !ok {
		return SwapAmounts{}, false
	}
	lpFee, ok := feeAmount(in, lpFeeRate)
	if !ok {
		return SwapAmounts{}, false
	}
	creatorFee, ok := feeAmount(in, creatorFeeRate)
	if !ok {
		return SwapAmounts{}, false
	}

	poolInAfterFees, ok := checkedAdd(uint128.From64(poolIn), lpFee)
	if !ok {
		return SwapAmounts{}, false
	}
	inAfterFees, ok := checkedSub(in, daoFee)
	if !ok {
		return SwapAmounts{}, false
	}
	if inAfterFees, ok = checkedSub(inAfterFees, lpFee); !ok {
		return SwapAmounts{}, false
	}
	if inAfterFees, ok = checkedSub(inAfterFees, creatorFee); !ok {
		return SwapAmounts{}, false
	}

	// x * y = k
	// (x + a)(y - b) = k
	// b = y * a / (x + a)
	denominator, ok := checkedAdd(poolInAfterFees, inAfterFees)
	if !ok {
		return SwapAmounts{}, false
	}
	out, ok := mulDiv(uint128.From64(poolOut), inAfterFees, denominator)
	if !ok {
		return SwapAmounts{}, false
	}

	var res SwapAmounts
	if res.Out, ok = toUint64(out); !ok {
		return SwapAmounts{}, false
	}
	if res.DAOFee, ok = toUint64(daoFee); !ok {
		return SwapAmounts{}, false
	}
	if res.LPFee, ok = toUint64(lpFee); !ok {
		return SwapAmounts{}, false
	}
	if res.CreatorFee, ok = toUint64(creatorFee); !ok {
		return SwapAmounts{}, false
	}
	return res, true
}

// CalculateWithdrawAmounts converts withdrawLP pool tokens into their share of
// both reserves, rounding down. Redeeming the whole supply returns the
// reserves exactly.
func CalculateWithdrawAmounts(poolA, poolB, lpSupply, withdrawLP uint64) (WithdrawAmounts, bool) {
	if withdrawLP == lpSupply {
		return WithdrawAmounts{A: poolA, B: poolB}, true
	}

	ratio, ok := mulDiv(uint128.From64(withdrawLP), scale, uint128.From64(lpSupply))
	if !ok {
		return WithdrawAmounts{}, false
	}

	a, ok := mulDiv(uint128.From64(poolA), ratio, scale)
	if !ok {
		return WithdrawAmounts{}, false
	}
	b, ok := mulDiv(uint128.From64(poolB), ratio, scale)
	if !ok {
		return WithdrawAmounts{}, false
	}

	var res WithdrawAmounts
	if res.A, ok = toUint64(a); !ok {
		return WithdrawAmounts{}, false
	}
	if res.B, ok = toUint64(b); !ok {
		return WithdrawAmounts{}, false
	}
	return res, true
}

func feeAmount(amount uint128.Uint128, rate uint32) (uint128.Uint128, bool) {
	if rate == 0 {
		return uint128.Zero, true
	}
	return mulDiv(amount, uint128.From64(uint64(rate)), feeRateBase)
}

// mulDiv computes x * y / z, failing on overflow or z == 0.
func mulDiv(x, y, z uint128.Uint128) (uint128.Uint128, bool) {
	p, ok := checkedMul(x, y)
	if !ok {
		return uint128.Zero, false
	}
	return checkedDiv(p, z)
}

func checkedMul(x, y uint128.Uint128) (uint128.Uint128, bool) {
	if x.IsZero() || y.IsZero() {
		return uint128.Zero, true
	}
	p := x.MulWrap(y)
	if !p.Div(y).Equals(x) {
		return uint128.Zero, false
	}
	return p, true
}

func checkedDiv(x, y uint128.Uint128) (uint128.Uint128, bool) {
	if y.IsZero() {
		return uint128.Zero, false
	}
	return x.Div(y), true
}

func checkedAdd(x, y uint128.Uint128) (uint128.Uint128, bool) {
	s := x.AddWrap(y)
	if s.Cmp(x) < 0 {
		return uint128.Zero, false
	}
	return s, true
}

func checkedSub(x, y uint128.Uint128) (uint128.Uint128, bool) {
	if x.Cmp(y) < 0 {
		return uint128.Zero, false
	}
	return x.Sub(y), true
}

func toUint64(v uint128.Uint128) (uint64, bool) {
	if v.Hi != 0 {
		return 0, false
	}
	return v.Lo, true
}
