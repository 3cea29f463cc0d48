// Package units converts between raw token amounts and their decimal
// renderings.
package units

import (
	"fmt"
	"math/big"

	"cosmossdk.io/math"
)

// BpsDivider is the basis-point denominator used for slippage.
const BpsDivider = 10_000

// FormatAmount renders a raw amount scaled down by decimals.
func FormatAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(abs, denom)
	text := rat.FloatString(int(decimals))
	if sign < 0 {
		return "-" + text
	}
	return text
}

// FormatUint is FormatAmount for a u64.
func FormatUint(value uint64, decimals uint8) string {
	return FormatAmount(new(big.Int).SetUint64(value), decimals)
}

// ParseAmount converts a decimal string such as "1.25" into raw units. It
// fails when the value has more fractional digits than decimals or does not
// fit in a u64.
func ParseAmount(text string, decimals uint8) (uint64, error) {
	if decimals > math.LegacyPrecision {
		return 0, fmt.Errorf("decimals %d above %d", decimals, math.LegacyPrecision)
	}
	dec, err := math.LegacyNewDecFromStr(text)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", text, err)
	}
	if dec.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", text)
	}
	scaled := dec.MulInt(math.NewIntWithDecimal(1, int(decimals)))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than %d decimals", text, decimals)
	}
	raw := scaled.TruncateInt()
	if !raw.IsUint64() {
		return 0, fmt.Errorf("amount %q overflows u64", text)
	}
	return raw.Uint64(), nil
}

// SpotPrice returns the price of one whole A token in B tokens implied by
// the balances. ok is false for an empty pool.
func SpotPrice(balanceA uint64, decimalsA uint8, balanceB uint64, decimalsB uint8) (price math.LegacyDec, ok bool) {
	if balanceA == 0 || balanceB == 0 {
		return math.LegacyDec{}, false
	}
	if decimalsA > math.LegacyPrecision || decimalsB > math.LegacyPrecision {
		return math.LegacyDec{}, false
	}
	a := math.LegacyNewDecFromIntWithPrec(math.NewIntFromUint64(balanceA), int64(decimalsA))
	b := math.LegacyNewDecFromIntWithPrec(math.NewIntFromUint64(balanceB), int64(decimalsB))
	return b.Quo(a), true
}

// MinAmount lowers amount by slippageBps basis points, rounding down.
func MinAmount(amount uint64, slippageBps uint32) uint64 {
	if slippageBps >= BpsDivider {
		return 0
	}
	out := math.NewIntFromUint64(amount).
		Mul(math.NewInt(int64(BpsDivider - slippageBps))).
		Quo(math.NewInt(BpsDivider))
	return out.Uint64()
}
