package aggregate

import (
	"math/big"
	"time"
)

const ratioScale = 18

func computeRate(fee *big.Int, tvl uint64) *string {
	if fee == nil || tvl == 0 {
		return nil
	}
	rat := new(big.Rat).SetFrac(fee, new(big.Int).SetUint64(tvl))
	val := rat.FloatString(ratioScale)
	return &val
}

// computeAPR annualizes the LP fee yield of a window. A constant-product
// pool holds equal value on both sides, so the yield on the whole pool is
// the mean of the per-side fee rates.
func computeAPR(feeRateA *string, feeRateB *string, windowSeconds uint64) *string {
	if windowSeconds == 0 || feeRateA == nil || feeRateB == nil {
		return nil
	}

	rateA, ok := new(big.Rat).SetString(*feeRateA)
	if !ok {
		return nil
	}
	rateB, ok := new(big.Rat).SetString(*feeRateB)
	if !ok {
		return nil
	}
	mean := new(big.Rat).Add(rateA, rateB)
	mean.Quo(mean, big.NewRat(2, 1))

	yearSeconds := big.NewRat(int64(365*24*time.Hour/time.Second), 1)
	window := big.NewRat(int64(windowSeconds), 1)
	apr := new(big.Rat).Mul(mean, yearSeconds)
	apr.Quo(apr, window)
	val := apr.FloatString(ratioScale)
	return &val
}
