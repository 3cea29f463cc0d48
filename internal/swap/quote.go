package swap

// QuoteSwap prices a swap of amountIn entering on side in against the pool's
// ledger balances, the same way Swap would.
func QuoteSwap(pool *Pool, in Side, amountIn uint64, daoFeeRate uint32) (SwapAmounts, bool) {
	poolIn, poolOut := pool.BalanceA, pool.BalanceB
	if in == SideB {
		poolIn, poolOut = poolOut, poolIn
	}
	return CalculateSwapAmounts(poolIn, poolOut, amountIn, daoFeeRate, pool.LPFeeRate, pool.creatorFeeRate())
}

func (p *Pool) creatorFeeRate() uint32 {
	if p.CreatorFee == nil {
		return 0
	}
	return p.CreatorFee.Rate
}
