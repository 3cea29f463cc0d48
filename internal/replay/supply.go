package replay

import (
	"hodor/internal/ledger"
	"hodor/internal/swap"
)

// fillLPSupply sets LPSupply on swap events from the committed ledger. The
// swap account list has no LP mint, so the processor leaves it zero; a swap
// never mints or burns LP, so the current supply is the post-swap supply.
// Events whose pool can not be read keep zero.
func fillLPSupply(bank *ledger.Bank, events []swap.Event) {
	for i := range events {
		if events[i].Op != swap.OpSwap {
			continue
		}
		acc, ok := bank.Account(events[i].Pool)
		if !ok {
			continue
		}
		pool, err := swap.DecodePool(acc.Data)
		if err != nil {
			continue
		}
		mint, err := bank.Mint(pool.LPMint)
		if err != nil {
			continue
		}
		events[i].LPSupply = mint.Supply
	}
}
