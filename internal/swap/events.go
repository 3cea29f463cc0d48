package swap

import "github.com/gagliardetto/solana-go"

// Event describes one successful pool instruction. Balances and LPSupply are
// the values after the instruction. Swap does not take the LP mint among its
// accounts, so its events leave LPSupply zero; hosts holding the ledger fill
// it in after commit.
type Event struct {
	Op    Op
	Pool  solana.PublicKey
	Owner solana.PublicKey

	// Swap
	InSide    Side
	AmountIn  uint64
	AmountOut uint64

	// Deposit and Withdraw
	AmountA  uint64
	AmountB  uint64
	LPAmount uint64

	DAOFee     uint64
	LPFee      uint64
	CreatorFee uint64

	BalanceA uint64
	BalanceB uint64
	LPSupply uint64
}
